package core

import (
	"testing"
	"time"
)

func TestNewResource(t *testing.T) {
	d := ResourceDraft{URL: "http://a.com", Login: "u1", Password: "p1"}
	a := NewResource(d)
	b := NewResource(d)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids = %q, %q; want distinct non-empty ids", a.ID, b.ID)
	}
	if !a.IsActive {
		t.Error("new resource should be active")
	}
	if a.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", a.CreatedAt.Location())
	}
	// Stored timestamps keep microseconds, so the returned value must too.
	if ns := a.CreatedAt.Nanosecond() % int(time.Microsecond); ns != 0 {
		t.Errorf("CreatedAt %v has sub-microsecond part %dns", a.CreatedAt, ns)
	}
}
