package core

import (
	"errors"
	"reflect"
	"testing"
)

// ============================================================================
// SplitRecord Tests
// ============================================================================

// Records are always split on the LAST two colons so URLs may contain colons.
func TestSplitRecord_RightAnchored(t *testing.T) {
	tests := []struct {
		line                 string
		url, login, password string
		ok                   bool
	}{
		{"http://a.com:u1:p1", "http://a.com", "u1", "p1", true},
		{"https://host:8080/p:login:pass", "https://host:8080/p", "login", "pass", true},
		{"a:b:c:d:e", "a:b:c", "d", "e", true},
		{"url::pass", "url", "", "pass", true},
		{"::", "", "", "", true},
		{"url:login:", "url", "login", "", true},
		{"bad-line-no-colons", "", "", "", false},
		{"only:one", "", "", "", false},
		{"", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			url, login, password, ok := SplitRecord(tt.line)
			if ok != tt.ok {
				t.Fatalf("SplitRecord(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
			if !ok {
				return
			}
			if url != tt.url || login != tt.login || password != tt.password {
				t.Errorf("SplitRecord(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.line, url, login, password, tt.url, tt.login, tt.password)
			}
		})
	}
}

// ============================================================================
// ParseImport Tests
// ============================================================================

func TestParseImport(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantDraft []ResourceDraft
		wantDiag  []LineError
	}{
		{
			name: "round trip two records",
			text: "http://a.com:u1:p1\nhttp://b.com:u2:p2",
			wantDraft: []ResourceDraft{
				{URL: "http://a.com", Login: "u1", Password: "p1"},
				{URL: "http://b.com", Login: "u2", Password: "p2"},
			},
		},
		{
			name:     "no colons is invalid format",
			text:     "bad-line-no-colons",
			wantDiag: []LineError{{Line: 1, Reason: ReasonInvalidFormat}},
		},
		{
			name:     "empty login reports empty fields not invalid format",
			text:     "url::pass",
			wantDiag: []LineError{{Line: 1, Reason: ReasonEmptyFields}},
		},
		{
			name: "url with port and path",
			text: "https://host:8080/p:login:pass",
			wantDraft: []ResourceDraft{
				{URL: "https://host:8080/p", Login: "login", Password: "pass"},
			},
		},
		{
			name: "blank and whitespace lines are ignored",
			text: "\n   \nhttp://a.com:u1:p1\n\t\n\n",
			wantDraft: []ResourceDraft{
				{URL: "http://a.com", Login: "u1", Password: "p1"},
			},
		},
		{
			name: "whitespace trimmed around line and fields",
			text: "   http://a.com : u1 :  p1   ",
			wantDraft: []ResourceDraft{
				{URL: "http://a.com", Login: "u1", Password: "p1"},
			},
		},
		{
			name:     "empty last field",
			text:     "url:login:",
			wantDiag: []LineError{{Line: 1, Reason: ReasonEmptyFields}},
		},
		{
			name:     "whitespace-only field is empty",
			text:     "http://a.com:   :p1",
			wantDiag: []LineError{{Line: 1, Reason: ReasonEmptyFields}},
		},
		{
			name: "CRLF line endings",
			text: "http://a.com:u1:p1\r\nhttp://b.com:u2:p2\r\n",
			wantDraft: []ResourceDraft{
				{URL: "http://a.com", Login: "u1", Password: "p1"},
				{URL: "http://b.com", Login: "u2", Password: "p2"},
			},
		},
		{
			name: "line numbers count skipped blank lines",
			text: "\nhttp://a.com:u1:p1\n\nbroken\nhttp://b.com::p2\nhttp://c.com:u3:p3",
			wantDraft: []ResourceDraft{
				{URL: "http://a.com", Login: "u1", Password: "p1"},
				{URL: "http://c.com", Login: "u3", Password: "p3"},
			},
			wantDiag: []LineError{
				{Line: 4, Reason: ReasonInvalidFormat},
				{Line: 5, Reason: ReasonEmptyFields},
			},
		},
		{
			name: "empty payload",
			text: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ParseImport(tt.text)
			if !reflect.DeepEqual(plan.Drafts, tt.wantDraft) {
				t.Errorf("Drafts = %#v, want %#v", plan.Drafts, tt.wantDraft)
			}
			if !reflect.DeepEqual(plan.Diagnostics, tt.wantDiag) {
				t.Errorf("Diagnostics = %#v, want %#v", plan.Diagnostics, tt.wantDiag)
			}
		})
	}
}

func TestImportPlan_Messages(t *testing.T) {
	plan := ParseImport("bad\nurl::pass")
	got := plan.Messages()
	want := []string{
		"Line 1: invalid format (expected url:login:pass)",
		"Line 2: empty fields",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Messages() = %q, want %q", got, want)
	}

	if msgs := ParseImport("").Messages(); msgs == nil || len(msgs) != 0 {
		t.Errorf("Messages() for clean payload = %#v, want empty non-nil slice", msgs)
	}
}

// ============================================================================
// DecodeImport Tests
// ============================================================================

func TestDecodeImport(t *testing.T) {
	tests := []struct {
		name       string
		input      []byte
		want       string
		wantOffset int
		wantErr    bool
	}{
		{name: "ascii", input: []byte("http://a.com:u:p"), want: "http://a.com:u:p"},
		{name: "unicode", input: []byte("http://пример.рф:логин:пароль"), want: "http://пример.рф:логин:пароль"},
		{name: "bom stripped", input: []byte("\xef\xbb\xbfhttp://a.com:u:p"), want: "http://a.com:u:p"},
		{name: "empty", input: []byte{}, want: ""},
		{name: "invalid byte", input: []byte("abc\xffdef"), wantErr: true, wantOffset: 3},
		{name: "truncated sequence", input: []byte("ok\xd0"), wantErr: true, wantOffset: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeImport(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrEncoding) {
					t.Fatalf("DecodeImport() error = %v, want ErrEncoding", err)
				}
				var encErr *EncodingError
				if !errors.As(err, &encErr) {
					t.Fatalf("DecodeImport() error = %T, want *EncodingError", err)
				}
				if encErr.Offset != tt.wantOffset {
					t.Errorf("Offset = %d, want %d", encErr.Offset, tt.wantOffset)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeImport() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeImport() = %q, want %q", got, tt.want)
			}
		})
	}
}
