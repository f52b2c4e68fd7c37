package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(ResourceOperationsTotal.WithLabelValues("delete", "error"))

	RecordOperation("delete", errors.New("boom"))
	RecordOperation("delete", nil)

	after := testutil.ToFloat64(ResourceOperationsTotal.WithLabelValues("delete", "error"))
	assert.Equal(t, before+1, after)
}

func TestRecordImport(t *testing.T) {
	before := testutil.ToFloat64(ImportLinesTotal.WithLabelValues(OutcomeEmptyFields))

	RecordImport(3, 1, 2, 10*time.Millisecond)

	after := testutil.ToFloat64(ImportLinesTotal.WithLabelValues(OutcomeEmptyFields))
	assert.Equal(t, before+2, after)
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/resources", "200"))

	RecordHTTPRequest("GET", "/api/resources", 200, time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/resources", "200"))
	assert.Equal(t, before+1, after)
}
