package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCollectorImplementsMetricsCollector(t *testing.T) {
	c := NewCollector("ddb_test_collector")

	c.IncOperationCount("add", true)
	c.IncOperationCount("add", false)
	c.ObserveOperationDuration("add", 10*time.Millisecond)
	c.IncEntriesProcessed("add", 3)
	c.ObserveBytesHashed(1024)
	c.SetEntryCount(42)
	c.IncStorageOperations("download", true)
	c.ObserveStorageDuration("download", 5*time.Millisecond)
}

func TestCollectorMiddlewareRecordsRequests(t *testing.T) {
	c := NewCollector("ddb_test_middleware")

	handler := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestNormalizePathTruncatesLongPaths(t *testing.T) {
	short := "/api/entries"
	if got := normalizePath(short); got != short {
		t.Errorf("normalizePath(%q) = %q, want unchanged", short, got)
	}

	long := "/api/search?q=" + string(make([]byte, 40))
	if got := normalizePath(long); len(got) != 23 {
		t.Errorf("normalizePath(long) length = %d, want 23", len(got))
	}
}

func TestStatusToString(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{0, "unknown"},
	}
	for _, tt := range tests {
		if got := statusToString(tt.code); got != tt.want {
			t.Errorf("statusToString(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
