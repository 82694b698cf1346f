package weeks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouterForTests(t *testing.T, now time.Time) *mux.Router {
	t.Helper()
	r := mux.NewRouter()
	handler := NewHandler()
	handler.Now = func() time.Time { return now }
	handler.SetupRoutes(r)
	return r
}

func TestHandler_Current(t *testing.T) {
	r := setupRouterForTests(t, time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC))

	req := httptest.NewRequest("GET", "/api/weeks/current", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp WeekResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, WeekResponse{
		YearWeek:  "2025-10",
		Year:      2025,
		Week:      10,
		Start:     "2025-03-03",
		End:       "2025-03-09",
		Formatted: "3/3 - 9/3 2025",
		Previous:  "2025-9",
		Next:      "2025-11",
	}, resp)
}

func TestHandler_Get(t *testing.T) {
	r := setupRouterForTests(t, time.Now().UTC())

	req := httptest.NewRequest("GET", "/api/weeks/2025-52", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp WeekResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "2025-52", resp.YearWeek)
	assert.Equal(t, "2025-51", resp.Previous)
	assert.Equal(t, "2026-1", resp.Next)

	// zero padded week is canonicalized
	req = httptest.NewRequest("GET", "/api/weeks/2025-07", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "2025-7", resp.YearWeek)

	req = httptest.NewRequest("GET", "/api/weeks/2025-99", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid week")
}
