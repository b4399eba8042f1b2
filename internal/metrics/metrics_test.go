package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewarePathLabel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/products/{code}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := Middleware(mux)

	t.Run("Wildcard Requests Share The Registered Pattern Label", func(t *testing.T) {
		counter := httpRequestsTotal.WithLabelValues("200", http.MethodGet, "/api/v1/products/{code}")
		before := testutil.ToFloat64(counter)

		for _, code := range []string{"TC001", "TT001", "PI001"} {
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+code, nil))

			assert.Equal(t, http.StatusOK, recorder.Code)
		}

		assert.Equal(t, before+3, testutil.ToFloat64(counter))
	})

	t.Run("Unmatched Requests Collapse Into One Label", func(t *testing.T) {
		counter := httpRequestsTotal.WithLabelValues("404", http.MethodGet, "unmatched")
		before := testutil.ToFloat64(counter)

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/no-such-route", nil))

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Equal(t, before+1, testutil.ToFloat64(counter))
	})
}
