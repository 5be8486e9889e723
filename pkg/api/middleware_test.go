package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		allowedOrigins []string
		origin         string
		method         string
		expectedOrigin string
	}{
		{"wildcard echoes origin", []string{"*"}, "https://example.com", http.MethodGet, "https://example.com"},
		{"wildcard without origin", []string{"*"}, "", http.MethodGet, "*"},
		{"listed origin", []string{"https://a.com", "https://b.com"}, "https://b.com", http.MethodGet, "https://b.com"},
		{"unlisted origin", []string{"https://a.com"}, "https://evil.com", http.MethodGet, ""},
		{"empty list", []string{}, "https://a.com", http.MethodGet, ""},
		{"preflight", []string{"https://a.com"}, "https://a.com", http.MethodOptions, "https://a.com"},
		{"preflight from unlisted origin", []string{"https://a.com"}, "https://evil.com", http.MethodOptions, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			CORSMiddleware(tt.allowedOrigins)(http.HandlerFunc(okHandler)).ServeHTTP(w, req)

			require.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.expectedOrigin != "" {
				require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "GET")
				require.NotEmpty(t, w.Header().Get("Access-Control-Allow-Headers"))
				require.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
			}

			require.Equal(t, http.StatusOK, w.Code)
			if tt.method == http.MethodOptions {
				require.Empty(t, w.Body.String())
			} else {
				require.Equal(t, "OK", w.Body.String())
			}
		})
	}
}

func TestResponseWriterKeepsFirstStatus(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
	wrapped.WriteHeader(http.StatusCreated)
	wrapped.WriteHeader(http.StatusBadRequest)

	require.Equal(t, http.StatusCreated, wrapped.statusCode)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable} {
		h := LoggingMiddleware(logger.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, status, w.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	for _, value := range []any{"boom", assert.AnError, 42} {
		h := RecoveryMiddleware(logger.NewNopLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(value)
		}))

		w := httptest.NewRecorder()
		require.NotPanics(t, func() {
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		})
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Equal(t, "Internal Server Error\n", w.Body.String())
	}
}
