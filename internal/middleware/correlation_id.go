package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"
	maxCorrelationID    = 128
)

// CorrelationID tags the request with the caller's X-Correlation-Id. Without
// a usable one it reuses chi's request id, then falls back to a fresh uuid.
// The id is echoed in the response and stamped on published events.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(HeaderCorrelationID)
		if !usableID(cid) {
			cid = chimw.GetReqID(r.Context())
		}
		if !usableID(cid) {
			cid = uuid.NewString()
		}

		w.Header().Set(HeaderCorrelationID, cid)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxCorrelationID, cid)))
	})
}

// usableID rejects empty, oversized and non-printable values so a client
// cannot inject control characters into logs.
func usableID(s string) bool {
	if s == "" || len(s) > maxCorrelationID {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
