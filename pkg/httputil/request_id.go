package httputil

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey string

const (
	HeaderRequestID        = "X-Request-ID"
	ctxKeyReqID     ctxKey = "req_id"
)

// WithRequestID stores id in ctx; outbound requests carrying ctx reuse it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyReqID, id)
}

// FromContext returns the request id stored in ctx.
func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyReqID).(string)
	return v, ok && v != ""
}

// MiddlewareRequestID accepts or generates X-Request-ID for inbound requests.
func MiddlewareRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)

		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), reqID)))
	})
}

// RequestIDTransport stamps every outbound request with X-Request-ID,
// taken from the request context or freshly generated.
type RequestIDTransport struct {
	Base http.RoundTripper
}

func (t *RequestIDTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get(HeaderRequestID) == "" {
		id, ok := FromContext(r.Context())
		if !ok {
			id = uuid.NewString()
		}
		r = r.Clone(r.Context())
		r.Header.Set(HeaderRequestID, id)
	}
	return base(t.Base).RoundTrip(r)
}

func base(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
