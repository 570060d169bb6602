package middleware

import "net/http"

// RecordClientIP stores the remote address on the request context so the
// audit logger can attribute events to a client.
func RecordClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), r)))
	})
}
