package token

import (
	"context"
	"net/http"
	"strings"

	"github.com/frostx76/microservices-project/pkg/apperr"
)

type subjectKey struct{}

// WithSubject stores the verified email on ctx.
func WithSubject(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, subjectKey{}, email)
}

// Subject returns the email stored by RequireToken, or "".
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}

// BearerToken extracts the token from "Authorization: Bearer ..." or,
// failing that, the "token" query parameter.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return r.URL.Query().Get("token")
}

// RequireToken rejects requests without a valid bearer token.
func RequireToken(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := v.Verify(r.Context(), BearerToken(r))
			if err != nil {
				apperr.Write(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), email)))
		})
	}
}
