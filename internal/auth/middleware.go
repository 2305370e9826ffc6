package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Sessions resolves a Bearer token into the request actor. Requests without a
// valid token proceed anonymously; route guards decide whether that is enough.
func (s *Service) Sessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := s.Resolve(r.Context(), token)
		if err != nil {
			if s.logger != nil {
				s.logger.Debug("resolve bearer token", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
