package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Log attaches a per-request log_id to the context logger and records
// the request once it completes.
func Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			start = time.Now()
			ctx   = log.Ctx(r.Context()).With().
				Str("log_id", uuid.New().String()).
				Logger().WithContext(r.Context())
		)

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Ctx(ctx).Info().Msgf("%s %s, duration: %v", r.Method, r.URL.Path, time.Since(start))
	})
}
