package interceptors

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows browser uploads from the given origins. An empty list allows
// any origin.
func CORS(allowedOrigins []string) Middleware {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "X-Transaction-Count", "Content-Disposition"},
		MaxAge:         300,
	})
	return c.Handler
}
