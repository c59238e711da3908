package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// CORSOptions builds the cors options for the configured origins. A "*"
// entry allows any origin, and then credentials are never allowed.
func CORSOptions(allowedOrigins []string) cors.Options {
	wildcard := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
	}

	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Cache-Control", "X-Requested-With", CorrelationHeader},
		ExposedHeaders:   []string{CorrelationHeader},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

// CORS runs go-chi/cors inside gin. Preflight requests are answered by the
// cors handler and stop the chain.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	handler := cors.New(CORSOptions(allowedOrigins))

	return func(c *gin.Context) {
		passed := false
		handler.Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}
