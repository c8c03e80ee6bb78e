package api

import (
	"net/http"

	"github.com/starford/ansuz/internal/content"
)

// cacheHeader matches the CDN caching policy: short browser cache, long
// shared cache purged on deploy.
const cacheHeader = "max-age=300, s-maxage=2592000"

// CacheControl sets the response cache policy. Development responses
// are never cached so the watcher's rebuilds show up immediately.
func CacheControl(mode content.Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mode == content.ModeProduction {
				w.Header().Set("Cache-Control", cacheHeader)
			} else {
				w.Header().Set("Cache-Control", "no-store")
			}
			next.ServeHTTP(w, r)
		})
	}
}
