package middleware

import "net/http"

// Chain wraps next with the given middlewares. The first middleware in
// the list becomes the outermost wrapper, so it runs first on the way in.
func Chain(next http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		next = middlewares[i](next)
	}
	return next
}
