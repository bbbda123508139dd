package middleware

// WithTokenChecker swaps the bcrypt comparison, counting calls in tests.
func (h *AuthMiddlewareHandler) WithTokenChecker(check func(token, hash string) bool) *AuthMiddlewareHandler {
	h.checkToken = check
	return h
}
