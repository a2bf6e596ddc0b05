package auth

// Authorized reports whether role is in the allowed set. Kept as a
// pure function so role gates compose explicitly with the route guard
// instead of being captured in handler closures.
func Authorized(allowed []string, role string) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}
