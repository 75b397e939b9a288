package utils

// ContextKey keys request-scoped values set by the JWT middleware.
type ContextKey string
