package utils

// Ptr returns a pointer to v. Optional request parameters are pointer-typed
// so that "unset" and "zero" stay distinguishable; Ptr lets callers pass a
// literal without declaring a throwaway variable first.
//
// Example:
//
//	cfg := &ai.RequestConfig{Temperature: utils.Ptr(0.7)}
func Ptr[T any](v T) *T {
	return &v
}
