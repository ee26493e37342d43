package common

// Coalesce returns the first argument that is not the zero value of T, or the zero value.
// Used to fill unset staging fields with defaults.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
