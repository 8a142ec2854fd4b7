package array

func Map[I, O any](arr []I, fn func(I) O) []O {
	res := make([]O, len(arr))
	for i, v := range arr {
		res[i] = fn(v)
	}
	return res
}

func ToAny[T any](v T) any { return v }

// Set builds a lookup set from a slice.
func Set[T comparable](arr []T) map[T]struct{} {
	res := make(map[T]struct{}, len(arr))
	for _, v := range arr {
		res[v] = struct{}{}
	}
	return res
}

// Any reports whether fn returns true for at least one element.
func Any[T any](arr []T, fn func(T) bool) bool {
	for _, v := range arr {
		if fn(v) {
			return true
		}
	}
	return false
}
