package game

import "math/rand"

// Sample picks a uniformly random element. Panics on an empty slice.
func Sample[T any](xs []T) T {
	return xs[rand.Intn(len(xs))]
}

// Shuffled returns a shuffled copy, leaving the input untouched.
func Shuffled[T any](xs []T) []T {
	out := make([]T, len(xs))
	copy(out, xs)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
