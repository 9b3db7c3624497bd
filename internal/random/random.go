// Package random provides the uniform selection primitives shared by the
// draw and grouping engines.
package random

import "math/rand/v2"

// Source yields uniformly distributed integers in [0, n).
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Default is backed by the runtime-seeded generator of math/rand/v2 and is
// safe for concurrent use.
var Default Source = globalSource{}

// Shuffle permutes s in place with a Fisher-Yates pass, so every ordering
// is equally likely given a uniform src.
func Shuffle[T any](src Source, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
