package util

import "math/rand"

// New returns a dedicated generator. Seed 0 is remapped so that a missing
// seed flag still gives a reproducible run.
func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// Derive spreads one base seed across workers and jobs.
func Derive(seed int64, worker, job int) int64 {
	return seed + int64(worker)*7919 + int64(job)
}
