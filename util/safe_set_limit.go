package util

import "golang.org/x/sync/errgroup"

// SafeSetLimit sets the limit on an errgroup.Group, raising a limit below 1 to 1.
// errgroup treats 0 as "no goroutine may run" and a negative limit as unbounded.
//
// Parameters:
//   - g: The errgroup.Group to set the limit on
//   - limit: The maximum number of goroutines that can be active at once
func SafeSetLimit(g *errgroup.Group, limit int) {
	if limit < 1 {
		limit = 1
	}

	g.SetLimit(limit)
}
