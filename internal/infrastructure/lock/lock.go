// Package lock provides the merge intent lock: workers take it on both team
// ids before re-pointing anything, so a pair is never merged twice or in
// opposite directions at once. Every implementation satisfies
// usecase.Locker and fails fast with usecase.ErrMergeConflict.
package lock

import (
	"fmt"

	"github.com/MGMAppDev/soccerview-sub009/internal/usecase"
)

func held(key string) error {
	return fmt.Errorf("%w: lock %s is held", usecase.ErrMergeConflict, key)
}
