package errors

import "errors"

// ErrOptimisticLock the row was modified by someone else since it was read.
var ErrOptimisticLock = errors.New("record was modified concurrently, reload and retry")
