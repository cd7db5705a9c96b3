package service

import "errors"

// ErrSyncInProgress is returned when a sync run is requested while a
// previous run still holds the queue.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrNotPaired is returned when pairing verification is attempted on a
// device that never completed enrollment.
var ErrNotPaired = errors.New("device has not been paired")
