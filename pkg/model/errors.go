package model

import "errors"

// Error kinds shared by the fetch client, notifier and state store. Callers
// match them with errors.Is.
var (
	ErrFetch   = errors.New("upstream fetch failed")
	ErrNotify  = errors.New("upstream notify failed")
	ErrPersist = errors.New("persistence failed")
)
