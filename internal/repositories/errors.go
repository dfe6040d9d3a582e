package repositories

import "errors"

// ErrNotFound is returned when a record does not exist. Repositories wrap it
// with the record kind and id so handlers can map it to a 404 via errors.Is.
var ErrNotFound = errors.New("record not found")
