package database

import "errors"

// ErrDatabaseNotFound is returned by Open when CreateIfNotExists is false
// and no database file exists.
var ErrDatabaseNotFound = errors.New("database not found")

// ErrNilReport is returned when a nil report is saved.
var ErrNilReport = errors.New("report is nil")
