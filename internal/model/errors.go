package model

import "errors"

// ErrInvalidTransition is returned when a session is asked to move between two
// states that are not connected in the session state machine.
var ErrInvalidTransition = errors.New("invalid session state transition")

// ErrInvalidFeatureRecord is returned when a stored feature record is not a
// flat JSON object of numbers.
var ErrInvalidFeatureRecord = errors.New("feature record must be a JSON object of numbers")
