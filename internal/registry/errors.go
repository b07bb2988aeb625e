package registry

import "errors"

var (
	// ErrNameTaken is returned when a User, Room or Game create path finds a
	// live, case-insensitive name collision.
	ErrNameTaken = errors.New("registry: name already taken")
	// ErrNotFound names the absence of a live entity for an ID or name. The
	// registry's own lookups do not return it; they report absence with a bool.
	ErrNotFound = errors.New("registry: not found")
)
