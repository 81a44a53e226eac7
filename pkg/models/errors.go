package models

import "errors"

// Error taxonomy shared by the server handlers and the client facade. The
// HTTP layer maps these to status codes (404, 401, 403) and the client maps
// the codes back, so errors.Is works on either side of the wire.
var (
	// ErrNotFound indicates the requested record does not exist. Reads
	// translate it into a resolved-but-absent result; it is never fatal.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthenticated indicates a mutation was attempted without a
	// valid session. Callers should route the user to sign-in.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotAuthorized indicates the caller holds a valid session but is
	// not the author of the record being mutated. Kept distinct from
	// ErrNotAuthenticated so callers can tell the two apart.
	ErrNotAuthorized = errors.New("not authorized")
)
