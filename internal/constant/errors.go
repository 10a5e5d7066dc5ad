package constant

import "errors"

// ErrNotFound is wrapped by every lookup that finds nothing. The HTTP layer
// maps it to 404.
var ErrNotFound = errors.New("not found")
