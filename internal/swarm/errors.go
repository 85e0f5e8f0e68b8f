package swarm

import "errors"

// ErrConfiguration is returned for invalid construction input, such as a
// negative simulator index or a malformed parameter source.
var ErrConfiguration = errors.New("invalid configuration")

// ErrResource is returned when a working directory, parameter file, or
// embedded resource cannot be created or read. A per-drone resource failure
// aborts only that drone's add operation.
var ErrResource = errors.New("resource failure")

// ErrState is returned when an operation is attempted outside its valid
// lifecycle state, such as adding a drone to a stopped swarm.
var ErrState = errors.New("invalid swarm state")
