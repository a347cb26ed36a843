package vector

import "errors"

var (
	// ErrIndexInit is returned when the collection cannot be created or
	// already exists with an incompatible dimensionality. Fatal until an
	// explicit clear and re-init.
	ErrIndexInit = errors.New("index init failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrNotInitialized is returned when the collection has not been
	// created yet.
	ErrNotInitialized = errors.New("vector index not initialized")
)
