package embeddings

import "errors"

// ErrInvalidInput is returned when text to embed is empty or whitespace.
var ErrInvalidInput = errors.New("invalid embedding input")
