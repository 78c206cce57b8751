package llm

import "errors"

var (
	// ErrUnavailable is returned when the generative provider cannot be
	// reached or returns a failure status.
	ErrUnavailable = errors.New("llm provider unavailable")

	// ErrMalformedOutput is returned when the provider responds but its
	// output cannot be parsed into the expected structure.
	ErrMalformedOutput = errors.New("llm output malformed")
)
