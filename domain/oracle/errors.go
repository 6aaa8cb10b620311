package oracle

import "errors"

// Domain errors for oracle responses.
var (
	// ErrMalformedResponse indicates the response did not match the expected shape.
	ErrMalformedResponse = errors.New("malformed oracle response")

	// ErrEmptyResponse indicates the response contained no usable entries.
	ErrEmptyResponse = errors.New("empty oracle response")

	// ErrUnknownTool indicates a ranking named a tool outside the candidate set.
	ErrUnknownTool = errors.New("oracle named an unknown tool")

	// ErrArity indicates a proposed argument tuple has the wrong length.
	ErrArity = errors.New("oracle proposed wrong argument count")

	// ErrProbabilityRange indicates a probability outside [0, 1] or not finite.
	ErrProbabilityRange = errors.New("oracle probability out of range")

	// ErrUnavailable indicates the oracle could not be reached.
	ErrUnavailable = errors.New("oracle unavailable")
)
