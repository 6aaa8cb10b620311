package tool

import "errors"

// Domain errors for the tool system.
var (
	// ErrEmptyName indicates a tool was created with an empty name.
	ErrEmptyName = errors.New("tool name cannot be empty")

	// ErrNoEffect indicates a tool was created without an effect.
	ErrNoEffect = errors.New("tool has no effect")

	// ErrNegativeCost indicates a tool was given a negative intrinsic cost.
	ErrNegativeCost = errors.New("tool cost must be non-negative")

	// ErrToolNotFound indicates the requested tool was not found.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolExists indicates a tool with the same name already exists.
	ErrToolExists = errors.New("tool already exists")

	// ErrPreconditionFailed indicates the tool's precondition does not hold.
	ErrPreconditionFailed = errors.New("tool precondition failed")

	// ErrArity indicates the argument tuple length does not match the tool's schema.
	ErrArity = errors.New("argument count does not match tool schema")

	// ErrInvalidApplication indicates the effect rejected its arguments.
	ErrInvalidApplication = errors.New("invalid tool application")
)
