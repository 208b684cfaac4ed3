package tool

import "fmt"

// ErrToolNotFound is returned when a tool call references an unregistered
// tool name.
type ErrToolNotFound struct {
	Name string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool: unknown tool: %s", e.Name)
}

// ErrToolAlreadyRegistered is returned when registering a duplicate name.
type ErrToolAlreadyRegistered struct {
	Name string
}

func (e *ErrToolAlreadyRegistered) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}

// ErrInvalidArguments is returned when a tool call's input payload does
// not conform to the tool's declared schema.
type ErrInvalidArguments struct {
	Name string
	Err  error
}

func (e *ErrInvalidArguments) Error() string {
	return fmt.Sprintf("tool: %s: invalid arguments: %v", e.Name, e.Err)
}

func (e *ErrInvalidArguments) Unwrap() error { return e.Err }
