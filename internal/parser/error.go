package parser

import "fmt"

// Error is a syntax or type error at a byte offset in the source.
type Error struct {
	Pos     int
	Message string
	Err     error // underlying builder error, if any
}

func (e *Error) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Pos, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
