package typesystem

import "fmt"

// MismatchError indicates a concrete type did not match the expected one
type MismatchError struct {
	Expected Type
	Found    Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("found `%s` but expected `%s`", e.Found, e.Expected)
}

func NewMismatchError(expected, found Type) *MismatchError {
	return &MismatchError{Expected: expected, Found: found}
}

// UnknownTypeError indicates a type name could not be resolved by a front-end
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type `%s`", e.Name)
}

func NewUnknownTypeError(name string) *UnknownTypeError {
	return &UnknownTypeError{Name: name}
}
