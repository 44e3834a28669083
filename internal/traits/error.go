package traits

import "fmt"

// UnknownTraitError indicates a trait was not found in the registry
type UnknownTraitError struct {
	Name string
}

func (e *UnknownTraitError) Error() string {
	return fmt.Sprintf("unknown trait: %s", e.Name)
}

func NewUnknownTraitError(name string) *UnknownTraitError {
	return &UnknownTraitError{Name: name}
}
