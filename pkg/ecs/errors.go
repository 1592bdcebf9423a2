package ecs

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrEntityNotFound is returned when attempting to operate on a non-existent entity
	// or when an entity cannot be found in the expected location.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrComponentNotFound is returned when an entity doesn't contain the requested component.
	ErrComponentNotFound = eris.New("entity does not contain component")

	// ErrComponentNotRegistered is returned when a component type is used before it is registered.
	ErrComponentNotRegistered = eris.New("component is not registered")

	// ErrArchetypeMismatch is returned when a query is asked for an entity whose archetype doesn't
	// contain every component of the query.
	ErrArchetypeMismatch = eris.New("entity does not match query")

	// ErrMultipleMatches is returned by Query.Single when more than one entity matches.
	ErrMultipleMatches = eris.New("query matched more than one entity")

	// ErrWorldLocked is returned by structural world operations called while a tick is running.
	ErrWorldLocked = eris.New("world is locked during a tick")

	// ErrQueryAliasing is returned when a system declares conflicting component access.
	ErrQueryAliasing = eris.New("conflicting component access")

	// ErrResourceAliasing is returned when a system declares conflicting resource access.
	ErrResourceAliasing = eris.New("conflicting resource access")

	// ErrDuplicateCommands is returned when a system declares more than one Commands field.
	ErrDuplicateCommands = eris.New("system declares more than one Commands field")

	// ErrInvalidSystemState is returned when a system state type can't be bound.
	ErrInvalidSystemState = eris.New("invalid system state")

	// ErrDuplicateSystem is returned when a system with the same name is already registered.
	ErrDuplicateSystem = eris.New("system already registered")

	// ErrResourceNotFound is returned when a required resource is missing at bind time.
	ErrResourceNotFound = eris.New("resource does not exist")
)

// SystemValidationError reports which system and state field failed registration or binding.
type SystemValidationError struct {
	System string // Name of the system
	Field  string // Name of the offending state field, empty for system-level failures
	Err    error  // One of the sentinel errors of this package, possibly wrapped
}

func (e *SystemValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("system %s: %v", e.System, e.Err)
	}
	return fmt.Sprintf("system %s: field %s: %v", e.System, e.Field, e.Err)
}

func (e *SystemValidationError) Unwrap() error {
	return e.Err
}
