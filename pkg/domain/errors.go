package domain

import "fmt"

// NotFoundError is returned when an update or delete references an unknown id.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError is returned when a create collides with an existing id or a
// unique field such as a login email.
type ConflictError struct {
	Entity EntityType
	Field  string
	Value  string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// ValidationError is returned when input is rejected before any store mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AccessDeniedError is returned when a caller's role categorically excludes a
// collection. Distinct from an empty filtered result.
type AccessDeniedError struct {
	Role       Role
	Collection EntityType
}

func (e AccessDeniedError) Error() string {
	return fmt.Sprintf("role %s may not access %s records", e.Role, e.Collection)
}
