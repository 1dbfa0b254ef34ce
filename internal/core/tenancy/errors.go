package tenancy

import "errors"

var (
	// ErrNoTenancy is returned when data access is attempted outside of a scope.
	ErrNoTenancy = errors.New("no tenancy scope in context")

	// ErrScopeMismatch is returned when a nested scope asks for a different identity
	// than the one already bound to the connection.
	ErrScopeMismatch = errors.New("nested tenancy scope does not match the active scope")

	// ErrUnscopedInScope is returned when the maintenance querier is requested
	// while a scope is active on the context.
	ErrUnscopedInScope = errors.New("unscoped access requested inside a tenancy scope")
)
