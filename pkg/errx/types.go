package errx

// Type represents the category of error
type Type string

const (
	// TypeInternal represents internal errors
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents validation errors
	TypeValidation Type = "VALIDATION"

	// TypeCapacity represents errors caused by a bounded resource being full
	TypeCapacity Type = "CAPACITY"

	// TypeConflict represents errors caused by an illegal state transition
	TypeConflict Type = "CONFLICT"

	// TypeNotFound represents resource not found errors
	TypeNotFound Type = "NOT_FOUND"

	// TypeExternal represents errors from external services
	TypeExternal Type = "EXTERNAL"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}
