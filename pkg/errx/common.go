package errx

// Common error constructors for convenience

// Internal creates an internal error
func Internal(message string) *Error {
	return New(message, TypeInternal)
}

// Validation creates a validation error
func Validation(message string) *Error {
	return New(message, TypeValidation)
}

// Capacity creates a capacity error
func Capacity(message string) *Error {
	return New(message, TypeCapacity)
}

// Conflict creates a conflict error
func Conflict(message string) *Error {
	return New(message, TypeConflict)
}

// NotFound creates a not found error
func NotFound(message string) *Error {
	return New(message, TypeNotFound)
}

// External creates an external service error
func External(message string) *Error {
	return New(message, TypeExternal)
}
