package checkout

// ValidationError is a caller mistake; its message is safe to show to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrEmptyCart       = &ValidationError{Message: "Cart is empty"}
	ErrMissingShipping = &ValidationError{Message: "Missing shipping address or email"}
	ErrInvalidItem     = &ValidationError{Message: "Invalid cart item"}
	ErrMissingFields   = &ValidationError{Message: "Missing required fields"}
	ErrInvalidPlan     = &ValidationError{Message: "Invalid plan ID"}
)
