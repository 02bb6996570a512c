package ingest

// ValidationError marks a dequeued message that cannot be accepted as a
// domain record. It is retried like any other processing failure and
// eventually dead-lettered.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validation reports whether err is a ValidationError.
func Validation(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// ValidateOrder is the single acceptance check for orders, shared by
// the HTTP boundary and the consumer so the two cannot drift apart.
func ValidateOrder(customerEmail string, amount float64) error {
	if customerEmail == "" {
		return &ValidationError{Reason: "customerEmail is required"}
	}
	if amount <= 0 {
		return &ValidationError{Reason: "amount must be greater than 0"}
	}
	return nil
}

// ValidateCustomer is the acceptance check for customer submissions at
// the HTTP boundary.
func ValidateCustomer(name, email string) error {
	if name == "" || email == "" {
		return &ValidationError{Reason: "name and email are required"}
	}
	return nil
}
