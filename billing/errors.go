package billing

import "fmt"

// ValidationError indicates malformed input: missing types, empty billing
// month, bad phone format.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError indicates a bill or user lookup miss.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Ref)
}

// AlreadyPaidError indicates a double-payment attempt. The bill's
// paid date and transaction id are left untouched.
type AlreadyPaidError struct {
	BillRef string
}

func (e *AlreadyPaidError) Error() string {
	return fmt.Sprintf("bill already paid: %s", e.BillRef)
}
