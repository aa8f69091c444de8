package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotAuthenticated      = errors.New("user is not authenticated")
	ErrInsufficientInventory = errors.New("requested quantity exceeds available inventory")
	ErrPaymentDeclined       = errors.New("payment was declined")
	ErrCartEmpty             = errors.New("cart is empty, nothing to checkout")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderTerminal         = errors.New("order is already in a terminal state")
)

// ValidationError names the shipping/payment form fields that are missing
// or malformed so the client can surface them inline.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// GatewayError carries the payment provider's response for any non-2xx
// answer during session or charge creation.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error (%d): %s", e.StatusCode, e.Message)
}
