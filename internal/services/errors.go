package services

import "errors"

// Sentinel errors handlers translate to HTTP status codes.
var (
	// ErrEmailTaken means the registration email is already in use (409).
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers unknown email or password mismatch (401).
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers malformed, forged, expired, or orphaned tokens (401).
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden means the caller does not own the resource or lacks the role (403).
	ErrForbidden = errors.New("not authorized for this resource")
	// ErrInsufficientInventory means a requested quantity exceeds stock (400).
	ErrInsufficientInventory = errors.New("not enough inventory available")
	// ErrInvalidStatus means an unknown order status value was supplied (400).
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrOrderNotPending means a payment was requested for a non-pending order (400).
	ErrOrderNotPending = errors.New("order is not in pending status")
)
