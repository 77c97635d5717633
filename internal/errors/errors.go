package errors

import (
	"errors"
	"fmt"
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// Is enables errors.Is() comparison for NotFoundError
func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}
	return e.Entity == t.Entity
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Entity  string
	Context string // Additional context like "for this church"
}

func (e *AlreadyExistsError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s already exists %s", e.Entity, e.Context)
	}
	return fmt.Sprintf("%s already exists", e.Entity)
}

// Is enables errors.Is() comparison for AlreadyExistsError
func (e *AlreadyExistsError) Is(target error) bool {
	t, ok := target.(*AlreadyExistsError)
	if !ok {
		return false
	}
	return e.Entity == t.Entity
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// StoreUnavailableError represents a failed call to the external store.
// Surfaced to the caller as a retryable failure; retry is user-initiated,
// never automatic.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store unavailable during %s", e.Op)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// TimeoutError represents a store call that did not respond in time
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out", e.Op)
}

// AuthenticationError represents authentication-related errors
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// AuthorizationError represents authorization-related errors
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// Entity Not Found Errors
var (
	ErrMemberNotFound = &NotFoundError{Entity: "member"}
	ErrTeamNotFound   = &NotFoundError{Entity: "team"}
	ErrUserNotFound   = &NotFoundError{Entity: "user"}
)

// Already Exists Errors
var (
	ErrChurchExists = &AlreadyExistsError{Entity: "account", Context: "for this church"}
)

// Validation Errors
var (
	ErrFirstNameRequired = &ValidationError{Field: "first_name", Message: "first name is required"}
	ErrLastNameRequired  = &ValidationError{Field: "last_name", Message: "last name is required"}
	ErrTeamNameRequired  = &ValidationError{Field: "name", Message: "team name is required"}
)

// Authentication Errors
var (
	ErrInvalidCredentials = &AuthenticationError{Message: "invalid email or password"}
	ErrMissingToken       = &AuthenticationError{Message: "authorization token is required"}
	ErrInvalidToken       = &AuthenticationError{Message: "invalid or expired token"}
	ErrAdminRequired      = &AuthorizationError{Message: "admin role is required for this action"}
)

// Business Logic Errors
var (
	ErrUnknownDateKey          = errors.New("unknown date key")
	ErrInvalidPaginationParams = errors.New("invalid pagination parameters")
)

// Helper Functions

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsAlreadyExists checks if an error is an AlreadyExistsError
func IsAlreadyExists(err error) bool {
	var existsErr *AlreadyExistsError
	return errors.As(err, &existsErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsStoreUnavailable checks if an error is a StoreUnavailableError
func IsStoreUnavailable(err error) bool {
	var storeErr *StoreUnavailableError
	return errors.As(err, &storeErr)
}

// IsTimeout checks if an error is a TimeoutError
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// IsAuthentication checks if an error is an AuthenticationError
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsAuthorization checks if an error is an AuthorizationError
func IsAuthorization(err error) bool {
	var authzErr *AuthorizationError
	return errors.As(err, &authzErr)
}

// IsConfiguration checks if an error is a ConfigurationError
func IsConfiguration(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// NewNotFoundError creates a new NotFoundError for a custom entity
func NewNotFoundError(entity string) error {
	return &NotFoundError{Entity: entity}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewStoreUnavailableError wraps a store failure with the operation name
func NewStoreUnavailableError(op string, err error) error {
	return &StoreUnavailableError{Op: op, Err: err}
}

// NewTimeoutError creates a new TimeoutError for a store operation
func NewTimeoutError(op string) error {
	return &TimeoutError{Op: op}
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(message string) error {
	return &AuthenticationError{Message: message}
}

// NewAuthorizationError creates a new AuthorizationError
func NewAuthorizationError(message string) error {
	return &AuthorizationError{Message: message}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(message string) error {
	return &ConfigurationError{Message: message}
}
