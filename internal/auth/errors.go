package auth

import "errors"

var (
	ErrEmailTaken         = errors.New("User already exists with this email")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrInvalidToken       = errors.New("Invalid or expired token")
	ErrResetTokenInvalid  = errors.New("Invalid or expired reset token")
	ErrResetTokenExpired  = errors.New("Reset token has expired")
)

// ValidationError ошибка входных данных, текст уходит клиенту как есть
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
