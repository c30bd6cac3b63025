package jwt

import "github.com/cmlabs-hris/flexi-attendance/internal/pkg/apperr"

var (
	ErrInvalidToken     = apperr.Unauthorized("INVALID_TOKEN", "invalid or expired token")
	ErrAdminRequired    = apperr.Forbidden("ADMIN_REQUIRED", "admin privilege required")
	ErrInsufficientRole = apperr.Forbidden("INSUFFICIENT_ROLE", "role not allowed for this operation")
)
