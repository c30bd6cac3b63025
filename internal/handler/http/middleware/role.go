package middleware

import (
	"net/http"
	"slices"

	"github.com/cmlabs-hris/flexi-attendance/internal/handler/http/response"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// RequireRole lets a request through only when the token's role is one of roles.
func RequireRole(roles ...jwt.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, jwt.ErrInvalidToken)
				return
			}

			roleStr, ok := claims["role"].(string)
			if !ok {
				response.HandleError(w, jwt.ErrInsufficientRole)
				return
			}

			if !slices.Contains(roles, jwt.Role(roleStr)) {
				response.HandleError(w, jwt.ErrInsufficientRole)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
