package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/flexi-attendance/internal/handler/http/response"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, jwt.ErrInvalidToken)
			return
		}

		admin, ok := claims["is_admin"].(bool)
		if !admin || !ok {
			response.HandleError(w, jwt.ErrAdminRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
