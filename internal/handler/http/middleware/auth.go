package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
)

// AuthRequired admits requests whose verified token is an access token
// naming an employee.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := jwt.ClaimsFromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "Invalid or missing token")
			return
		}

		if claims.Type != "access" {
			response.Unauthorized(w, "Access token required")
			return
		}
		if claims.EmployeeID == "" {
			response.Forbidden(w, "Token is not bound to an employee")
			return
		}

		next.ServeHTTP(w, r)
	})
}
