package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/carelink/telehealth-api/internal/model"
	"github.com/carelink/telehealth-api/pkg/auth"
	apperrors "github.com/carelink/telehealth-api/pkg/errors"
	"github.com/carelink/telehealth-api/pkg/httputil"
)

const ContextSession = "session"

type AuthMiddleware struct {
	jwtService *auth.JWTService
}

func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// Authenticate verifies the bearer token and stores the caller's session
// in the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("missing authorization header")))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("invalid authorization format")))
			c.Abort()
			return
		}

		session, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized(err))
			c.Abort()
			return
		}

		c.Set(ContextSession, session)
		c.Next()
	}
}

// RequireRole rejects callers whose session does not carry the given role.
func (m *AuthMiddleware) RequireRole(role model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("not authenticated")))
			c.Abort()
			return
		}

		if session.Role != role {
			httputil.RespondWithError(c, apperrors.Forbidden("insufficient role"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func SessionFromContext(c *gin.Context) (*auth.Session, bool) {
	v, exists := c.Get(ContextSession)
	if !exists {
		return nil, false
	}
	session, ok := v.(*auth.Session)
	return session, ok
}
