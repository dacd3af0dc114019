package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/contentpilot/contentpilot-backend/internal/http/response"
	"github.com/contentpilot/contentpilot-backend/internal/platform/ctxutil"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

const headerUserID = "X-User-Id"

type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

// NewAuthMiddleware verifies HS256 bearer tokens when secret is set. With no
// secret the caller's X-User-Id header names the workspace, falling back to
// the guest workspace.
func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		log:    log.With("middleware", "AuthMiddleware"),
		secret: []byte(strings.TrimSpace(secret)),
	}
}

func (am *AuthMiddleware) Enforced() bool { return len(am.secret) > 0 }

func (am *AuthMiddleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := ""
		if am.Enforced() {
			tokenString := extractToken(c)
			if tokenString == "" {
				response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
				c.Abort()
				return
			}
			sub, err := am.subject(tokenString)
			if err != nil {
				am.log.Debug("Token rejected", "error", err)
				response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
				c.Abort()
				return
			}
			userID = sub
		} else {
			userID = strings.TrimSpace(c.GetHeader(headerUserID))
		}
		if userID == "" {
			userID = ctxutil.GuestUserID
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) subject(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return am.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid or expired token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
