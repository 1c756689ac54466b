package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wisesobriety/wisesober/utils"
)

// ContextUserIDKey is the key used to store the authenticated user ID in
// the Gin context. The ID is an opaque string issued by the identity
// provider; this service never resolves it further.
const ContextUserIDKey = "user_id"

// AuthRequired ensures the request carries a valid bearer JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, errCode, errMsg := bearerUserID(ctx)
		if userID == "" {
			utils.Error(ctx, http.StatusUnauthorized, errCode, errMsg)
			ctx.Abort()
			return
		}
		ctx.Set(ContextUserIDKey, userID)
		ctx.Next()
	}
}

// AuthOptional extracts the user ID when a valid token is present and lets
// the request through either way. Handlers fall back to the sentinel user
// for anonymous submissions.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if userID, _, _ := bearerUserID(ctx); userID != "" {
			ctx.Set(ContextUserIDKey, userID)
		}
		ctx.Next()
	}
}

// UserID returns the authenticated user id from the context, if any.
func UserID(ctx *gin.Context) (string, bool) {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func bearerUserID(ctx *gin.Context) (userID string, errCode int, errMsg string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", 40101, "authorization header missing"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", 40102, "invalid authorization header format"
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", 40103, "empty bearer token"
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return "", 40105, "invalid token"
	}
	return claims.UserID, 0, ""
}
