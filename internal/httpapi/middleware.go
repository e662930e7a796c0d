package httpapi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	headerNameWWWAuthenticate = "WWW-Authenticate"
	basicAuthChallenge        = `Basic realm="Admin Panel"`

	errorValueAdminDisabled          = "admin disabled"
	errorValueAuthenticationRequired = "Authentication required"
	errorValueInvalidCredentials     = "Invalid credentials"
)

// RequestLogger logs one line per handled request. Client addresses never
// appear here; they surface only as hashed identity tokens in pipeline logs.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		logger.Info("http",
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ua", context.Request.UserAgent()),
		)
	}
}

// AdminBasicAuthMiddleware gates admin routes behind HTTP basic auth. The
// credential comparison is constant-time over fixed-length digests so
// mismatches cannot be distinguished by response timing.
func AdminBasicAuthMiddleware(adminUsername string, adminPassword string) gin.HandlerFunc {
	expectedUsernameDigest := sha256.Sum256([]byte(adminUsername))
	expectedPasswordDigest := sha256.Sum256([]byte(adminPassword))

	return func(context *gin.Context) {
		if adminUsername == "" || adminPassword == "" {
			context.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": errorValueAdminDisabled})
			return
		}

		providedUsername, providedPassword, credentialsPresent := context.Request.BasicAuth()
		if !credentialsPresent {
			context.Header(headerNameWWWAuthenticate, basicAuthChallenge)
			context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errorValueAuthenticationRequired})
			return
		}

		providedUsernameDigest := sha256.Sum256([]byte(providedUsername))
		providedPasswordDigest := sha256.Sum256([]byte(providedPassword))
		usernameMatches := subtle.ConstantTimeCompare(expectedUsernameDigest[:], providedUsernameDigest[:]) == 1
		passwordMatches := subtle.ConstantTimeCompare(expectedPasswordDigest[:], providedPasswordDigest[:]) == 1

		if !usernameMatches || !passwordMatches {
			context.Header(headerNameWWWAuthenticate, basicAuthChallenge)
			context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errorValueInvalidCredentials})
			return
		}

		context.Next()
	}
}
