package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/cruisemate/cruisemate/internal/auth"
	"github.com/cruisemate/cruisemate/internal/models"
	"github.com/cruisemate/cruisemate/internal/roles"
)

const (
	bearerPrefix = "Bearer "
)

// Error bodies follow the backend contract the CLI parses: a "detail"
// message, plus a "code" when the token itself was rejected.
const (
	detailNotProvided  = "Authentication credentials were not provided."
	detailTokenInvalid = "Given token not valid for any token type"
	detailUserNotFound = "User not found"
	detailThrottled    = "Request was throttled."
	codeTokenNotValid  = "token_not_valid"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, body gin.H) {
	log.Warn().Err(err).Int("status", statusCode).Str("path", c.Request.URL.Path).Msg("Request rejected")
	c.AbortWithStatusJSON(statusCode, body)
}

// JWTAuthMiddleware validates the bearer access token and loads its user
func JWTAuthMiddleware(issuer *auth.Issuer, db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, err, gin.H{"detail": detailNotProvided})
			return
		}

		claims, err := issuer.ValidateAccess(token)
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, err, gin.H{
				"detail": detailTokenInvalid,
				"code":   codeTokenNotValid,
			})
			return
		}

		// The account may have been removed since the token was issued
		var user models.User
		if err := db.WithContext(c.Request.Context()).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			respondWithError(c, log, http.StatusUnauthorized, err, gin.H{
				"detail": detailUserNotFound,
				"code":   "user_not_found",
			})
			return
		}

		setSession(c, &auth.SessionData{
			UserID:      user.ID,
			Username:    user.Username,
			Email:       user.Email,
			BackendRole: user.Role,
			Role:        roles.Normalize(user.Role),
		})

		c.Next()
	}
}

// RequireRoles rejects sessions whose backend role is not one of allowed
func RequireRoles(log zerolog.Logger, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), gin.H{"detail": detailNotProvided})
			return
		}

		for _, role := range allowed {
			if sessionData.BackendRole == role {
				c.Next()
				return
			}
		}

		quoted := make([]string, len(allowed))
		for i, role := range allowed {
			quoted[i] = "'" + role + "'"
		}
		detail := fmt.Sprintf("Access denied for role '%s'. Allowed roles: [%s]", sessionData.BackendRole, strings.Join(quoted, ", "))
		respondWithError(c, log, http.StatusForbidden, errors.New("role not allowed"), gin.H{"detail": detail})
	}
}

// loginLimiter returns (and lazily creates) the token bucket for a client
func (s *Server) loginLimiter(key string) *rate.Limiter {
	if v, ok := s.loginLimiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	perMinute := s.config.Auth.LoginRateLimit
	lim := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	actual, _ := s.loginLimiters.LoadOrStore(key, lim)
	return actual.(*rate.Limiter)
}

// sweepLoginLimiters drops limiters whose bucket has refilled completely. A
// full bucket behaves exactly like a new one, so only idle clients are removed.
func (s *Server) sweepLoginLimiters() int {
	burst := float64(s.config.Auth.LoginRateLimit)
	removed := 0
	s.loginLimiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= burst {
			s.loginLimiters.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Swept idle login limiters")
	}
	return removed
}

// rateLimitMiddleware throttles token requests per client IP
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.config.Auth.LoginRateLimit <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}

		if !s.loginLimiter(ip).Allow() {
			s.metrics.RateLimitRejected.WithLabelValues("login").Inc()
			c.Header("Retry-After", "60")
			respondWithError(c, s.logger, http.StatusTooManyRequests, errors.New("login rate limit exceeded"), gin.H{"detail": detailThrottled})
			return
		}
		s.metrics.RateLimitAllowed.WithLabelValues("login").Inc()
		c.Next()
	}
}
