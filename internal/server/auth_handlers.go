package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/cruisemate/cruisemate/internal/accounts"
	"github.com/cruisemate/cruisemate/internal/auth"
	"github.com/cruisemate/cruisemate/internal/models"
	"github.com/cruisemate/cruisemate/internal/roles"
)

// TokenRequest represents a token obtain request
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a fresh token pair and the identity it was issued for
type TokenResponse struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Role     string `json:"role"`
	Username string `json:"username"`
	Email    string `json:"email"`
	UserID   string `json:"user_id"`
}

// RefreshRequest represents a refresh token exchange
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse carries the new access token and the rotated refresh token
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterRequest represents an account registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"omitempty,max=150"`
	Password string `json:"password" validate:"required"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

var errRefreshRevoked = errors.New("refresh token revoked or unknown")

// obtainToken exchanges email and password for an access/refresh pair
func (s *Server) obtainToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		s.metrics.Logins.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
		return
	}

	user, err := s.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			s.metrics.Logins.WithLabelValues("invalid").Inc()
			s.logger.Warn().Str("email", accounts.NormalizeEmail(req.Email)).Msg("Failed login attempt")
			c.JSON(http.StatusUnauthorized, gin.H{"non_field_errors": []string{"Invalid email or password."}})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to authenticate user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	access, refresh, err := s.issuePair(c.Request.Context(), s.db, user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.metrics.Logins.WithLabelValues("success").Inc()
	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("User logged in")

	c.JSON(http.StatusOK, TokenResponse{
		Access:   access.Token,
		Refresh:  refresh.Token,
		Role:     user.Role,
		Username: user.Username,
		Email:    user.Email,
		UserID:   user.ID,
	})
}

// issuePair signs a token pair for user and records the refresh token
func (s *Server) issuePair(ctx context.Context, db *gorm.DB, user *models.User) (*auth.IssuedToken, *auth.IssuedToken, error) {
	sub := accounts.Subject(user)

	access, err := s.issuer.IssueAccess(sub)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := s.issuer.IssueRefresh(sub)
	if err != nil {
		return nil, nil, err
	}

	record := &models.RefreshToken{
		JTI:       refresh.JTI,
		UserID:    user.ID,
		ExpiresAt: refresh.ExpiresAt,
	}
	if err := db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to record refresh token: %w", err)
	}

	return access, refresh, nil
}

// refreshToken rotates a refresh token: the presented one is revoked and a
// new pair is returned. A revoked, expired or unknown token is rejected.
func (s *Server) refreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Refresh == "" {
		s.metrics.Refreshes.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"refresh": []string{"This field is required."}})
		return
	}

	reject := func(err error) {
		s.metrics.Refreshes.WithLabelValues("invalid").Inc()
		respondWithError(c, s.logger, http.StatusUnauthorized, err, gin.H{
			"detail": "Token is invalid or expired",
			"code":   codeTokenNotValid,
		})
	}

	claims, err := s.issuer.ValidateRefresh(req.Refresh)
	if err != nil {
		reject(err)
		return
	}

	var resp RefreshResponse
	err = s.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var record models.RefreshToken
		if err := tx.Where("jti = ?", claims.ID).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errRefreshRevoked
			}
			return err
		}
		now := s.now()
		if !record.Active(now) {
			return errRefreshRevoked
		}

		// Conditional update so two exchanges of the same token cannot both win
		result := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", record.ID).
			Update("revoked_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errRefreshRevoked
		}

		var user models.User
		if err := models.FindByID(tx, record.UserID, &user); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errRefreshRevoked
			}
			return err
		}

		access, refresh, err := s.issuePair(c.Request.Context(), tx, &user)
		if err != nil {
			return err
		}
		resp = RefreshResponse{Access: access.Token, Refresh: refresh.Token}
		return nil
	})
	if err != nil {
		if errors.Is(err, errRefreshRevoked) {
			reject(err)
			return
		}
		s.logger.Error().Err(err).Msg("Failed to rotate refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.metrics.Refreshes.WithLabelValues("success").Inc()
	s.logger.Debug().Str("user_id", claims.UserID).Msg("Refresh token rotated")
	c.JSON(http.StatusOK, resp)
}

// register creates an account with the backend role slug of its route
func (s *Server) register(slug string) gin.HandlerFunc {
	role := roles.Normalize(slug)
	title := roleTitle(slug)

	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			validationFailed(c, invalidBody)
			return
		}
		if err := s.validator.Struct(&req); err != nil {
			validationFailed(c, fieldErrors(err))
			return
		}

		user, err := s.accounts.Register(c.Request.Context(), accounts.RegisterParams{
			Email:    req.Email,
			Username: req.Username,
			Password: req.Password,
			Role:     role,
		})
		if err != nil {
			if errors.Is(err, accounts.ErrEmailTaken) {
				validationFailed(c, map[string][]string{"email": {"This email is already registered."}})
				return
			}
			s.logger.Error().Err(err).Str("role", slug).Msg("Failed to register user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		s.metrics.Registrations.WithLabelValues(slug).Inc()

		body := gin.H{
			"success": true,
			"message": title + " registered successfully.",
		}
		if slug == models.RoleVoyager {
			body["user"] = UserDetail{ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role}
		} else {
			body["user_id"] = user.ID
		}
		c.JSON(http.StatusCreated, body)
	}
}

func (s *Server) voyagerHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Voyager API is working",
		"endpoints": []string{
			"/api/voyager/catering/",
			"/api/voyager/stationery/",
			"/api/voyager/bookings/",
		},
	})
}

func (s *Server) headCookHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"role":     models.RoleHeadCook,
		"location": "Head Cook Dashboard",
		"message":  "Welcome Head Cook!",
	})
}

func roleTitle(slug string) string {
	switch slug {
	case models.RoleVoyager:
		return "Voyager"
	case models.RoleAdmin:
		return "Admin"
	case models.RoleManager:
		return "Manager"
	case models.RoleHeadCook:
		return "Head Cook"
	case models.RoleSupervisor:
		return "Supervisor"
	}
	return slug
}

// validationFailed answers 400 with field errors in the registration envelope
func validationFailed(c *gin.Context, errs map[string][]string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": errs})
}

var invalidBody = map[string][]string{"non_field_errors": {"Invalid request body."}}

// fieldErrors maps validation failures to field -> messages
func fieldErrors(err error) map[string][]string {
	out := map[string][]string{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["non_field_errors"] = []string{err.Error()}
		return out
	}

	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "This field is required."
		case "email":
			msg = "Enter a valid email address."
		case "oneof":
			msg = fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
		case "isodate":
			msg = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
		case "gte":
			msg = "Ensure this value is greater than or equal to " + fe.Param() + "."
		case "max":
			msg = "Ensure this field has no more than " + fe.Param() + " characters."
		case "price":
			msg = priceMessage(fe.Value())
		default:
			msg = "Invalid value."
		}
		out[fe.Field()] = append(out[fe.Field()], msg)
	}
	return out
}

func priceMessage(v any) string {
	switch p := v.(type) {
	case float64:
		return models.PriceProblem(p)
	case *float64:
		if p != nil {
			return models.PriceProblem(*p)
		}
	}
	return "A valid number is required."
}
