package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cruisemate/cruisemate/internal/models"
)

// ContactRequest is a message from the public contact form
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

// createContactMessage stores a contact form message. Nothing is mailed.
func (s *Server) createContactMessage(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, invalidBody)
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		validationFailed(c, fieldErrors(err))
		return
	}

	msg := &models.ContactMessage{Name: req.Name, Email: req.Email, Message: req.Message}
	if err := s.db.WithContext(c.Request.Context()).Create(msg).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to save contact message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Str("message_id", msg.ID).Msg("Contact message received")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message received successfully!"})
}
