package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cruisemate/cruisemate/internal/models"
)

// BookingRequest is the body of booking create and update calls.
// Empty fields are left unchanged on update.
type BookingRequest struct {
	Type   string `json:"type" validate:"omitempty,oneof=resort movie salon fitness party catering stationery"`
	Date   string `json:"date" validate:"omitempty,isodate"`
	Status string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled"`
}

// OrderRequest places a menu order for a date
type OrderRequest struct {
	Date string `json:"date" validate:"required,isodate"`
}

var bookingNotFound = gin.H{"detail": "Booking not found."}

func (s *Server) listBookings(c *gin.Context, scope func(*gorm.DB) *gorm.DB) {
	bookings := []models.Booking{}
	if err := scope(s.db.WithContext(c.Request.Context())).
		Order("date ASC, created_at ASC").
		Find(&bookings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (s *Server) listOwnBookings(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	s.listBookings(c, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", sessionData.UserID)
	})
}

// listAllBookings returns every booking for managers
func (s *Server) listAllBookings(c *gin.Context) {
	s.listBookings(c, func(db *gorm.DB) *gorm.DB { return db })
}

// listOrders returns the menu orders of one category
func (s *Server) listOrders(category string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.listBookings(c, func(db *gorm.DB) *gorm.DB {
			return db.Where("type = ?", category)
		})
	}
}

func (s *Server) bindBooking(c *gin.Context) (*BookingRequest, bool) {
	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, invalidBody)
		return nil, false
	}
	if err := s.validator.Struct(&req); err != nil {
		validationFailed(c, fieldErrors(err))
		return nil, false
	}
	return &req, true
}

func (s *Server) saveBooking(c *gin.Context, booking *models.Booking) bool {
	if err := s.db.WithContext(c.Request.Context()).Create(booking).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", booking.UserID).Msg("Failed to create booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return false
	}
	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("user_id", booking.UserID).
		Str("type", booking.Type).
		Msg("Booking created")
	return true
}

func (s *Server) createBooking(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	req, ok := s.bindBooking(c)
	if !ok {
		return
	}

	missing := map[string][]string{}
	if req.Type == "" {
		missing["type"] = []string{"This field is required."}
	}
	if req.Date == "" {
		missing["date"] = []string{"This field is required."}
	}
	if len(missing) > 0 {
		validationFailed(c, missing)
		return
	}

	status := req.Status
	if status == "" {
		status = "pending"
	}

	booking := &models.Booking{
		UserID: sessionData.UserID,
		Type:   req.Type,
		Date:   req.Date,
		Status: status,
	}
	if !s.saveBooking(c, booking) {
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// orderFromMenu records a catering or stationery order as a pending booking
func (s *Server) orderFromMenu(category string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, _ := GetSessionData(c)

		var req OrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			validationFailed(c, invalidBody)
			return
		}
		if err := s.validator.Struct(&req); err != nil {
			validationFailed(c, fieldErrors(err))
			return
		}

		booking := &models.Booking{
			UserID: sessionData.UserID,
			Type:   category,
			Date:   req.Date,
			Status: "pending",
		}
		if !s.saveBooking(c, booking) {
			return
		}
		c.JSON(http.StatusCreated, booking)
	}
}

// findOwnBooking loads the caller's booking named by :id. Bookings of other
// users are reported as missing.
func (s *Server) findOwnBooking(c *gin.Context) (*models.Booking, bool) {
	sessionData, _ := GetSessionData(c)

	var booking models.Booking
	err := s.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", c.Param("id"), sessionData.UserID).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, bookingNotFound)
			return nil, false
		}
		s.logger.Error().Err(err).Str("booking_id", c.Param("id")).Msg("Failed to find booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &booking, true
}

func (s *Server) updateBooking(c *gin.Context) {
	booking, ok := s.findOwnBooking(c)
	if !ok {
		return
	}
	req, ok := s.bindBooking(c)
	if !ok {
		return
	}

	if req.Type != "" {
		booking.Type = req.Type
	}
	if req.Date != "" {
		booking.Date = req.Date
	}
	if req.Status != "" {
		booking.Status = req.Status
	}

	if err := s.db.WithContext(c.Request.Context()).Save(booking).Error; err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("Failed to update booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (s *Server) deleteBooking(c *gin.Context) {
	booking, ok := s.findOwnBooking(c)
	if !ok {
		return
	}

	if err := s.db.WithContext(c.Request.Context()).Delete(booking).Error; err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("Failed to delete booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Str("booking_id", booking.ID).Msg("Booking deleted")
	c.Status(http.StatusNoContent)
}
