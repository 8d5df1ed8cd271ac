package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cruisemate/cruisemate/internal/models"
)

// ItemRequest is the body of item create and update calls. On update only
// the fields present are changed.
type ItemRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description"`
	Category    *string  `json:"category" validate:"omitempty,oneof=catering stationery"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0,price"`
}

// ItemResponse renders an item with its price as a two-decimal string
type ItemResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       string    `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

func newItemResponse(item *models.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Price:       strconv.FormatFloat(item.Price, 'f', 2, 64),
		CreatedAt:   item.CreatedAt,
	}
}

func newItemResponses(items []models.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, newItemResponse(&items[i]))
	}
	return out
}

var itemNotFound = gin.H{"detail": "Item not found."}

// listMenu returns the items of one category for voyagers
func (s *Server) listMenu(category string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var items []models.Item
		if err := s.db.WithContext(c.Request.Context()).
			Where("category = ?", category).
			Order("name ASC").
			Find(&items).Error; err != nil {
			s.logger.Error().Err(err).Str("category", category).Msg("Failed to list items")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, newItemResponses(items))
	}
}

func (s *Server) listItems(c *gin.Context) {
	var items []models.Item
	if err := s.db.WithContext(c.Request.Context()).Order("created_at ASC").Find(&items).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list items")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, newItemResponses(items))
}

// findItem loads the item named by the :id route param, answering 404 itself
func (s *Server) findItem(c *gin.Context) (*models.Item, bool) {
	var item models.Item
	if err := models.FindByID(s.db.WithContext(c.Request.Context()), c.Param("id"), &item); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, itemNotFound)
			return nil, false
		}
		s.logger.Error().Err(err).Str("item_id", c.Param("id")).Msg("Failed to find item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &item, true
}

func (s *Server) getItem(c *gin.Context) {
	item, ok := s.findItem(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newItemResponse(item))
}

func (s *Server) bindItem(c *gin.Context) (*ItemRequest, bool) {
	var req ItemRequest
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

func (s *Server) createItem(c *gin.Context) {
	req, ok := s.bindItem(c)
	if !ok {
		return
	}

	missing := map[string][]string{}
	if req.Name == nil {
		missing["name"] = []string{"This field is required."}
	}
	if req.Category == nil {
		missing["category"] = []string{"This field is required."}
	}
	if req.Price == nil {
		missing["price"] = []string{"This field is required."}
	}
	if len(missing) > 0 {
		validationFailed(c, missing)
		return
	}

	item := &models.Item{
		Name:     *req.Name,
		Category: *req.Category,
		Price:    *req.Price,
	}
	if req.Description != nil {
		item.Description = *req.Description
	}

	if err := s.db.WithContext(c.Request.Context()).Create(item).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Str("item_id", item.ID).Str("category", item.Category).Msg("Item created")
	c.JSON(http.StatusCreated, newItemResponse(item))
}

func (s *Server) updateItem(c *gin.Context) {
	item, ok := s.findItem(c)
	if !ok {
		return
	}
	req, ok := s.bindItem(c)
	if !ok {
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(c.Request.Context()).Model(item).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to update item")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if err := models.FindByID(s.db.WithContext(c.Request.Context()), item.ID, item); err != nil {
			s.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to reload item")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	c.JSON(http.StatusOK, newItemResponse(item))
}

func (s *Server) deleteItem(c *gin.Context) {
	item, ok := s.findItem(c)
	if !ok {
		return
	}

	if err := s.db.WithContext(c.Request.Context()).Delete(item).Error; err != nil {
		s.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to delete item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Str("item_id", item.ID).Msg("Item deleted")
	c.Status(http.StatusNoContent)
}
