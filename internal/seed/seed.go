package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/cruisemate/cruisemate/internal/accounts"
	"github.com/cruisemate/cruisemate/internal/models"
	"github.com/cruisemate/cruisemate/internal/roles"
)

// File is the YAML seed document
type File struct {
	Users []User `yaml:"users"`
	Items []Item `yaml:"items"`
}

// User is an account to create when its email is not registered yet
type User struct {
	Email    string `yaml:"email"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// Item is a menu entry to create when no item with the same name and category exists
type Item struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Category    string  `yaml:"category"`
	Price       float64 `yaml:"price"`
}

// Result counts what Apply created
type Result struct {
	Users int
	Items int
}

// Load reads and validates a seed file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks required fields and enumerations
func (f *File) Validate() error {
	for i, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("seed user %d: email and password are required", i)
		}
		if _, ok := roles.Parse(u.Role); !ok {
			return fmt.Errorf("seed user %s: unknown role %q", u.Email, u.Role)
		}
	}
	for i, item := range f.Items {
		if item.Name == "" {
			return fmt.Errorf("seed item %d: name is required", i)
		}
		if item.Category != models.CategoryCatering && item.Category != models.CategoryStationery {
			return fmt.Errorf("seed item %s: unknown category %q", item.Name, item.Category)
		}
		if item.Price < 0 {
			return fmt.Errorf("seed item %s: price must not be negative", item.Name)
		}
		if msg := models.PriceProblem(item.Price); msg != "" {
			return fmt.Errorf("seed item %s: price %v: %s", item.Name, item.Price, msg)
		}
	}
	return nil
}

// Apply creates the missing users and items. Running it twice is a no-op.
func Apply(ctx context.Context, db *gorm.DB, accts *accounts.Service, f *File, logger zerolog.Logger) (Result, error) {
	var res Result

	for _, u := range f.Users {
		role, _ := roles.Parse(u.Role)
		_, err := accts.Register(ctx, accounts.RegisterParams{
			Email:    u.Email,
			Username: u.Username,
			Password: u.Password,
			Role:     role,
		})
		switch {
		case errors.Is(err, accounts.ErrEmailTaken):
			continue
		case err != nil:
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		res.Users++
	}

	for _, item := range f.Items {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Item{}).
			Where("name = ? AND category = ?", item.Name, item.Category).
			Count(&count).Error; err != nil {
			return res, fmt.Errorf("seed item %s: %w", item.Name, err)
		}
		if count > 0 {
			continue
		}

		row := &models.Item{
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			Price:       item.Price,
		}
		if err := db.WithContext(ctx).Create(row).Error; err != nil {
			return res, fmt.Errorf("seed item %s: %w", item.Name, err)
		}
		res.Items++
	}

	logger.Info().Int("users", res.Users).Int("items", res.Items).Msg("Seed data applied")
	return res, nil
}
