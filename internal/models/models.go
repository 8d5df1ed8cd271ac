package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config is the singleton row holding server state generated at first start
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // 64 hex chars
}

// Backend role slugs stored on users
const (
	RoleVoyager    = "voyager"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleHeadCook   = "head_cook"
	RoleSupervisor = "supervisor"
)

// User represents an account. Email is the login identifier.
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	Username     string    `json:"username" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         string    `json:"role" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Item categories
const (
	CategoryCatering   = "catering"
	CategoryStationery = "stationery"
)

// Item is an entry on the catering or stationery menu
type Item struct {
	BaseModel
	Name        string  `json:"name" gorm:"not null"`
	Description string  `json:"description"`
	Category    string  `json:"category" gorm:"not null;index"`
	Price       float64 `json:"price" gorm:"not null"`
}

// Prices are fixed-point: at most PriceMaxDigits digits, PriceDecimalPlaces
// of them after the point.
const (
	PriceMaxDigits     = 10
	PriceDecimalPlaces = 2
)

// PriceProblem returns why p does not fit the price format, or "" if it does.
// Digits are counted on the shortest decimal form of p, so 1.10 counts as 1.1.
func PriceProblem(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "A valid number is required."
	}

	whole, frac, _ := strings.Cut(strconv.FormatFloat(math.Abs(p), 'f', -1, 64), ".")
	whole = strings.TrimLeft(whole, "0")

	switch {
	case len(whole)+len(frac) > PriceMaxDigits:
		return fmt.Sprintf("Ensure that there are no more than %d digits in total.", PriceMaxDigits)
	case len(frac) > PriceDecimalPlaces:
		return fmt.Sprintf("Ensure that there are no more than %d decimal places.", PriceDecimalPlaces)
	case len(whole) > PriceMaxDigits-PriceDecimalPlaces:
		return fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", PriceMaxDigits-PriceDecimalPlaces)
	}
	return ""
}

// ContactMessage is a message left through the public contact form
type ContactMessage struct {
	BaseModel
	Name    string `json:"name" gorm:"not null"`
	Email   string `json:"email" gorm:"not null"`
	Message string `json:"message" gorm:"not null"`
}

// Booking types and statuses
var (
	BookingTypes    = []string{"resort", "movie", "salon", "fitness", "party", CategoryCatering, CategoryStationery}
	BookingStatuses = []string{"pending", "confirmed", "cancelled"}
)

// Booking is an activity booking or a menu order placed by a user
type Booking struct {
	BaseModel
	UserID string `json:"user" gorm:"not null;index"`
	Type   string `json:"type" gorm:"not null;index"`
	Date   string `json:"date" gorm:"not null"` // YYYY-MM-DD
	Status string `json:"status" gorm:"not null;default:pending"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// RefreshToken tracks an issued refresh token so it can be rotated and revoked
type RefreshToken struct {
	BaseModel
	JTI       string     `json:"jti" gorm:"unique;not null"`
	UserID    string     `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	RevokedAt *time.Time `json:"revoked_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Active reports whether the token can still be exchanged at now
func (r *RefreshToken) Active(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Config{}, &User{}, &Item{}, &Booking{}, &RefreshToken{}, &ContactMessage{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
