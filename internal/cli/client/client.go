package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cruisemate/cruisemate/internal/cli/session"
	"github.com/cruisemate/cruisemate/internal/roles"
)

// Requester sends an authorized JSON request. *session.Manager implements it.
type Requester interface {
	Do(ctx context.Context, method, path string, body any) (*session.Response, error)
}

// Client represents a typed client for the CruiseMate API
type Client struct {
	requester Requester
}

// New creates a new API client on top of an authorized requester
func New(r Requester) *Client {
	return &Client{requester: r}
}

// Category of a menu item
const (
	CategoryCatering   = "catering"
	CategoryStationery = "stationery"
)

// ValidCategory reports whether c names a menu
func ValidCategory(c string) bool {
	return c == CategoryCatering || c == CategoryStationery
}

// Price is a decimal amount. The backend may encode it as a number or a string.
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid price %s: %w", b, err)
	}
	*p = Price(f)
	return nil
}

func (p Price) String() string {
	return strconv.FormatFloat(float64(p), 'f', 2, 64)
}

// Item represents a catering or stationery item
type Item struct {
	ID          session.ID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Price       Price      `json:"price"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ItemInput is the body of item create and partial update calls.
// Nil fields are left unchanged on update.
type ItemInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// Booking represents a voyager booking or order
type Booking struct {
	ID        session.ID `json:"id"`
	User      session.ID `json:"user"`
	Type      string     `json:"type"`
	Date      string     `json:"date"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// BookingInput is the body of booking create and update calls
type BookingInput struct {
	Type   string `json:"type,omitempty"`
	Date   string `json:"date,omitempty"`
	Status string `json:"status,omitempty"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	UserID  session.ID `json:"user_id"`
	User    *struct {
		ID       session.ID `json:"id"`
		Username string     `json:"username"`
		Email    string     `json:"email"`
		Role     string     `json:"role"`
	} `json:"user,omitempty"`
}

// ID returns the new user's id from either response shape
func (r *RegisterResponse) ID() session.ID {
	if r.UserID != "" {
		return r.UserID
	}
	if r.User != nil {
		return r.User.ID
	}
	return ""
}

// Register creates an account with the given role
func (c *Client) Register(ctx context.Context, role roles.Role, req RegisterRequest) (*RegisterResponse, error) {
	if !role.Known() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if req.Email == "" || req.Password == "" {
		return nil, errors.New("email and password are required for registration")
	}

	resp, err := c.requester.Do(ctx, http.MethodPost, role.Backend()+"/register/", req)
	if err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ContactMessage is a message for the public contact form
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactResponse acknowledges a contact message
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Contact sends a message through the contact form. No session is needed.
func (c *Client) Contact(ctx context.Context, msg ContactMessage) (*ContactResponse, error) {
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, errors.New("name, email and message are required")
	}
	return send[ContactResponse](ctx, c, http.MethodPost, "contact/", msg)
}

// ListMenu returns the items of a menu category
func (c *Client) ListMenu(ctx context.Context, category string) ([]Item, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("unknown menu %q (expected %s or %s)", category, CategoryCatering, CategoryStationery)
	}
	return getList[Item](ctx, c, "voyager/"+category+"/")
}

// OrderFromMenu places a catering or stationery order for date
func (c *Client) OrderFromMenu(ctx context.Context, category, date string) (*Booking, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("unknown menu %q (expected %s or %s)", category, CategoryCatering, CategoryStationery)
	}
	return send[Booking](ctx, c, http.MethodPost, "voyager/"+category+"/", BookingInput{Date: date})
}

// ListBookings returns the caller's bookings
func (c *Client) ListBookings(ctx context.Context) ([]Booking, error) {
	return getList[Booking](ctx, c, "voyager/bookings/")
}

// CreateBooking books an activity for the caller
func (c *Client) CreateBooking(ctx context.Context, in BookingInput) (*Booking, error) {
	return send[Booking](ctx, c, http.MethodPost, "voyager/bookings/", in)
}

// UpdateBooking changes one of the caller's bookings
func (c *Client) UpdateBooking(ctx context.Context, id string, in BookingInput) (*Booking, error) {
	return send[Booking](ctx, c, http.MethodPut, "voyager/bookings/"+url.PathEscape(id)+"/", in)
}

// DeleteBooking removes one of the caller's bookings
func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	_, err := c.requester.Do(ctx, http.MethodDelete, "voyager/bookings/"+url.PathEscape(id)+"/", nil)
	return err
}

// AllBookings returns every booking (manager)
func (c *Client) AllBookings(ctx context.Context) ([]Booking, error) {
	return getList[Booking](ctx, c, "manager/bookings/")
}

// CateringOrders returns catering orders (head cook)
func (c *Client) CateringOrders(ctx context.Context) ([]Booking, error) {
	return getList[Booking](ctx, c, "head_cook/orders/")
}

// StationeryOrders returns stationery orders (supervisor)
func (c *Client) StationeryOrders(ctx context.Context) ([]Booking, error) {
	return getList[Booking](ctx, c, "supervisor/orders/")
}

// ListItems returns every item (admin)
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	return getList[Item](ctx, c, "admin/items/")
}

// GetItem returns one item (admin)
func (c *Client) GetItem(ctx context.Context, id string) (*Item, error) {
	return send[Item](ctx, c, http.MethodGet, "admin/items/"+url.PathEscape(id)+"/", nil)
}

// CreateItem adds an item (admin)
func (c *Client) CreateItem(ctx context.Context, in ItemInput) (*Item, error) {
	return send[Item](ctx, c, http.MethodPost, "admin/items/", in)
}

// UpdateItem partially updates an item (admin)
func (c *Client) UpdateItem(ctx context.Context, id string, in ItemInput) (*Item, error) {
	return send[Item](ctx, c, http.MethodPut, "admin/items/"+url.PathEscape(id)+"/", in)
}

// DeleteItem removes an item (admin)
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	_, err := c.requester.Do(ctx, http.MethodDelete, "admin/items/"+url.PathEscape(id)+"/", nil)
	return err
}

func send[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	resp, err := c.requester.Do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	var out T
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	resp, err := c.requester.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[T](resp.Body)
}

// decodeList accepts a bare array or an envelope with an items or results array
func decodeList[T any](body []byte) ([]T, error) {
	out := []T{}
	if len(body) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(body, &out); err == nil {
		return out, nil
	}

	var envelope struct {
		Items   []T `json:"items"`
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	switch {
	case envelope.Items != nil:
		return envelope.Items, nil
	case envelope.Results != nil:
		return envelope.Results, nil
	}
	return out, nil
}
