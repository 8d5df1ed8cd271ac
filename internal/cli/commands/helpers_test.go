package commands

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cruisemate/cruisemate/internal/cli/auth"
	"github.com/cruisemate/cruisemate/internal/cli/client"
	"github.com/cruisemate/cruisemate/internal/cli/session"
	"github.com/cruisemate/cruisemate/internal/roles"
	"github.com/stretchr/testify/require"
)

const testServerURL = "http://cruise.test/api/"

// newSignedInManager builds a manager whose store already holds a session for role.
// An empty role builds a signed-out manager.
func newSignedInManager(t *testing.T, baseURL string, role string) (*session.Manager, *auth.MemoryStore) {
	t.Helper()

	store := auth.NewMemoryStore()
	if role != "" {
		data, err := json.Marshal(map[string]string{
			"access":       "A1",
			"refresh":      "R1",
			"role":         role,
			"backend_role": role,
			"username":     "ana",
			"email":        "ana@ship.example",
		})
		require.NoError(t, err)
		require.NoError(t, store.Save(baseURL, data))
	}

	m, err := session.New(baseURL, store)
	require.NoError(t, err)
	return m, store
}

// fakeAPI records calls and returns canned data
type fakeAPI struct {
	calls    []string
	items    []client.Item
	bookings []client.Booking
	booking  *client.Booking
	item     *client.Item
	register *client.RegisterResponse
	err      error

	lastBooking client.BookingInput
	lastItem    client.ItemInput
	lastReg     client.RegisterRequest
	lastRole    roles.Role
	lastContact client.ContactMessage
}

var errBoom = errors.New("request failed (status 500): boom")

func (f *fakeAPI) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeAPI) Register(ctx context.Context, role roles.Role, req client.RegisterRequest) (*client.RegisterResponse, error) {
	f.lastRole, f.lastReg = role, req
	if err := f.record("Register"); err != nil {
		return nil, err
	}
	return f.register, nil
}

func (f *fakeAPI) Contact(ctx context.Context, msg client.ContactMessage) (*client.ContactResponse, error) {
	f.lastContact = msg
	if err := f.record("Contact"); err != nil {
		return nil, err
	}
	return &client.ContactResponse{Success: true, Message: "Message received successfully!"}, nil
}

func (f *fakeAPI) ListMenu(ctx context.Context, category string) ([]client.Item, error) {
	if err := f.record("ListMenu " + category); err != nil {
		return nil, err
	}
	return f.items, nil
}

func (f *fakeAPI) OrderFromMenu(ctx context.Context, category, date string) (*client.Booking, error) {
	f.lastBooking = client.BookingInput{Type: category, Date: date}
	if err := f.record("OrderFromMenu " + category); err != nil {
		return nil, err
	}
	return f.booking, nil
}

func (f *fakeAPI) ListBookings(ctx context.Context) ([]client.Booking, error) {
	if err := f.record("ListBookings"); err != nil {
		return nil, err
	}
	return f.bookings, nil
}

func (f *fakeAPI) CreateBooking(ctx context.Context, in client.BookingInput) (*client.Booking, error) {
	f.lastBooking = in
	if err := f.record("CreateBooking"); err != nil {
		return nil, err
	}
	return f.booking, nil
}

func (f *fakeAPI) UpdateBooking(ctx context.Context, id string, in client.BookingInput) (*client.Booking, error) {
	f.lastBooking = in
	if err := f.record("UpdateBooking " + id); err != nil {
		return nil, err
	}
	return f.booking, nil
}

func (f *fakeAPI) DeleteBooking(ctx context.Context, id string) error {
	return f.record("DeleteBooking " + id)
}

func (f *fakeAPI) AllBookings(ctx context.Context) ([]client.Booking, error) {
	if err := f.record("AllBookings"); err != nil {
		return nil, err
	}
	return f.bookings, nil
}

func (f *fakeAPI) ListItems(ctx context.Context) ([]client.Item, error) {
	if err := f.record("ListItems"); err != nil {
		return nil, err
	}
	return f.items, nil
}

func (f *fakeAPI) GetItem(ctx context.Context, id string) (*client.Item, error) {
	if err := f.record("GetItem " + id); err != nil {
		return nil, err
	}
	return f.item, nil
}

func (f *fakeAPI) CreateItem(ctx context.Context, in client.ItemInput) (*client.Item, error) {
	f.lastItem = in
	if err := f.record("CreateItem"); err != nil {
		return nil, err
	}
	return f.item, nil
}

func (f *fakeAPI) UpdateItem(ctx context.Context, id string, in client.ItemInput) (*client.Item, error) {
	f.lastItem = in
	if err := f.record("UpdateItem " + id); err != nil {
		return nil, err
	}
	return f.item, nil
}

func (f *fakeAPI) DeleteItem(ctx context.Context, id string) error {
	return f.record("DeleteItem " + id)
}

func (f *fakeAPI) Dashboard(ctx context.Context, role roles.Role) (*client.Dashboard, error) {
	f.lastRole = role
	if err := f.record("Dashboard"); err != nil {
		return nil, err
	}
	endpoint, _ := client.EndpointForRole(role)
	return &client.Dashboard{Role: role, Endpoint: endpoint, Items: f.items, Bookings: f.bookings}, nil
}

func ptr[T any](v T) *T {
	return &v
}

func nowForTest() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}
