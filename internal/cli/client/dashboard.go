package client

import (
	"context"
	"fmt"

	"github.com/cruisemate/cruisemate/internal/roles"
)

// EndpointForRole returns the path a role's dashboard loads its data from
func EndpointForRole(role roles.Role) (string, bool) {
	switch role {
	case roles.Voyager:
		return "voyager/catering/", true
	case roles.Admin:
		return "admin/items/", true
	case roles.Manager:
		return "manager/bookings/", true
	case roles.HeadCook:
		return "head_cook/orders/", true
	case roles.Supervisor:
		return "supervisor/orders/", true
	}
	return "", false
}

// Dashboard is the data shown on a role's landing page.
// Exactly one of Items or Bookings is populated.
type Dashboard struct {
	Role     roles.Role
	Endpoint string
	Items    []Item
	Bookings []Booking
}

// Dashboard loads the landing data for role
func (c *Client) Dashboard(ctx context.Context, role roles.Role) (*Dashboard, error) {
	endpoint, ok := EndpointForRole(role)
	if !ok {
		return nil, fmt.Errorf("no dashboard for role %q", role)
	}

	d := &Dashboard{Role: role, Endpoint: endpoint}
	var err error
	switch role {
	case roles.Voyager, roles.Admin:
		d.Items, err = getList[Item](ctx, c, endpoint)
	default:
		d.Bookings, err = getList[Booking](ctx, c, endpoint)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}
