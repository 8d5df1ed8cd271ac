package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/cruisemate/cruisemate/internal/cli/auth"
	"github.com/cruisemate/cruisemate/internal/cli/client"
	"github.com/cruisemate/cruisemate/internal/cli/config"
	"github.com/cruisemate/cruisemate/internal/cli/serverselect"
	"github.com/cruisemate/cruisemate/internal/cli/session"
	"github.com/cruisemate/cruisemate/internal/logger"
	"github.com/cruisemate/cruisemate/internal/roles"
)

// ExpiredMessage is shown when the session could not be recovered
const ExpiredMessage = "Session expired. Run 'cruisemate login' to sign in again."

// API is the part of the CruiseMate API the commands use
type API interface {
	Register(ctx context.Context, role roles.Role, req client.RegisterRequest) (*client.RegisterResponse, error)
	Contact(ctx context.Context, msg client.ContactMessage) (*client.ContactResponse, error)
	ListMenu(ctx context.Context, category string) ([]client.Item, error)
	OrderFromMenu(ctx context.Context, category, date string) (*client.Booking, error)
	ListBookings(ctx context.Context) ([]client.Booking, error)
	CreateBooking(ctx context.Context, in client.BookingInput) (*client.Booking, error)
	UpdateBooking(ctx context.Context, id string, in client.BookingInput) (*client.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	AllBookings(ctx context.Context) ([]client.Booking, error)
	ListItems(ctx context.Context) ([]client.Item, error)
	GetItem(ctx context.Context, id string) (*client.Item, error)
	CreateItem(ctx context.Context, in client.ItemInput) (*client.Item, error)
	UpdateItem(ctx context.Context, id string, in client.ItemInput) (*client.Item, error)
	DeleteItem(ctx context.Context, id string) error
	Dashboard(ctx context.Context, role roles.Role) (*client.Dashboard, error)
}

type options struct {
	serverAlias string
	server      *config.Server
	store       auth.Store
	manager     *session.Manager
	api         API
	httpClient  *http.Client
	out         io.Writer
}

// Option configures a command run. Tests use options to avoid the keychain,
// the project config and the network.
type Option func(*options)

// WithServerAlias selects a server from cruisemate.json by alias or URL
func WithServerAlias(alias string) Option {
	return func(o *options) { o.serverAlias = alias }
}

// WithServer skips server resolution
func WithServer(server *config.Server) Option {
	return func(o *options) { o.server = server }
}

// WithTokenStore overrides the durable session store
func WithTokenStore(store auth.Store) Option {
	return func(o *options) { o.store = store }
}

// WithSessionManager injects a ready session manager
func WithSessionManager(m *session.Manager) Option {
	return func(o *options) { o.manager = m }
}

// WithAPIClient injects the API client
func WithAPIClient(api API) Option {
	return func(o *options) { o.api = api }
}

// WithHTTPClient overrides the HTTP client used for backend calls
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.out == nil {
		o.out = os.Stdout
	}
	return o
}

// env is everything a command needs once dependencies are resolved
type env struct {
	out     io.Writer
	manager *session.Manager
	api     API
}

// resolve builds the session manager and API client unless they were injected
func (o *options) resolve() (*env, error) {
	if o.manager == nil {
		server := o.server
		if server == nil {
			var err error
			server, err = getSelectedServer(o.serverAlias)
			if err != nil {
				return nil, err
			}
		}

		store := o.store
		if store == nil {
			var err error
			store, err = auth.Default()
			if err != nil {
				return nil, fmt.Errorf("failed to open session store: %w", err)
			}
		}

		out := o.out
		managerOpts := []session.Option{
			session.WithLogger(logger.ForCLI(os.Stderr, os.Getenv("CRUISEMATE_LOG_LEVEL"))),
			session.WithOnUnauthenticated(func(error) {
				fmt.Fprintln(out, ExpiredMessage)
			}),
		}
		if o.httpClient != nil {
			managerOpts = append(managerOpts, session.WithHTTPClient(o.httpClient))
		}

		m, err := session.New(server.URL, store, managerOpts...)
		if err != nil {
			return nil, err
		}
		o.manager = m
	}

	if o.api == nil {
		o.api = client.New(o.manager)
	}

	return &env{out: o.out, manager: o.manager, api: o.api}, nil
}

// authorize resolves dependencies and applies the role gate
func authorize(opts []Option, allowed ...roles.Role) (*env, error) {
	e, err := newOptions(opts).resolve()
	if err != nil {
		return nil, err
	}
	if err := e.manager.Authorize(allowed...); err != nil {
		return nil, explainAuthorize(err)
	}
	return e, nil
}

func explainAuthorize(err error) error {
	if errors.Is(err, session.ErrForbiddenRole) {
		return fmt.Errorf("%w (see %s)", err, roles.UnauthorizedPath)
	}
	return err
}

// getSelectedServer loads the config and returns the selected server.
// This is common logic used by most commands.
func getSelectedServer(serverAlias string) (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'cruisemate init' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, err
	}

	if err := server.Validate(); err != nil {
		return nil, err
	}

	return server, nil
}
