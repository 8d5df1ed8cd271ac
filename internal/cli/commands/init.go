package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cruisemate/cruisemate/internal/cli/config"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init <api-url>",
		Short: "Add a CruiseMate server to ./cruisemate.json",
		Long: `Add a CruiseMate server to ./cruisemate.json.

Examples:
  $ cruisemate init http://127.0.0.1:8000/api/
  $ cruisemate init https://api.cruise.example/api/ --alias ship`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args[0], alias, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Server alias (defaults to 'local', then server-N)")

	return cmd
}

func runInit(apiURL, alias string, out io.Writer) error {
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	if alias == "" {
		if len(cfg.Servers) == 0 {
			alias = "local"
		} else {
			alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
		}
	}

	server := config.Server{URL: apiURL, Alias: alias}
	if err := server.Validate(); err != nil {
		return err
	}
	if _, err := cfg.GetServerByAlias(alias); err == nil {
		return fmt.Errorf("a server with alias '%s' already exists in %s", alias, config.ConfigFileName)
	}

	if !cfg.AddServer(server) {
		fmt.Fprintf(out, "Server %s already exists in %s\n", apiURL, config.ConfigFileName)
		return nil
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, apiURL, alias)
	} else {
		fmt.Fprintf(out, "✓ Added server %s (%s) to ./%s\n", apiURL, alias, config.ConfigFileName)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Run 'cruisemate register voyager --email you@example.com' to create an account")
	fmt.Fprintln(out, "  2. Run 'cruisemate login' to authenticate")

	return nil
}
