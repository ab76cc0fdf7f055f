// Package cli implements vehiclectl, a terminal front end for the vehicle
// record editor.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"vehicle-admin/internal/apiclient"
	"vehicle-admin/internal/config"
	"vehicle-admin/internal/editor"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X vehicle-admin/internal/cli.Version=...".
var Version = "dev"

type app struct {
	cfgPath string
	server  string
	token   string
	verbose bool

	out    io.Writer
	errOut io.Writer

	cfg    config.ClientConfig
	client *apiclient.Client
	logger *slog.Logger
}

// NewRootCmd builds the command tree writing to out and errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "vehiclectl",
		Short: "Edit imported vehicle records from the terminal",
		Long: `vehiclectl loads a vehicle record from the dashboard API and edits it one
section at a time, the same way the web editor does.

Example:
  vehiclectl login --email me@example.com --password ...
  vehiclectl show 12
  vehiclectl edit 12 --section financials --set duty_lkr=350000 --set other_expenses.transport=15000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.cfgPath, "config", config.DefaultClientPath(), "config file")
	root.PersistentFlags().StringVar(&a.server, "server", "", "API base URL (overrides the config file)")
	root.PersistentFlags().StringVar(&a.token, "token", "", "API token (overrides the config file)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.loginCmd(),
		a.showCmd(),
		a.editCmd(),
		a.setPrimaryCmd(),
		a.uploadDocCmd(),
		a.deleteDocCmd(),
		a.imagesCmd(),
		versionCmd(),
	)
	return root
}

// Execute runs vehiclectl on the process arguments.
func Execute() {
	if err := NewRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := config.LoadClient(a.cfgPath)
	if err != nil {
		return err
	}
	if a.server != "" {
		cfg.BaseURL = strings.TrimRight(a.server, "/")
	}
	if a.token != "" {
		cfg.Token = a.token
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	a.client = apiclient.New(cfg.BaseURL, cfg.Token, cfg.Timeout)
	a.logger.Debug("client ready", "base_url", cfg.BaseURL)
	return nil
}

// notifier prints editor notifications on errOut.
func (a *app) notifier() editor.Notifier {
	return editor.NotifierFunc(func(kind editor.NotificationKind, title, message string) {
		fmt.Fprintf(a.errOut, "[%s] %s: %s\n", kind, title, message)
	})
}

// session loads the vehicle with the permissions of the logged-in user.
func (a *app) session(ctx context.Context, vehicleID uint) (*editor.Session, error) {
	if a.cfg.Token == "" {
		return nil, fmt.Errorf("not logged in, run vehiclectl login first")
	}
	me, err := a.client.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("who am i: %w", err)
	}
	s := editor.NewSession(a.client, vehicleID, me.Permissions,
		editor.WithLogger(a.logger),
		editor.WithNotifier(a.notifier()),
	)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vehiclectl version",
		// no config needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vehiclectl %s\n", Version)
		},
	}
}
