package cli

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tgienger/taskdesk/internal/api"
	"github.com/tgienger/taskdesk/internal/config"
	"github.com/tgienger/taskdesk/internal/db"
	"github.com/tgienger/taskdesk/internal/logging"
	"github.com/tgienger/taskdesk/internal/store"
	"github.com/tgienger/taskdesk/internal/ui"
	"github.com/tgienger/taskdesk/internal/ui/views"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskdesk",
		Short: "Terminal client for the task tracker",
		Long: `taskdesk is a terminal client for a shared task tracker.

Log in or register, then browse, sort, create, edit and delete tasks.
The session is kept locally so the next start skips the login screen.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runTUI(cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is $XDG_CONFIG_HOME/taskdesk/config.yaml)")
	flags.String("api-url", "", "base URL of the task tracker API")
	flags.Duration("timeout", 0, "timeout of a single API call")
	flags.String("data-dir", "", "directory of the local session database")
	flags.String("log-file", "", "log file (default is $XDG_STATE_HOME/taskdesk/taskdesk.log)")
	flags.Bool("debug", false, "log at debug level")

	root.AddCommand(
		newVersionCmd(),
		newLogoutCmd(),
		newConfigCmd(),
	)
	return root
}

// loadConfig resolves the effective configuration for cmd. Flags the user
// did not set leave the file and environment values in place.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(file, cmd.Flags())
}

func runTUI(cfg config.Config) error {
	logFile := cfg.LogFile
	if logFile == "" {
		var err error
		if logFile, err = config.DefaultLogFile(); err != nil {
			return fmt.Errorf("resolving log file: %w", err)
		}
	}
	closer, err := logging.Setup(logFile, cfg.Debug)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer closer.Close()

	database, err := db.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer database.Close()

	client := api.New(cfg.APIURL, cfg.Timeout)
	ctl := views.NewController(store.New(), store.NewEffects(client), cfg.Timeout)
	app := ui.NewApp(ctl, database, client)

	token, err := database.AccessToken()
	if err != nil {
		log.WithError(err).Warn("read stored session")
	}
	username, _ := database.LastUsername()
	if app.Resume(token, username, time.Now()) {
		log.WithField("username", username).Info("resumed session")
	}

	log.WithField("api_url", cfg.APIURL).Info("starting taskdesk")
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskdesk %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			database, err := db.New(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			defer database.Close()

			if err := database.ClearSession(); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg config.Config) {
	fmt.Fprintf(w, "api_url:  %s\n", cfg.APIURL)
	fmt.Fprintf(w, "timeout:  %s\n", cfg.Timeout)
	fmt.Fprintf(w, "data_dir: %s\n", cfg.DataDir)
	fmt.Fprintf(w, "log_file: %s\n", cfg.LogFile)
	fmt.Fprintf(w, "debug:    %t\n", cfg.Debug)
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
