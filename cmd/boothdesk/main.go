// Package main provides the CLI entrypoint for boothdesk.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/boothdesk/internal/client"
	"github.com/verte-zerg/boothdesk/internal/config"
	"github.com/verte-zerg/boothdesk/internal/dashboard"
	"github.com/verte-zerg/boothdesk/internal/logging"
	"github.com/verte-zerg/boothdesk/internal/model"
)

var (
	configPath string
	settings   config.Settings

	resultsXLSX  string
	resultsWidth int

	assignIDs      string
	assignTarget   int64
	assignUnassign bool

	importTable string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	settings = config.DefaultSettings()
	configPath = config.DefaultConfigPath()

	rootCmd := &cobra.Command{
		Use:           "boothdesk",
		Short:         "Election booth and ward dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", configPath, "config file path")
	pf.StringVar(&settings.BaseURL, "base-url", config.DefaultBaseURL, "backend base URL")
	pf.DurationVar(&settings.Timeout, "timeout", config.DefaultTimeout, "backend request timeout")
	pf.StringVar(&settings.LogLevel, "log-level", config.DefaultLogLevel, "log level (error, warn, info, debug)")
	pf.StringVar(&settings.LogPath, "log-path", settings.LogPath, "dashboard log file")

	addKindFlag(rootCmd)
	rootCmd.Flags().Int64Var(&settings.District, "district", 0, "district to open (default: first)")
	addScopeFlag(rootCmd)
	rootCmd.Flags().StringVar(&settings.SearchMode, "search-mode", config.DefaultSearchMode, "search mode (substring, fuzzy)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newResultsCmd())
	rootCmd.AddCommand(newAssignCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newImportCmd())

	return rootCmd
}

func addKindFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&settings.Kind, "kind", config.DefaultKind, "entity kind (booth, ward)")
}

func addScopeFlag(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&settings.Scope, "scope", 0, "assembly id for booths, localbody id for wards")
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&settings.Driver, "driver", config.DefaultDriver, "database driver (sqlite, postgres)")
	cmd.Flags().StringVar(&settings.DSN, "dsn", settings.DSN, "database DSN or SQLite path")
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	log, closer, err := logging.OpenFile(s.LogPath, s.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	c, err := client.New(s.BaseURL, s.Timeout, log)
	if err != nil {
		return err
	}
	log.WithField("base_url", c.BaseURL()).Info("dashboard started")

	m := dashboard.NewModel(c, dashboard.Options{
		Kind:       model.Kind(s.Kind),
		District:   s.District,
		Scope:      s.Scope,
		SearchMode: s.SearchMode,
	}, log)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

// resolveSettings merges flags over environment over the config file over
// defaults and validates the result.
func resolveSettings(cmd *cobra.Command) (config.Settings, error) {
	fileCfg, err := config.Load(configPath, config.DefaultEnvFiles...)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "base-url", &settings.BaseURL, fileCfg.Backend.BaseURL)
	if err := applyDurationConfig(cmd, "timeout", &settings.Timeout, fileCfg.Backend.Timeout); err != nil {
		return config.Settings{}, err
	}
	applyStringConfig(cmd, "kind", &settings.Kind, fileCfg.Dashboard.Kind)
	applyInt64Config(cmd, "district", &settings.District, fileCfg.Dashboard.District)
	applyInt64Config(cmd, "scope", &settings.Scope, fileCfg.Dashboard.Scope)
	applyStringConfig(cmd, "search-mode", &settings.SearchMode, fileCfg.Dashboard.SearchMode)
	applyStringConfig(cmd, "addr", &settings.Addr, fileCfg.Server.Addr)
	applyStringConfig(cmd, "driver", &settings.Driver, fileCfg.Server.Driver)
	applyStringConfig(cmd, "dsn", &settings.DSN, fileCfg.Server.DSN)
	applyStringSliceConfig(cmd, "origins", &settings.Origins, fileCfg.Server.Origins)
	applyStringConfig(cmd, "log-level", &settings.LogLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-path", &settings.LogPath, fileCfg.Log.Path)

	if kind, ok := model.ParseKind(settings.Kind); ok {
		settings.Kind = string(kind)
	}
	settings.SearchMode = strings.ToLower(strings.TrimSpace(settings.SearchMode))
	settings.Driver = strings.ToLower(strings.TrimSpace(settings.Driver))
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))
	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), (*value)...)
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	d, err := config.ParseTimeout(*value)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	*target = d
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# boothdesk configuration
# Uncomment a value to enable it. Environment variables (BOOTHDESK_*)
# override config values and CLI flags override both.

[backend]
# base-url = %q
# timeout = %q

[dashboard]
# kind = %q             # booth or ward
# district = 1
# scope = 12              # assembly id for booths, localbody id for wards
# search-mode = %q   # substring or fuzzy

[server]
# addr = %q
# driver = %q          # sqlite or postgres
# dsn = %q
# origins = ["http://localhost:5173"]

[log]
# level = %q
# path = %q
`,
		config.DefaultBaseURL,
		config.DefaultTimeout.String(),
		config.DefaultKind,
		config.DefaultSearchMode,
		config.DefaultAddr,
		config.DefaultDriver,
		config.DefaultDBPath(),
		config.DefaultLogLevel,
		config.DefaultLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
