package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"timesheet-engine/internal/api"
	"timesheet-engine/internal/config"
	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/logging"
)

// APIFactory builds the engine for a resolved configuration. The returned
// closer releases whatever stores the engine opened.
type APIFactory func(cfg *config.Config, logger *slog.Logger) (api.BusinessAPI, io.Closer, error)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd     *cobra.Command
	loader  *config.Loader
	factory APIFactory
	config  *config.Config
	app     *App
	closer  io.Closer
}

// NewRootCommand creates the root cobra command with global flags. The
// configuration is loaded and the engine built once flags are parsed.
func NewRootCommand(loader *config.Loader, factory APIFactory) *RootCommand {
	root := &RootCommand{
		loader:  loader,
		factory: factory,
	}

	root.cmd = &cobra.Command{
		Use:   "tse",
		Short: "Validate and reconcile time entries and timesheets",
		Long: `Timesheet Engine (tse) validates time entries, keeps timesheets and reconciles
recorded work with clock-in/clock-out presence data.

FEATURES:
  • Validate entries against duration, range, overlap and billing rules
  • Move entries and timesheets through their approval lifecycle
  • Recalculate timesheet totals and check weekly completeness
  • Convert presence records into draft time entries
  • Reconcile presence against entries and sync whole date ranges

EXAMPLES:
  tse validate --employee emp-1 --start 09:00 --end 17:00 --description "Sprint work"
  tse entry create --employee emp-1 --date yesterday --duration 90 --description "Code review"
  tse entry list --employee emp-1 --from "last monday"
  tse timesheet for --employee emp-1
  tse timesheet submit <id>
  tse presence import presence.json
  tse reconcile --employee emp-1 --date 2024-01-15
  tse sync --from 2024-01-01 --to 2024-01-31 --all
  tse entry export --format csv > entries.csv

CONFIGURATION:
  Configuration follows this priority order: command-line flags > environment variables > config file > defaults
  The config file is read from TSE_CONFIG (default: ~/.tse/config.toml)

  Database Configuration:
    TSE_DB_DIR                             Database directory (default: ~/.tse)
    TSE_DB_FILENAME                        Database filename (default: tse.db)
    TSE_DB_QUERY_TIMEOUT                   Query timeout in seconds (default: 10)
    TSE_DB_WRITE_TIMEOUT                   Write timeout in seconds (default: 5)

  Presence Configuration:
    TSE_PRESENCE_SOURCE                    sqlite or mysql (default: sqlite)
    TSE_PRESENCE_DSN                       MySQL DSN of the attendance database

  Application Configuration:
    TSE_TENANT                             Tenant every command is scoped to (default: default)
    TSE_TIMEZONE                           Zone used for calendar days (default: Local)
    TSE_APP_TIMEOUT                        Application timeout in seconds (default: 60)
    TSE_LOG_LEVEL, TSE_LOG_FORMAT          Log level and format (text or json)

DATES:
  Dates accept YYYY-MM-DD or natural expressions such as "yesterday" or "last monday".
  Times are HH:MM in the configured zone.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.setup(cmd)
		},
	}

	root.addGlobalFlags()
	root.addSubcommands()

	return root
}

// Command exposes the underlying cobra command.
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

// Execute runs the root command and releases the engine afterwards
func (r *RootCommand) Execute() error {
	defer r.close()
	return r.cmd.Execute()
}

func (r *RootCommand) close() {
	if r.closer != nil {
		_ = r.closer.Close()
		r.closer = nil
	}
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	// Database configuration
	flags.String("db-dir", "", "Database directory (overrides TSE_DB_DIR)")
	flags.String("db-filename", "", "Database filename (overrides TSE_DB_FILENAME)")

	// Presence configuration
	flags.String("presence-source", "", "Presence source, sqlite or mysql (overrides TSE_PRESENCE_SOURCE)")
	flags.String("presence-dsn", "", "MySQL DSN of the presence database (overrides TSE_PRESENCE_DSN)")

	// Application configuration
	flags.String("tenant", "", "Tenant to operate on (overrides TSE_TENANT)")
	flags.String("timezone", "", "IANA zone for calendar days (overrides TSE_TIMEZONE)")
	flags.Int("timeout", 0, "Application timeout in seconds (overrides TSE_APP_TIMEOUT)")
	flags.Bool("verbose", false, "Log at debug level (overrides TSE_APP_VERBOSE)")

	// Logging configuration
	flags.String("log-level", "", "Log level (overrides TSE_LOG_LEVEL)")
	flags.String("log-format", "", "Log format, text or json (overrides TSE_LOG_FORMAT)")

	// Sync configuration
	flags.Int("sync-page-size", 0, "Presence records per sync page (overrides TSE_SYNC_PAGE_SIZE)")
}

// overridesFromFlags collects the global flags the user actually set.
func overridesFromFlags(flags *pflag.FlagSet) *config.ConfigOverrides {
	overrides := &config.ConfigOverrides{}

	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	num := func(name string) *int {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetInt(name)
		return &v
	}

	overrides.DBDir = str("db-dir")
	overrides.DBFilename = str("db-filename")
	overrides.PresenceSource = str("presence-source")
	overrides.PresenceDSN = str("presence-dsn")
	overrides.TenantID = str("tenant")
	overrides.Timezone = str("timezone")
	overrides.Timeout = num("timeout")
	overrides.LogLevel = str("log-level")
	overrides.LogFormat = str("log-format")
	overrides.SyncPageSize = num("sync-page-size")

	if flags.Changed("verbose") {
		v, _ := flags.GetBool("verbose")
		overrides.Verbose = &v
	}
	return overrides
}

// setup resolves the configuration and builds the engine for cmd.
func (r *RootCommand) setup(cmd *cobra.Command) error {
	if r.app != nil {
		return nil
	}

	cfg, err := r.loader.LoadWithOverrides(overridesFromFlags(cmd.Flags()))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Application.Verbose {
		cfg.Logging.Level = "debug"
	}

	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())
	businessAPI, closer, err := r.factory(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	r.config = cfg
	r.closer = closer
	r.app = NewAppWithOutput(businessAPI, cfg, cmd.OutOrStdout())
	logger.Debug("engine ready", "tenant", cfg.Application.TenantID, "presence_source", cfg.Presence.Source)
	return nil
}

// run wraps a handler with the application timeout.
func (r *RootCommand) run(fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), r.getAppTimeout())
		defer cancel()
		return fn(ctx, cmd, args)
	}
}

// getAppTimeout returns the configured application timeout
func (r *RootCommand) getAppTimeout() time.Duration {
	if r.config != nil {
		return r.config.GetTimeout()
	}
	return 60 * time.Second
}

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a time entry without storing it",
		Long: `Run every validation rule against a candidate entry and print the report.

Examples:
  tse validate --employee emp-1 --start 09:00 --end 12:30 --description "Planning"
  tse validate --employee emp-1 --date 2024-01-13 --duration 480`,
		Args: cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return NewEntryCommand(r.app).Validate(ctx, entryInputFromFlags(cmd.Flags()))
		}),
	}
	addEntryFlags(validateCmd.Flags())

	overlapCmd := &cobra.Command{
		Use:   "overlap",
		Short: "List stored entries sharing time with an interval",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			employee, _ := flags.GetString("employee")
			date, _ := flags.GetString("date")
			start, _ := flags.GetString("start")
			end, _ := flags.GetString("end")
			exclude, _ := flags.GetString("exclude")
			return NewOverlapCommand(r.app).Execute(ctx, employee, date, start, end, exclude)
		}),
	}
	overlapCmd.Flags().String("employee", "", "Employee ID")
	overlapCmd.Flags().String("date", "", "Day of the interval (default: today)")
	overlapCmd.Flags().String("start", "", "Start time HH:MM")
	overlapCmd.Flags().String("end", "", "End time HH:MM")
	overlapCmd.Flags().String("exclude", "", "Entry ID to leave out of the check")
	_ = overlapCmd.MarkFlagRequired("employee")
	_ = overlapCmd.MarkFlagRequired("start")
	_ = overlapCmd.MarkFlagRequired("end")

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare presence with recorded time for one day",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			employee, _ := cmd.Flags().GetString("employee")
			date, _ := cmd.Flags().GetString("date")
			return NewReconcileCommand(r.app).Execute(ctx, employee, date)
		}),
	}
	reconcileCmd.Flags().String("employee", "", "Employee ID")
	reconcileCmd.Flags().String("date", "", "Day to reconcile (default: today)")
	_ = reconcileCmd.MarkFlagRequired("employee")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Turn presence records in a date range into time entries",
		Long: `Process the presence records of the tenant between --from and --to, one page at a time.
Records that already produced matching entries are skipped.

Examples:
  tse sync --from 2024-01-15                      # One day, first page
  tse sync --from 2024-01-01 --to 2024-01-31 --all`,
		Args: cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var opts SyncOptions
			opts.From, _ = flags.GetString("from")
			opts.To, _ = flags.GetString("to")
			opts.Limit, _ = flags.GetInt("limit")
			opts.Offset, _ = flags.GetInt("offset")
			opts.All, _ = flags.GetBool("all")
			return NewSyncCommand(r.app).Execute(ctx, opts)
		}),
	}
	syncCmd.Flags().String("from", "", "First day (default: today)")
	syncCmd.Flags().String("to", "", "Last day (default: --from)")
	syncCmd.Flags().Int("limit", 0, "Records per page (default: configured page size)")
	syncCmd.Flags().Int("offset", 0, "Records to skip")
	syncCmd.Flags().Bool("all", false, "Process every page")

	r.cmd.AddCommand(
		validateCmd,
		overlapCmd,
		r.entryCommand(),
		r.timesheetCommand(),
		r.presenceCommand(),
		reconcileCmd,
		syncCmd,
		r.dbCommand(),
	)
}

func (r *RootCommand) entryCommand() *cobra.Command {
	entryCmd := &cobra.Command{
		Use:   "entry",
		Short: "Create, change and approve time entries",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft time entry",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return NewEntryCommand(r.app).Create(ctx, entryInputFromFlags(cmd.Flags()))
		}),
	}
	addEntryFlags(createCmd.Flags())

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a draft or rejected entry",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return NewEntryCommand(r.app).Update(ctx, args[0], entryInputFromFlags(cmd.Flags()))
		}),
	}
	addEntryFlags(updateCmd.Flags())

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a draft or rejected entry",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return NewEntryCommand(r.app).Delete(ctx, args[0])
		}),
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return NewEntryCommand(r.app).Show(ctx, args[0])
		}),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		Long: `List entries with optional filtering.

Examples:
  tse entry list --employee emp-1
  tse entry list --from "last monday" --to today --status submitted
  tse entry list --contains "review" --limit 20`,
		Args: cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return NewEntryCommand(r.app).List(ctx, entryFilterFromFlags(cmd.Flags()))
		}),
	}
	addFilterFlags(listCmd.Flags())

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export entries as CSV or JSON",
		Long: `Export the entries matching the filter flags.

Supported formats:
  csv  - Comma-separated values format
  json - JSON array

Example:
  tse entry export --format csv --from 2024-01-01 > entries.csv`,
		Args: cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			return NewOutputCommand(r.app).Execute(ctx, format, entryFilterFromFlags(cmd.Flags()))
		}),
	}
	exportCmd.Flags().String("format", "csv", "Output format (csv or json)")
	addFilterFlags(exportCmd.Flags())

	transition := func(action, short string) *cobra.Command {
		c := &cobra.Command{
			Use:   action + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
				reason, _ := cmd.Flags().GetString("reason")
				return NewEntryCommand(r.app).Transition(ctx, action, args[0], reason)
			}),
		}
		if action == "reject" {
			c.Flags().String("reason", "", "Why the entry is rejected")
		}
		return c
	}

	anomaliesCmd := &cobra.Command{
		Use:   "anomalies <id>",
		Short: "Tag an entry with its anomaly checks",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return NewEntryCommand(r.app).Anomalies(ctx, args[0])
		}),
	}

	entryCmd.AddCommand(
		createCmd,
		updateCmd,
		deleteCmd,
		showCmd,
		listCmd,
		exportCmd,
		transition("submit", "Submit a draft entry"),
		transition("approve", "Approve a submitted entry"),
		transition("reject", "Reject a submitted entry"),
		transition("reopen", "Return a rejected entry to draft"),
		anomaliesCmd,
	)
	return entryCmd
}

func (r *RootCommand) timesheetCommand() *cobra.Command {
	timesheetCmd := &cobra.Command{
		Use:   "timesheet",
		Short: "Check, submit and approve timesheets",
	}

	byID := func(use, short string, fn func(c *TimesheetCommand, ctx context.Context, id string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
				return fn(NewTimesheetCommand(r.app), ctx, args[0])
			}),
		}
	}

	forCmd := &cobra.Command{
		Use:   "for",
		Short: "Show the timesheet covering a day, opening it when needed",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			employee, _ := cmd.Flags().GetString("employee")
			date, _ := cmd.Flags().GetString("date")
			return NewTimesheetCommand(r.app).ForDate(ctx, employee, date)
		}),
	}
	forCmd.Flags().String("employee", "", "Employee ID")
	forCmd.Flags().String("date", "", "Day inside the period (default: today)")
	_ = forCmd.MarkFlagRequired("employee")

	transition := func(action, short, flag, usage string) *cobra.Command {
		c := &cobra.Command{
			Use:   action + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
				var arg string
				if flag != "" {
					arg, _ = cmd.Flags().GetString(flag)
				}
				return NewTimesheetCommand(r.app).Transition(ctx, action, args[0], arg)
			}),
		}
		if flag != "" {
			c.Flags().String(flag, "", usage)
		}
		return c
	}

	timesheetCmd.AddCommand(
		byID("show", "Show one timesheet", (*TimesheetCommand).Show),
		forCmd,
		byID("check", "Validate a timesheet and its entries", (*TimesheetCommand).Check),
		byID("recalc", "Recompute timesheet totals", (*TimesheetCommand).Recalc),
		byID("submit", "Submit a clean draft timesheet", (*TimesheetCommand).Submit),
		transition("approve", "Approve a submitted timesheet", "by", "Approver ID"),
		transition("reject", "Reject a submitted timesheet", "reason", "Why the timesheet is rejected"),
		transition("lock", "Lock an approved timesheet", "by", "User locking the timesheet"),
		transition("unlock", "Unlock a locked timesheet", "", ""),
		byID("delete", "Delete a timesheet and its entries", (*TimesheetCommand).Delete),
	)
	return timesheetCmd
}

func (r *RootCommand) presenceCommand() *cobra.Command {
	presenceCmd := &cobra.Command{
		Use:   "presence",
		Short: "Import and convert presence records",
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import presence records from a JSON file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open presence file: %w", err)
				}
				defer f.Close()
				in = f
			}
			return NewPresenceCommand(r.app).Import(ctx, in)
		}),
	}

	convertCmd := &cobra.Command{
		Use:   "convert <presence-id>",
		Short: "Create draft entries from a presence record",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return NewPresenceCommand(r.app).Convert(ctx, args[0])
		}),
	}

	presenceCmd.AddCommand(importCmd, convertCmd)
	return presenceCmd
}

func (r *RootCommand) dbCommand() *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	dbCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the schema version",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return NewDatabaseCommand(r.app).Status(ctx)
		}),
	})
	return dbCmd
}

// addEntryFlags registers the entry field flags.
func addEntryFlags(flags *pflag.FlagSet) {
	flags.String("employee", "", "Employee ID")
	flags.String("date", "", "Day of the entry (default: today)")
	flags.String("start", "", "Start time HH:MM")
	flags.String("end", "", "End time HH:MM")
	flags.Int("duration", 0, "Duration in minutes (default: end minus start)")
	flags.String("description", "", "What was done")
	flags.String("project", "", "Project ID")
	flags.String("activity", "", "Activity code ID")
	flags.String("timesheet", "", "Timesheet ID")
	flags.Bool("billable", false, "Mark the entry billable")
	flags.Float64("rate", 0, "Hourly rate")
	flags.StringSlice("tag", nil, "Tag (repeatable)")
}

// entryInputFromFlags keeps only the entry flags that were set.
func entryInputFromFlags(flags *pflag.FlagSet) EntryInput {
	var in EntryInput

	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}

	in.EmployeeID = str("employee")
	in.Date = str("date")
	in.Start = str("start")
	in.End = str("end")
	in.Description = str("description")
	in.ProjectID = str("project")
	in.ActivityCodeID = str("activity")
	in.TimesheetID = str("timesheet")

	if flags.Changed("duration") {
		v, _ := flags.GetInt("duration")
		in.Duration = &v
	}
	if flags.Changed("billable") {
		v, _ := flags.GetBool("billable")
		in.Billable = &v
	}
	if flags.Changed("rate") {
		v, _ := flags.GetFloat64("rate")
		in.HourlyRate = &v
	}
	if flags.Changed("tag") {
		in.Tags, _ = flags.GetStringSlice("tag")
	}
	return in
}

// addFilterFlags registers the entry search flags.
func addFilterFlags(flags *pflag.FlagSet) {
	flags.String("employee", "", "Employee ID")
	flags.String("from", "", "First day")
	flags.String("to", "", "Last day")
	flags.String("timesheet", "", "Timesheet ID")
	flags.String("status", "", "Entry status (draft, submitted, approved, rejected)")
	flags.String("contains", "", "Text the description contains")
	flags.Int("limit", 0, "Maximum number of entries")
	flags.Int("offset", 0, "Entries to skip")
}

func entryFilterFromFlags(flags *pflag.FlagSet) domain.EntryFilter {
	var f domain.EntryFilter
	var status string
	f.EmployeeID, _ = flags.GetString("employee")
	f.From, _ = flags.GetString("from")
	f.To, _ = flags.GetString("to")
	f.TimesheetID, _ = flags.GetString("timesheet")
	status, _ = flags.GetString("status")
	f.Status = domain.EntryStatus(status)
	f.DescriptionContains, _ = flags.GetString("contains")
	f.Limit, _ = flags.GetInt("limit")
	f.Offset, _ = flags.GetInt("offset")
	return f
}
