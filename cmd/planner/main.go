package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/appointment-planner/internal/application"
	"github.com/example/appointment-planner/internal/config"
	httptransport "github.com/example/appointment-planner/internal/http"
	"github.com/example/appointment-planner/internal/logging"
	"github.com/example/appointment-planner/internal/persistence/sqlite"
	"github.com/example/appointment-planner/internal/persistence/sqlite/migration"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalOptions struct {
	dsn       string
	logLevel  string
	logFormat string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "planner",
		Short: "Timezone-aware appointment planner",
		Long: `planner stores appointments with the wall-clock time they were entered in
and the UTC instants they resolve to, infers time zones from imported flight
itineraries, and serves everything over a JSON API.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "SQLite database path (overrides PLANNER_SQLITE_DSN)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides PLANNER_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: json or text (overrides PLANNER_LOG_FORMAT)")

	root.AddCommand(
		newServeCommand(opts),
		newImportTripsCommand(opts),
		newExportCommand(opts),
		newResolveCommand(),
		newHashPasswordCommand(),
	)
	return root
}

// loadRuntime reads the environment, applies flag overrides, and installs
// the process logger.
func loadRuntime(cmd *cobra.Command, opts *globalOptions) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if opts.dsn != "" {
		cfg.SQLiteDSN = opts.dsn
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.LogFormat = opts.logFormat
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// planner wires storage and services for one process.
type planner struct {
	storage      *sqlite.Storage
	categories   *application.CategoryService
	appointments *application.AppointmentService
	preferences  *application.PreferenceService
	pax          *application.PaxService
	time         *application.TimeService
	transfer     *application.TransferService
	auth         *application.Authenticator
	now          func() time.Time
}

func openPlanner(ctx context.Context, cfg config.Config, logger *slog.Logger) (*planner, error) {
	storage, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return newPlanner(storage, cfg, time.Now, logger), nil
}

func newPlanner(storage *sqlite.Storage, cfg config.Config, now func() time.Time, logger *slog.Logger) *planner {
	zones := application.ZoneSettings{
		DefaultZone:    cfg.DefaultTimeZone,
		DeviceZone:     cfg.DeviceTimeZone,
		NowStepMinutes: cfg.NowStepMinutes,
	}

	categoryRepo := newCategoryRepositoryAdapter(storage)
	appointmentRepo := newAppointmentRepositoryAdapter(storage)
	paxRepo := newPaxRepositoryAdapter(storage)

	categories := application.NewCategoryServiceWithLogger(categoryRepo, newID("cat_"), now, logger)
	preferences := application.NewPreferenceServiceWithLogger(storage, logger)
	appointments := application.NewAppointmentServiceWithLogger(appointmentRepo, categories, preferences, paxRepo, zones, newID("appt_"), now, logger)
	pax := application.NewPaxServiceWithLogger(paxRepo, appointments, categories, zones, newID("flt_"), logger)
	transfer := application.NewTransferServiceWithLogger(newSnapshotStoreAdapter(storage), zones, now, logger)
	transfer.OnImport(appointments.ResetWarnings)

	return &planner{
		storage:      storage,
		categories:   categories,
		appointments: appointments,
		preferences:  preferences,
		pax:          pax,
		time:         application.NewTimeService(preferences, paxRepo, zones, now),
		transfer:     transfer,
		auth:         application.NewAuthenticatorWithLogger(cfg.BasicAuthUser, cfg.BasicAuthHash, nil, logger),
		now:          now,
	}
}

func (p *planner) Close() error {
	return p.storage.Close()
}

func (p *planner) handler(logger *slog.Logger) http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Categories:   httptransport.NewCategoryHandler(p.categories, logger),
		Appointments: httptransport.NewAppointmentHandler(p.appointments, p.categories, logger),
		Calendar:     httptransport.NewCalendarHandler(p.appointments, p.categories, p.now, logger),
		Preferences:  httptransport.NewPreferenceHandler(p.preferences, logger),
		Pax:          httptransport.NewPaxHandler(p.pax, logger),
		Time:         httptransport.NewTimeHandler(p.time, logger),
		Transfer:     httptransport.NewTransferHandler(p.transfer, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireBasicAuth(p.auth, logger),
		},
	})
}

func newID(prefix string) func() string {
	return func() string {
		return prefix + uuid.NewString()
	}
}

func newServeCommand(opts *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.HTTPPort = port
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides PLANNER_HTTP_PORT)")
	return cmd
}

func serve(parent context.Context, cfg config.Config, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := openPlanner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           p.handler(logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("planner API listening",
		"addr", server.Addr,
		"device_time_zone", cfg.DeviceTimeZone,
		"default_time_zone", cfg.DefaultTimeZone,
		"basic_auth", cfg.AuthEnabled(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
