package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cradlewars/arena/internal/api"
	"github.com/cradlewars/arena/internal/config"
	"github.com/cradlewars/arena/internal/dispatcher"
	"github.com/cradlewars/arena/internal/influx"
	"github.com/cradlewars/arena/internal/logging"
	"github.com/cradlewars/arena/internal/match"
	"github.com/cradlewars/arena/internal/monitor"
	intOtel "github.com/cradlewars/arena/internal/otel"
	"github.com/cradlewars/arena/internal/storage"
	"github.com/cradlewars/arena/internal/worker"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentServerVersion string = "0.1.0"
	BuildDate            string = "unknown"

	ServerName string = "arena_server"
)

// global variables
var (
	SessionStartTime time.Time = time.Now()

	LogFilePath string
	LogFile     *os.File

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// DBLogger is the zerolog logger handed to gorm and influx
	DBLogger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// runningMatches is read by the log context provider, which must not
	// take match locks.
	runningMatches atomic.Int32

	// Services
	eventDispatcher *dispatcher.Dispatcher
	matchManager    *match.Manager
	workerManager   *worker.Manager
	monitorService  *monitor.Service
	influxManager   *influx.Manager

	// Storage backend
	storageBackend storage.Backend
	storageType    string
)

type options struct {
	configDir   string
	logLevel    string
	storageType string
	matches     int
	botsPerTeam int
	seed        int64
	maxTicks    uint64
}

func main() {
	cmd, opts, flags, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cmd == "version" {
		fmt.Printf("%s %s (built %s)\n", ServerName, CurrentServerVersion, BuildDate)
		return
	}

	setupLogging(opts)
	defer shutdownLogging()

	srv := config.GetServerConfig()
	if flags.Changed("matches") {
		srv.Matches = opts.matches
	}
	if flags.Changed("bots") {
		srv.BotsPerTeam = opts.botsPerTeam
	}
	if flags.Changed("seed") {
		srv.Seed = opts.seed
	}

	storageCfg := config.GetStorageConfig()
	if opts.storageType != "" {
		storageCfg.Type = opts.storageType
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		err = serve(ctx, srv, storageCfg)
	case "simulate":
		err = simulate(ctx, srv, storageCfg, opts.maxTicks)
	}
	if err != nil {
		Logger.Error("Exiting with error", "command", cmd, "error", err)
		shutdownLogging()
		os.Exit(1)
	}
}

func parseArgs(args []string) (string, options, *pflag.FlagSet, error) {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = strings.ToLower(args[0])
		args = args[1:]
	}
	switch cmd {
	case "serve", "simulate", "version":
	default:
		return "", options{}, nil, fmt.Errorf("unknown command %q, expected serve, simulate or version", cmd)
	}

	var opts options
	flags := pflag.NewFlagSet(ServerName+" "+cmd, pflag.ContinueOnError)
	flags.StringVarP(&opts.configDir, "config", "c", ".", "directory containing "+config.FileName)
	flags.StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	flags.StringVar(&opts.storageType, "storage", "", "override the storage backend (memory, sqlite, postgres, websocket)")
	flags.IntVar(&opts.matches, "matches", 1, "bot matches to run concurrently")
	flags.IntVar(&opts.botsPerTeam, "bots", 3, "bot heroes per team")
	flags.Int64Var(&opts.seed, "seed", 0, "match seed, 0 picks one per match")
	flags.Uint64Var(&opts.maxTicks, "max-ticks", 72_000, "simulate: stop after this many ticks, 0 runs until a cradle falls")
	if err := flags.Parse(args); err != nil {
		return "", options{}, nil, err
	}
	return cmd, opts, flags, nil
}

// setupLogging loads the config and builds the slog and zerolog loggers.
// Logging goes to stdout until the log file is open.
func setupLogging(opts options) {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Outputs{}, "info")
	Logger = SlogManager.Logger()

	if err := config.Load(opts.configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}
	if opts.logLevel != "" {
		viper.Set("logLevel", opts.logLevel)
	}

	var err error
	LogFile, LogFilePath, err = logging.OpenLogFile(config.GetString("logsDir"), ServerName, SessionStartTime)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
		LogFile = nil
	}
	var file io.Writer
	if LogFile != nil {
		file = LogFile
	}

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: CurrentServerVersion,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      file,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
		}
	}

	level := config.GetString("logLevel")
	var extra []slog.Handler
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGELFWriter(gl.Address)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err, "address", gl.Address)
		} else {
			extra = append(extra, logging.NewGELFHandler(w, SlogManager.Level(), ServerName))
		}
	}

	SlogManager.SetContextProvider(func() []slog.Attr {
		return []slog.Attr{
			slog.Int("runningMatches", int(runningMatches.Load())),
			slog.String("storage", storageType),
			slog.Bool("statusMonitorActive", monitorService != nil && monitorService.IsRunning()),
		}
	})

	out := logging.Outputs{File: file, Extra: extra}
	if OTelProvider != nil {
		out.OTel = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(out, level)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath, "version", CurrentServerVersion)

	DBLogger = newDBLogger(level, LogFile)
}

func newDBLogger(level string, file *os.File) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	// console format without colors to file, with colors to stdout
	out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if file != nil {
		out = zerolog.ConsoleWriter{Out: file, TimeFormat: time.RFC3339, NoColor: true}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Str("component", "db").Logger()
}

func shutdownLogging() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush logs: %v\n", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shut down OTel: %v\n", err)
		}
		OTelProvider = nil
	}
	if LogFile != nil {
		_ = LogFile.Close()
		LogFile = nil
	}
}

// initServices builds the dispatcher, the match manager and the post-tick
// pipeline. The monitor is only started for serve.
func initServices(ctx context.Context, srv config.ServerConfig, storageCfg config.StorageConfig, withMonitor bool) error {
	var err error
	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	matchManager = match.NewManager(match.Dependencies{
		Dispatcher: eventDispatcher,
		Logger:     Logger,
	})

	influxCfg := config.GetInfluxConfig()
	influxManager = influx.NewManager(influxCfg, DBLogger,
		filepath.Join(config.GetString("logsDir"), "influx_backup.log.gzip"))
	if err := influxManager.Connect(ctx); err != nil && !errors.Is(err, influx.ErrDisabled) {
		Logger.Warn("InfluxDB unavailable, tick metrics disabled", "error", err)
	}

	storageType = storageCfg.Type
	storageBackend, err = createStorageBackend(storageCfg)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := storageBackend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}

	deps := worker.Dependencies{
		Backend:      storageBackend,
		Logger:       Logger,
		Matches:      matchManager,
		PipelineSize: srv.SnapshotBuffer,
	}
	if influxCfg.Enabled {
		deps.Influx = influxManager
	}
	if apiCfg := config.GetAPIConfig(); apiCfg.Upload {
		client := api.New(apiCfg.ServerURL, apiCfg.APIKey)
		if err := client.Healthcheck(ctx); err != nil {
			Logger.Warn("Results API healthcheck failed, uploads may fail", "url", apiCfg.ServerURL, "error", err)
		}
		deps.Uploader = client
	}
	workerManager = worker.NewManager(deps)

	Logger.Debug("Registering worker handlers with dispatcher")
	workerManager.RegisterHandlers(eventDispatcher)
	workerManager.Start()
	Logger.Info("Worker handlers registered with dispatcher", "storage", storageType)

	if withMonitor {
		monDeps := monitor.Dependencies{
			Logger:     Logger,
			Matches:    matchManager,
			Storage:    workerManager,
			ServerName: ServerName,
			StatusDir:  config.GetString("logsDir"),
			Interval:   srv.MonitorInterval,
		}
		if influxCfg.Enabled {
			monDeps.Influx = influxManager
		}
		monitorService = monitor.NewService(monDeps)
		if err := monitorService.Start(); err != nil {
			Logger.Warn("Failed to start status monitor", "error", err)
		}
	}
	return nil
}

// stopServices stops the matches first so the pipeline sees every end
// notification, then drains the pipeline into storage.
func stopServices() {
	if matchManager != nil {
		matchManager.Shutdown()
	}
	if eventDispatcher != nil {
		eventDispatcher.Close()
	}
	if monitorService != nil {
		monitorService.Stop()
	}
	if workerManager != nil {
		workerManager.Stop()
	}
	if storageBackend != nil {
		if err := storageBackend.Close(); err != nil {
			Logger.Error("Failed to close storage backend", "error", err)
		}
	}
	if influxManager != nil {
		if err := influxManager.Close(); err != nil {
			Logger.Error("Failed to close InfluxDB client", "error", err)
		}
	}
	Logger.Info("Services stopped")
}
