// Command unitcore hosts the unit combat core. It reads commands from stdin,
// one per line, and writes a JSON response per command to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/OCAP2/unitcore/internal/api"
	"github.com/OCAP2/unitcore/internal/config"
	"github.com/OCAP2/unitcore/internal/database"
	"github.com/OCAP2/unitcore/internal/dispatcher"
	"github.com/OCAP2/unitcore/internal/geo"
	"github.com/OCAP2/unitcore/internal/influx"
	"github.com/OCAP2/unitcore/internal/logging"
	"github.com/OCAP2/unitcore/internal/monitor"
	intOtel "github.com/OCAP2/unitcore/internal/otel"
	"github.com/OCAP2/unitcore/internal/parser"
	"github.com/OCAP2/unitcore/internal/session"
	"github.com/OCAP2/unitcore/internal/storage"
	"github.com/OCAP2/unitcore/internal/targeting"
	"github.com/OCAP2/unitcore/internal/worker"
	"github.com/OCAP2/unitcore/internal/world"

	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.0.1"
	BuildDate               string = "unknown"

	ServiceName string = "unitcore"
)

const (
	monitorInterval = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()
)

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	flag.Parse()

	if err := run(*configDir); err != nil {
		fmt.Fprintf(os.Stderr, "unitcore: %v\n", err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logging.Options{File: os.Stderr, Level: "info"})
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := viper.GetString("logsDir")
	var logWriter io.Writer = os.Stderr
	logFile, logFilePath, err := logging.OpenLogFile(logsDir, ServiceName, SessionStartTime)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "dir", logsDir)
	} else {
		defer logFile.Close()
		logWriter = logFile
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled && logFile != nil {
		OTelProvider, err = intOtel.New(intOtel.FromSettings(otelCfg, CurrentExtensionVersion, logFile))
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "file", logFilePath, "endpoint", otelCfg.Endpoint)
		}
	}

	sessionCtx := session.NewContext()
	var w *world.World

	// Re-setup logging with file output, session context and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	logOpts := logging.Options{
		File:        logWriter,
		Level:       viper.GetString("logLevel"),
		Provider:    otelLogProvider,
		ServiceName: otelCfg.ServiceName,
		Context: logging.SessionContext(sessionCtx.Name, func() uint64 {
			if w == nil {
				return 0
			}
			return w.TickCount()
		}),
	}
	SlogManager.Setup(logOpts)
	Logger = SlogManager.Logger()
	Logger.Info("Starting unitcore", "version", CurrentExtensionVersion, "build", BuildDate, "log", logFilePath)

	// World
	w, err = newWorld()
	if err != nil {
		return err
	}

	// Storage
	storageCfg := config.GetStorageConfig()
	if storageCfg.Type == "sqlite" && storageCfg.SQLite.DumpPath != "" {
		if dumps, err := database.GetBackupDBPaths(filepath.Dir(storageCfg.SQLite.DumpPath)); err == nil && len(dumps) > 0 {
			Logger.Info("Found SQLite dumps from earlier runs", "count", len(dumps), "paths", dumps)
		}
	}
	dbManager := database.NewManager(logging.NewZerolog(logWriter, SlogManager.Level(), "database"))
	backend, err := storage.NewBackend(storageCfg, storage.Dependencies{
		Logger:    SlogManager.Component("storage"),
		DBManager: dbManager,
		Tag:       viper.GetString("defaultTag"),
	})
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	Logger.Info("Storage backend initialized", "type", viper.GetString("storage.type"))

	// Metrics
	influxManager := influx.NewManager(
		logging.NewZerolog(logWriter, SlogManager.Level(), "influx"),
		filepath.Join(logsDir, "influx_backup.log.gz"),
	)
	if err := influxManager.Connect(context.Background()); err != nil && !errors.Is(err, influx.ErrDisabled) {
		Logger.Warn("Influx unavailable", "error", err)
	}

	// Frontend
	var apiClient *api.Client
	if key := viper.GetString("api.apiKey"); key != "" {
		apiClient = api.New(viper.GetString("api.serverUrl"), key)
		if err := apiClient.Healthcheck(context.Background()); err != nil {
			Logger.Warn("Frontend healthcheck failed", "error", err)
		}
	}

	// Dispatcher and handlers
	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(SlogManager.Logger()))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	eventDispatcher.Register(":VERSION:", func(dispatcher.Event) (any, error) {
		return CurrentExtensionVersion, nil
	})
	eventDispatcher.Register(":COMMANDS:", func(dispatcher.Event) (any, error) {
		return eventDispatcher.Commands(), nil
	})

	workerManager, err := worker.NewManager(worker.Dependencies{
		Logger:           SlogManager.Component("worker"),
		World:            w,
		Parser:           parser.NewParser(SlogManager.Component("parser")),
		Session:          sessionCtx,
		Influx:           influxManager,
		API:              apiClient,
		Logs:             OTelProvider,
		ExtensionVersion: CurrentExtensionVersion,
		ExtensionBuild:   BuildDate,
	}, backend)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	workerManager.RegisterHandlers(eventDispatcher)
	Logger.Info("Worker handlers registered with dispatcher", "commands", len(eventDispatcher.Commands()))

	// Status monitor
	monitorService := monitor.NewService(monitor.Dependencies{
		Logger:    SlogManager.Component("monitor"),
		Session:   sessionCtx,
		World:     w,
		Backend:   backend,
		Influx:    influxManager,
		StatusDir: logsDir,
		Interval:  monitorInterval,
	})
	monitorService.Start()

	stopTicker := startTicker(eventDispatcher, config.GetWorldConfig().TickInterval)

	serveErr := Serve(os.Stdin, os.Stdout, eventDispatcher)

	// Shutdown
	stopTicker()
	monitorService.Stop()
	if sessionCtx.Active() {
		if _, err := eventDispatcher.Dispatch(dispatcher.Event{Command: ":END:SESSION:"}); err != nil {
			Logger.Warn("Failed to end session on shutdown", "error", err)
		}
	}
	eventDispatcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	errs := []error{serveErr, backend.Close(), influxManager.Close(), SlogManager.Flush(ctx)}
	if OTelProvider != nil {
		errs = append(errs, OTelProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func newWorld() (*world.World, error) {
	worldCfg := config.GetWorldConfig()
	project, err := geo.ProjectionFor(worldCfg.Coordinates)
	if err != nil {
		return nil, err
	}
	factions, err := config.GetFactions()
	if err != nil {
		return nil, err
	}
	targetingCfg := config.GetTargetingConfig()

	Logger.Info("World configured",
		"coordinates", worldCfg.Coordinates,
		"factions", len(factions),
		"rangeSqr", targetingCfg.RangeSqr,
	)
	return world.New(world.Config{
		Targeting:   targeting.Settings{RangeSqr: targetingCfg.RangeSqr},
		HistorySize: targetingCfg.HistorySize,
		Factions:    factions,
		Project:     project,
	}), nil
}

// startTicker advances the world every interval. A zero interval leaves the
// world input-driven only.
func startTicker(d *dispatcher.Dispatcher, interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	delta := strconv.FormatInt(interval.Milliseconds(), 10)
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if _, err := d.Dispatch(dispatcher.Event{Command: ":TICK:", Args: []string{delta}}); err != nil {
					Logger.Error("World tick failed", "error", err)
				}
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}
