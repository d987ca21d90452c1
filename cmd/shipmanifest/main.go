// Command shipmanifest is built as a C shared library the game host loads.
// Everything is set up in init; the host then drives the extension through
// the exported entry points in pkg/hostinterface.
package main

import "C" // required for -buildmode=c-shared

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/shipmanifest/extension/internal/aggregate"
	"github.com/shipmanifest/extension/internal/capability"
	"github.com/shipmanifest/extension/internal/config"
	"github.com/shipmanifest/extension/internal/dispatcher"
	"github.com/shipmanifest/extension/internal/handlers"
	"github.com/shipmanifest/extension/internal/influx"
	"github.com/shipmanifest/extension/internal/logging"
	"github.com/shipmanifest/extension/internal/monitor"
	intOtel "github.com/shipmanifest/extension/internal/otel"
	"github.com/shipmanifest/extension/internal/roster"
	"github.com/shipmanifest/extension/internal/session"
	"github.com/shipmanifest/extension/internal/storage"
	"github.com/shipmanifest/extension/pkg/hostinterface"
)

// module defs - set at build time via ldflags
var (
	CurrentExtensionVersion = "0.0.1"
	BuildDate               = "unknown"

	ExtensionName = "shipmanifest"
)

var (
	// ModuleFolder holds the shared library, the config file and status.json.
	ModuleFolder string

	LogFilePath string
	LogFile     *os.File

	SessionStartTime = time.Now()

	SlogManager  *logging.SlogManager
	Logger       *slog.Logger
	OTelProvider *intOtel.Provider

	sess            *session.Session
	rosterStore     storage.Backend
	storageType     string
	influxManager   *influx.Manager
	monitorService  *monitor.Service
	eventDispatcher *dispatcher.Dispatcher
)

func init() {
	ModuleFolder = hostinterface.ModuleDir()

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(ModuleFolder); err != nil {
		config.SetDefaults()
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	setupLogging()

	if err := setupSession(); err != nil {
		Logger.Error("Failed to set up session", "error", err)
		panic(err)
	}

	if err := setupHostInterface(); err != nil {
		Logger.Error("Failed to set up host interface", "error", err)
		panic(err)
	}
	Logger.Info("Extension ready", "version", CurrentExtensionVersion, "build", BuildDate)
}

func setupLogging() {
	logsDir := viper.GetString("logsDir")
	if !filepath.IsAbs(logsDir) {
		logsDir = filepath.Join(ModuleFolder, logsDir)
	}
	LogFilePath = logging.LogFilePath(logsDir, ExtensionName, SessionStartTime)

	var err error
	LogFile, err = logging.OpenLogFile(LogFilePath)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
		LogFile = nil
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled && LogFile != nil {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			BatchTimeout:   otelCfg.BatchTimeout,
			MetricInterval: otelCfg.MetricInterval,
			LogWriter:      LogFile,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
			OTelProvider = nil
		} else {
			OTelProvider.InstallGlobal()
			Logger.Info("OTel provider initialized", "file", LogFilePath, "endpoint", otelCfg.Endpoint)
		}
	}

	diagCfg := config.GetDiagnosticsConfig()
	SlogManager.SetDiagnostics(logging.NewDiagnosticLog(diagCfg.MaxEntries), diagCfg.Level)

	applyLogging()
	Logger.Info("Logging to file", "path", LogFilePath)
}

// applyLogging rebuilds the slog handlers from the current log file, OTel
// provider, diagnostics and context.
func applyLogging() {
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	if LogFile != nil {
		SlogManager.Setup(LogFile, viper.GetString("logLevel"), otelLogProvider)
	} else {
		SlogManager.Setup(nil, viper.GetString("logLevel"), otelLogProvider)
	}
	Logger = SlogManager.Logger()
}

func infraLogger() zerolog.Logger {
	if LogFile != nil {
		return logging.NewZerolog(LogFile, viper.GetString("logLevel"))
	}
	return logging.NewZerolog(os.Stderr, viper.GetString("logLevel"))
}

func setupSession() error {
	SlogManager.Context = func() []slog.Attr {
		if sess == nil {
			return nil
		}
		return sess.LogContext()
	}
	applyLogging()

	storageCfg := config.GetStorageConfig()
	if storageCfg.Type == "sqlite" && !filepath.IsAbs(storageCfg.SQLite.Path) {
		storageCfg.SQLite.Path = filepath.Join(ModuleFolder, storageCfg.SQLite.Path)
	}

	var err error
	rosterStore, err = storage.NewBackend(storageCfg, infraLogger(), Logger)
	if err != nil {
		Logger.Error("Failed to create roster store, keeping roster in memory", "error", err)
		storageCfg.Type = "memory"
		rosterStore, err = storage.NewBackend(storageCfg, infraLogger(), Logger)
		if err != nil {
			return err
		}
	}
	if err := rosterStore.Init(); err != nil {
		return fmt.Errorf("init roster store: %w", err)
	}

	crew := roster.New(rosterStore, Logger)
	if err := crew.Load(); err != nil {
		return err
	}

	registry := capability.NewDefault(func(name capability.Name) bool {
		return config.CapabilityEnabled(string(name))
	}, Logger)

	engine, err := aggregate.New(registry, Logger)
	if err != nil {
		return fmt.Errorf("create aggregation engine: %w", err)
	}

	deps := session.Dependencies{
		Roster:      crew,
		Registry:    registry,
		Engine:      engine,
		Diagnostics: SlogManager.Diagnostics(),
		Logger:      Logger,
	}

	influxCfg := config.GetInfluxConfig()
	if influxCfg.Enabled {
		influxManager = influx.NewManager(infraLogger(), influxCfg,
			filepath.Join(ModuleFolder, "resource_totals.lp.gz"))
		if err := influxManager.Connect(context.Background()); err != nil {
			Logger.Error("Failed to connect resource telemetry", "error", err)
		} else {
			deps.Observer = influxManager
		}
	}

	policy := config.GetRosterPolicy()
	sess, err = session.New(deps, session.Settings{
		Policy: roster.Policy{
			AllowRename:           policy.EnableRename,
			AllowProfessionChange: policy.EnableChangeProfession,
		},
		RealismMode: policy.RealismMode,
	})
	if err != nil {
		return err
	}

	storageType = storageCfg.Type
	return nil
}

func setupHostInterface() error {
	hostinterface.SetVersion(CurrentExtensionVersion)

	d, err := dispatcher.New(SlogManager.DispatcherLogger())
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	registerLifecycleHandlers(d)
	handlers.NewService(handlers.Dependencies{
		Session:    sess,
		LogManager: SlogManager,
	}).Register(d)
	monitorService = monitor.NewService(monitor.Dependencies{
		Session:    sess,
		Commands:   d,
		LogManager: SlogManager,
		Version:    CurrentExtensionVersion,
		Storage:    storageType,
		Dir:        ModuleFolder,
	})
	monitorService.Register(d)

	eventDispatcher = d
	hostinterface.SetDispatcher(d)
	Logger.Info("Dispatcher initialized", "commands", d.Commands())
	return nil
}

func registerLifecycleHandlers(d *dispatcher.Dispatcher) {
	d.Register(":VERSION:", func(dispatcher.Event) (any, error) {
		return []string{CurrentExtensionVersion, BuildDate}, nil
	})

	d.Register(":SHUTDOWN:", func(dispatcher.Event) (any, error) {
		return "ok", shutdown()
	}, dispatcher.Logged(), dispatcher.Recovered())
}

func shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if influxManager != nil {
		if err := influxManager.Close(); err != nil {
			Logger.Error("Failed to close resource telemetry", "error", err)
		}
	}
	if rosterStore != nil {
		if err := rosterStore.Close(); err != nil {
			Logger.Error("Failed to close roster store", "error", err)
		}
	}
	if err := SlogManager.Flush(ctx); err != nil {
		Logger.Error("Failed to flush logs", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

func main() {}
