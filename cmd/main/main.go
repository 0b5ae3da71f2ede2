package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"portfolio-runner/src/bootstrap"
	"portfolio-runner/src/config"
	"portfolio-runner/src/helpers"
	"portfolio-runner/src/launcher"
	"portfolio-runner/src/logger"
	"portfolio-runner/src/models"
	"portfolio-runner/src/scaffold"
	"portfolio-runner/src/server"
	"portfolio-runner/src/storage"
	"portfolio-runner/src/utils"
	"portfolio-runner/src/watcher"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to runner config file")
	bootstrapOnly := flag.Bool("bootstrap-only", false, "prepare the environment and exit without launching")
	flag.Parse()

	// Load config from YAML file
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name)

	// 2. Setup Journal
	journalLogger := logger.NewLogger(conf.LogLevel, "Journal")
	journal, err := storage.NewSQLiteJournal(conf.MConfig, journalLogger)
	if err != nil {
		appLogger.Critical("Failed to init journal: %v", err)
	}
	if err := journal.Initialize(); err != nil {
		appLogger.Critical("Failed to open journal db: %v", err)
	}
	defer journal.Close()
	journal.CleanupOldEvents()

	// 3. Scaffold the app files (idempotent)
	sc := scaffold.NewScaffold(appLogger)

	appConfigPath := bootstrap.ResolvePath(conf.App.WorkDir, conf.App.ConfigPath)
	created, err := sc.EnsureAppConfig(appConfigPath)
	if err != nil {
		appLogger.Critical("Failed to materialize app config: %v", err)
	}
	if created {
		if err := journal.RecordEvent(models.EventScaffold, "created default "+conf.App.ConfigPath); err != nil {
			appLogger.Warning("Failed to record journal event: %v", err)
		}
	}

	templatesDir := bootstrap.ResolvePath(conf.App.WorkDir, conf.App.TemplatesDir)
	if err := sc.EnsureTemplatesDir(templatesDir); err != nil {
		appLogger.Critical("Failed to create templates directory: %v", err)
	}

	// 4. Bootstrap the Python environment
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boot := bootstrap.NewBootstrapper(conf.MConfig, appLogger, helpers.NewExecRunner(), journal)
	if err := boot.Prepare(ctx); err != nil {
		appLogger.Critical("Bootstrap failed: %v", err)
	}

	if *bootstrapOnly {
		appLogger.Info("Bootstrap complete, exiting (-bootstrap-only)")
		return
	}

	// 5. Setup control server and launcher
	ring := utils.NewLogRing(conf.App.LogBufferSize)
	srvLogger := logger.NewLogger(conf.LogLevel, "ControlServer")
	srv := server.NewControlServer(conf.MConfig, srvLogger, ring, journal)

	launchLogger := logger.NewLogger(conf.LogLevel, "Launcher")
	launch := launcher.NewLauncher(conf.MConfig, launchLogger, journal, srv, ring)
	srv.SetRestarter(launch)

	// 6. Start control server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Control server failed: %v", err)
		}
	}()

	// 7. Launch and supervise the dev web server
	wg := &sync.WaitGroup{}
	if err := launch.Run(ctx, wg); err != nil {
		appLogger.Critical("Failed to launch app: %v", err)
	}

	// 8. Optional restart-on-change watcher
	if conf.Watch.Enabled {
		watchLogger := logger.NewLogger(conf.LogLevel, "Watcher")
		fw, err := watcher.NewFileWatcher(conf.MConfig, watchLogger, launch)
		if err != nil {
			appLogger.Warning("Watcher unavailable: %v", err)
		} else if err := fw.Start(ctx, wg); err != nil {
			appLogger.Warning("Watcher failed to start: %v", err)
		}
	}

	// 9. Block until interrupted. The runner stays in the foreground while
	// the child runs; the original busy-wait loop is replaced by a signal
	// wait.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	appLogger.Info("Runner ready. Press Ctrl+C to stop.")
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
	wg.Wait()
	appLogger.Info("Shutdown complete.")
}
