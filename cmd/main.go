package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lidar_maintenance/internal/artifact"
	"lidar_maintenance/internal/config"
	"lidar_maintenance/internal/handlers"
	"lidar_maintenance/internal/logger"
	"lidar_maintenance/internal/notify"
	"lidar_maintenance/internal/prompt"
	"lidar_maintenance/internal/repository"
	"lidar_maintenance/internal/repository/db"
	"lidar_maintenance/internal/server"
	"lidar_maintenance/internal/service"
)

func main() {
	var (
		serve      = flag.Bool("serve", false, "run the HTTP API instead of processing one report")
		configDir  = flag.String("config-dir", "configs", "directory holding the config file")
		configName = flag.String("config-name", "config", "config file name without extension")
		reportPath = flag.String("report", "", "report workbook to process (defaults to artifacts.report_path)")
	)
	flag.Parse()

	cfg, err := config.Load(*configDir, *configName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error reading config:", err)
		os.Exit(1)
	}

	log := logger.Get(cfg.LogLevel)
	defer log.Close()

	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(service.Deps{
		Artifacts: cfg.Artifacts,
		Auth:      cfg.Auth,
		Master:    artifact.NewMaster(cfg.Artifacts.MasterPath, cfg.Artifacts.MasterSheet),
		History:   artifact.NewHistory(cfg.Artifacts.HistoryDir, cfg.Artifacts.HistoryTemplate, cfg.Artifacts.TemplateSheet),
		Mailer:    notify.NewGatewayClient(cfg.Mail.GatewayURL, cfg.Mail.APIKey),
		CC:        cfg.Mail.CC,
		Repos:     repos,
		Log:       log,
	})

	if *serve {
		runServer(cfg, services, log)
		return
	}
	runOnce(cfg, services, log, *reportPath)
}

// runOnce processes a single report with console prompts, the way the
// workflow is driven after a maintenance visit.
func runOnce(cfg *config.Config, services *service.Service, log *logger.Logger, reportPath string) {
	if reportPath == "" {
		reportPath = cfg.Artifacts.ReportPath
	}

	summary, err := services.Processor.Process(context.Background(), service.ProcessRequest{
		ReportPath: reportPath,
		Confirmer:  prompt.NewConsole(os.Stdin, os.Stdout),
	})
	if err != nil {
		log.Fatalw("report processing failed", "report", reportPath, "err", err)
	}

	log.Infow("report processed",
		"run_id", summary.RunID,
		"device", summary.DeviceID,
		"location", summary.Location,
		"visit", summary.VisitDate.Format("02-01-2006"),
		"incidents", len(summary.Incidents),
		"errors", len(summary.Errors),
	)
}

func runServer(cfg *config.Config, services *service.Service, log *logger.Logger) {
	apiHandler := handlers.NewHandler(services, log)

	srv := &server.Server{}
	go func() {
		if err := srv.Run(cfg.Port, apiHandler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
	log.Infow("server listening", "port", cfg.Port)

	waitForShutdown(srv, log)
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
