package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"system-step/api/pkg/config"
	"system-step/api/pkg/db"
	"system-step/api/services/flowchart"
	"system-step/api/services/system"
	"system-step/api/services/systemdb"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "system-step",
		Short:        "Serve and inspect the System/Configuration flowchart step",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("SYSTEM_STEP_CONFIG"), "path to a TOML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context(), configPath)
			},
		},
		newDescribeCmd(),
		newLayoutCmd(),
	)
	return root
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		return err
	}

	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	slog.SetDefault(slog.New(logHandler))

	var (
		repo    flowchart.FlowchartRepo
		systems systemdb.Database
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, db.Config{
			URI:             cfg.DatabaseURL,
			MaxConns:        cfg.MaxConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			return err
		}
		defer pool.Close()

		// Initialize database schema and seed data
		if err := flowchart.InitDB(ctx, pool); err != nil {
			slog.Error("Failed to initialize database", "error", err)
			return err
		}
		repo = flowchart.NewRepository(pool)

		if cfg.SystemBackend == config.BackendPostgres {
			pg := systemdb.NewPostgres(pool)
			if err := pg.InitSchema(ctx); err != nil {
				slog.Error("Failed to initialize system database", "error", err)
				return err
			}
			systems = pg
		}
	} else {
		slog.Info("DATABASE_URL is not set, keeping flowcharts in memory")
		repo = flowchart.NewMemoryRepository(flowchart.SampleFlowchart())
	}
	if systems == nil {
		systems = systemdb.NewMemory()
	}

	registry := flowchart.NewRegistry()
	system.Register(registry)

	// setup router
	mainRouter := mux.NewRouter()

	apiRouter := mainRouter.PathPrefix("/api/v1").Subrouter()

	flowchart.NewService(repo, registry, systems).LoadRoutes(apiRouter)
	system.NewHandler(systems).LoadRoutes(apiRouter)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)(mainRouter)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: corsHandler,
	}

	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "addr", cfg.ListenAddr, "systems", cfg.SystemBackend)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		slog.Error("Server error", "error", err)
		return err

	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Could not stop server gracefully", "error", err)
			srv.Close()
		}
	}
	return nil
}
