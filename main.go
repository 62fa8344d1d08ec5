package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/danielhkuo/cleanplate/classifier"
	"github.com/danielhkuo/cleanplate/cliparse"
	"github.com/danielhkuo/cleanplate/db"
	"github.com/danielhkuo/cleanplate/live"
	"github.com/danielhkuo/cleanplate/logger"
	"github.com/danielhkuo/cleanplate/metrics"
	"github.com/danielhkuo/cleanplate/middleware"
	"github.com/danielhkuo/cleanplate/reveal"
	"github.com/danielhkuo/cleanplate/router"
	"github.com/danielhkuo/cleanplate/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString("Error parsing flags: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Environment); err != nil {
		os.Stderr.WriteString("Error initializing logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()
	log := zap.S()

	metrics.Register()

	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("database connection failed", "error", err)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		log.Fatalw("schema creation failed", "error", err)
	}
	log.Info("Database schema ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A crash mid-reveal leaves rooms locked
	snapshots := store.New(dbConn)
	if n, err := snapshots.ResetAnalyzing(ctx); err != nil {
		log.Fatalw("failed to reset analyzing rooms", "error", err)
	} else if n > 0 {
		log.Warnw("released rooms left analyzing by a previous run", "rooms", n)
	}

	base, err := classifier.New(cfg)
	if err != nil {
		log.Fatalw("classifier setup failed", "error", err)
	}
	cls := classifier.NewLimited(classifier.NewInstrumented(base), cfg.CallPause, cfg.MaxInflightCalls)

	hub := live.NewHub()
	go hub.Run(ctx)

	orchestrator := reveal.NewOrchestrator(snapshots, cls, cfg, hub)

	server := http.Server{
		Handler:           middleware.CORS(router.NewRouter(dbConn, cfg, orchestrator, hub)),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warnw("server shutdown", "error", err)
		}
	}()

	log.Infow("Listening",
		"port", cfg.Port,
		"database", cfg.DatabaseType,
		"classifier", cls.SourceName(),
	)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Errorw("Server closed", "error", err)
	} else {
		log.Infow("Server closed")
	}

	// Running reveals are cancelled and release their rooms before exit
	orchestrator.Close()
}
