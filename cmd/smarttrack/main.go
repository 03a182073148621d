package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smarttrack/internal/config"
	"smarttrack/internal/events"
	"smarttrack/internal/http/handlers"
	applog "smarttrack/internal/log"
	"smarttrack/internal/repos"
)

func main() {
	if err := run(); err != nil {
		applog.L().Error("server.exit", "err", err)
		os.Exit(1)
	}
}

// run owns every resource so its deferred closes happen before main exits.
func run() error {
	cfg := config.Load()

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			applog.L().Warn("log.file.open.fail", "file", cfg.LogFile, "err", err)
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	logger := applog.Setup(out, applog.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config.loaded", "config", cfg.Redacted())

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SeedDemo {
		if err := repos.SeedDemo(ctx, db); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	// Sale events are best-effort; a broker that is down at boot disables them.
	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			logger.Warn("events.amqp.unavailable", "err", err)
		} else {
			pub = p
		}
	}
	defer pub.Close()

	deps := handlers.NewDeps(db, pub, time.Now)
	app := handlers.NewApp(deps, cfg)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("server.shutdown.fail", "err", err)
		}
	}()

	logger.Info("server.start", "port", cfg.Port, "driver", cfg.DBDriver)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("server.stopped")
	return nil
}
