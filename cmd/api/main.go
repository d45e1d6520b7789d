package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cyberguard/backend/internal/api/routes"
	"github.com/cyberguard/backend/internal/broadcast"
	"github.com/cyberguard/backend/internal/config"
	"github.com/cyberguard/backend/internal/database"
	"github.com/cyberguard/backend/internal/inspect"
	"github.com/cyberguard/backend/internal/logger"
	"github.com/cyberguard/backend/internal/server"
	"github.com/cyberguard/backend/internal/services"
	"github.com/cyberguard/backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Log to both stdout and a rotated file next to the database.
	logDir := filepath.Join(filepath.Dir(cfg.DatabasePath), "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create log directory: %v\n", err)
		os.Exit(1)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "cyberguard.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	defer rotator.Close()
	logger.Init(cfg.IsDevelopment(), io.MultiWriter(os.Stdout, rotator))
	log := logger.Log()

	// Handle CLI commands
	if len(os.Args) > 1 && os.Args[1] == "issue-token" {
		if len(os.Args) < 3 || len(os.Args) > 4 {
			log.Fatalf("Usage: %s issue-token <subject> [ttl]", os.Args[0])
		}
		ttl := 30 * 24 * time.Hour
		if len(os.Args) == 4 {
			if ttl, err = time.ParseDuration(os.Args[3]); err != nil || ttl <= 0 {
				log.Fatalf("invalid ttl %q", os.Args[3])
			}
		}
		token, err := services.NewTokenService(cfg.APISecret).Issue(os.Args[2], ttl)
		if err != nil {
			log.Fatalf("issue token: %v (is CYBERGUARD_API_SECRET set?)", err)
		}
		fmt.Println(token)
		return
	}

	log.Infof("starting %s backend on version %s", version.Name, version.Full())

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	deps, err := routes.NewDependencies(db, cfg)
	if err != nil {
		log.Fatalf("build dependencies: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Inspection.RulesFile != "" {
		reloader, err := inspect.NewReloader(deps.Classifier, cfg.Inspection.RulesFile)
		if err != nil {
			log.WithError(err).Warn("rule hot reload disabled")
		} else {
			go reloader.Run(ctx)
		}
	}

	startObservers(ctx, cfg, deps)

	srv := server.New(deps, cfg)
	log.Infof("starting %s backend on :%s", version.Name, cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Info("server stopped")
}

// startObservers attaches the optional feed consumers. An unavailable
// backend is logged and skipped; it never prevents the server from serving.
func startObservers(ctx context.Context, cfg config.Config, deps *routes.Dependencies) {
	log := logger.Log()

	if cfg.Stream.RedisAddr != "" {
		client, err := broadcast.NewRedisClient(ctx, cfg.Stream.RedisAddr)
		if err != nil {
			log.WithError(err).Warn("redis sink disabled")
		} else {
			go func() {
				defer client.Close()
				broadcast.NewRedisSink(client, cfg.Stream.RedisChannel).Run(ctx, deps.Hub)
			}()
			log.WithField("channel", cfg.Stream.RedisChannel).Info("redis sink enabled")
		}
	}

	if len(cfg.Stream.KafkaBrokers) > 0 {
		writer := broadcast.NewKafkaWriter(cfg.Stream.KafkaBrokers, cfg.Stream.KafkaTopic)
		go broadcast.NewKafkaSink(writer).Run(ctx, deps.Hub)
		log.WithField("topic", cfg.Stream.KafkaTopic).Info("kafka sink enabled")
	}

	alerts := services.NewAlertService(cfg.Alerts.URLs, cfg.Alerts.MinSeverity)
	if !alerts.Enabled() {
		return
	}
	go alerts.Run(ctx, deps.Hub)
	log.WithField("min_severity", cfg.Alerts.MinSeverity).Info("alerts enabled")

	if cfg.Alerts.DigestSchedule != "" {
		digest, err := services.NewDigestService(deps.Audit, alerts, cfg.Alerts.DigestSchedule, 24*time.Hour)
		if err != nil {
			log.WithError(err).Warn("digest disabled")
			return
		}
		digest.Start()
		go func() {
			<-ctx.Done()
			digest.Stop()
		}()
	}
}
