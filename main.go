package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/DedS3t/monopoly-engine/app/controllers"
	"github.com/DedS3t/monopoly-engine/pkg/routes"
	"github.com/DedS3t/monopoly-engine/platform/cache"
	"github.com/DedS3t/monopoly-engine/platform/config"
	"github.com/DedS3t/monopoly-engine/platform/database"
	"github.com/DedS3t/monopoly-engine/platform/logging"
	"github.com/DedS3t/monopoly-engine/platform/queries"
	socket "github.com/DedS3t/monopoly-engine/platform/sockets"
	"github.com/DedS3t/monopoly-engine/platform/table"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed loading config")
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.WithError(err).Fatal("Failed configuring logging")
	}
	if err := run(cfg); err != nil {
		logging.For("main").WithError(err).Fatal("Exiting")
	}
}

// run serves until shutdown. Its deferred cleanup runs before main exits.
func run(cfg config.Config) error {
	log := logging.For("main")

	tbl, err := table.New(table.Options{
		PlayerCount:     cfg.PlayerCount,
		StartingBalance: cfg.StartingBalance,
		BoardPath:       cfg.BoardPath,
		DiceSeed:        cfg.DiceSeed,
		Log:             logging.For("turn"),
	})
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	log = log.WithField("game", tbl.GameID())
	log.WithField("seed", tbl.Seed).Info("Dice seeded")

	handler := &controllers.TableController{
		Table:  tbl,
		Secret: []byte(cfg.JWTSecret),
		Log:    logging.For("http"),
	}

	if cfg.RedisURL != "" {
		pool := cache.CreateRedisPool(cfg.RedisURL)
		defer pool.Close()
		mirror := cache.NewTurnMirror(pool, tbl.Players, logging.For("cache"))
		defer func() {
			if err := mirror.Clear(tbl.GameID()); err != nil {
				log.WithError(err).Warn("Failed clearing redis mirror")
			}
		}()
		tbl.Machine.AddObserver(mirror)
	}

	if cfg.DB.Enabled() {
		db := database.PostgreSQLConnection(cfg.DB)
		defer db.Close()
		if err := database.CreateSchema(context.Background(), db); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		events := queries.NewTurnEvents(db)
		tbl.Machine.AddObserver(queries.NewJournal(events, logging.For("journal")))
		handler.History = events
	}

	server, err := socket.NewServer(tbl.GameID(), func() interface{} { return tbl.State() }, logging.For("sockets"))
	if err != nil {
		return fmt.Errorf("create socket server: %w", err)
	}
	tbl.Machine.AddObserver(socket.NewBroadcaster(server, logging.For("sockets")))
	go func() {
		if err := server.Serve(); err != nil {
			log.WithError(err).Error("Socket server stopped")
		}
	}()
	defer server.Close()
	go func() {
		log.WithField("addr", cfg.SocketAddr).Info("Serving socket.io")
		if err := http.ListenAndServe(cfg.SocketAddr, socket.Handler(server, cfg.AllowedOrigins)); err != nil {
			log.WithError(err).Error("Socket listener stopped")
		}
	}()

	app := fiber.New()
	app.Use(cors.New())
	routes.TableRoutes(app, handler)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Warn("Failed shutting down http")
		}
	}()

	log.WithField("addr", cfg.HTTPAddr).Info("Serving http")
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}
