package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/mehdiyara/stockroom/internal/assets"
	"github.com/mehdiyara/stockroom/internal/audit"
	"github.com/mehdiyara/stockroom/internal/config"
	"github.com/mehdiyara/stockroom/internal/database"
	"github.com/mehdiyara/stockroom/internal/handler"
	"github.com/mehdiyara/stockroom/internal/repository"
	"github.com/mehdiyara/stockroom/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	vendors := repository.NewVendorRepo(db)
	items := repository.NewInventoryRepo(db)
	activities := repository.NewActivityRepo(db)

	assetStore := assets.New(cfg.AssetStoreURL, cfg.AssetStoreKey)

	// With a broker configured, audit events travel through RabbitMQ
	// and the consumer goroutine writes the activities table; without
	// one they are inserted directly.
	var recorder audit.Recorder
	if os.Getenv("RABBITMQ_URL") != "" || os.Getenv("AMQP_URL") != "" {
		url := audit.BrokerURL()
		recorder = audit.NewPublisher(url)
		go audit.StartConsumer(url, activities)
	} else {
		recorder = audit.NewStoreRecorder(activities)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Cfg:       cfg,
		Users:     users,
		Auth:      handler.NewAuthHandler(cfg, users, assetStore, recorder),
		Admin:     handler.NewUserAdminHandler(users, assetStore, recorder),
		Vendors:   handler.NewVendorHandler(vendors, recorder),
		Inventory: handler.NewInventoryHandler(items, vendors, assetStore, recorder),
		Dashboard: handler.NewDashboardHandler(vendors, items, activities),
		Redis:     rdb,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
