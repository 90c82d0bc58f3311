package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/Take3Presents/RoomBot/internal/audit"
	"github.com/Take3Presents/RoomBot/internal/config"
	"github.com/Take3Presents/RoomBot/internal/database"
	"github.com/Take3Presents/RoomBot/internal/handler"
	"github.com/Take3Presents/RoomBot/internal/middleware"
	"github.com/Take3Presents/RoomBot/internal/queue"
	"github.com/Take3Presents/RoomBot/internal/repository"
	"github.com/Take3Presents/RoomBot/internal/router"
	queuepub "github.com/Take3Presents/RoomBot/internal/service"
	"github.com/Take3Presents/RoomBot/internal/swap"
)

func main() {
	// Load .env (optional); real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found or couldn't load it; continuing with environment variables")
	}

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories over the shared pool.
	rooms := repository.NewRoomRepo(db)
	guests := repository.NewGuestRepo(db)
	codes := repository.NewSwapCodeRepo(db)
	swapLogs := repository.NewSwapLogRepo(db)
	staff := repository.NewStaffRepo(db)
	findings := repository.NewFindingRepo(db)

	// Swap engine and its collaborators.
	strategy := swap.NewPhraseStrategy()
	settings := swap.NewSettings(cfg.SwapsEnabled, cfg.SwapCodeTTL, cfg.RoomCooldown)
	engine := swap.NewEngine(db, rooms, guests, codes, swapLogs, strategy, settings, queuepub.NewPublisher())
	auditor := audit.NewAuditor(db, rooms, guests, codes, findings)

	// Background consumer mirroring completed swaps to logs/swaps.log.
	go func() {
		if err := queue.StartSwapConsumer(); err != nil {
			log.Printf("swap consumer stopped: %v", err)
		}
	}()

	e := echo.New()

	// Redis-backed rate limiting; degrades to a no-op when Redis is down.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, staff, guests)
	roomH := handler.NewRoomHandler(cfg, rooms, settings)
	swapH := handler.NewSwapHandler(engine)
	adminH := handler.NewAdminHandler(cfg, engine, settings, auditor, guests, rooms, swapLogs, strategy)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, roomH, cacheMW)
	router.RegisterGuest(e, roomH, swapH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, swaps_enabled=%v)", addr, cfg.Env, cfg.SwapsEnabled)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
