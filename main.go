package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"basedare-system/chain"
	"basedare-system/handlers"
	"basedare-system/models"
	"basedare-system/services"
	"basedare-system/utils"
	"basedare-system/workers"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // 50MB, proof uploads are images or short clips
	})

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Moderator-Wallet, X-Admin-Secret",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Dare{},
		&models.Tag{},
		&models.DareVote{},
		&models.InviteToken{},
		&models.PendingFunding{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	dareService := services.NewDareService(db, frontendURL)
	tagService := services.NewTagService(db)
	moderationService := services.NewModerationService(db)

	// --- CONFIGURE on-chain funding verification ---
	rpcURL := os.Getenv("CHAIN_RPC_URL")
	if rpcURL == "" {
		log.Fatal("CHAIN_RPC_URL environment variable not set")
	}
	escrowAddr := os.Getenv("ESCROW_CONTRACT_ADDRESS")
	if !common.IsHexAddress(escrowAddr) {
		log.Fatal("ESCROW_CONTRACT_ADDRESS environment variable not set or invalid")
	}
	verifier, err := chain.NewVerifier(rpcURL, common.HexToAddress(escrowAddr))
	if err != nil {
		log.Fatal("failed to connect to chain RPC:", err)
	}
	// --- END CONFIG ---

	fundingWorker := workers.NewFundingVerifier(db, verifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go fundingWorker.Poll(ctx, 10*time.Second)

	dareService.StartExpiryScheduler()

	handlers.SetupDareRoutes(app, dareService)
	handlers.SetupTagRoutes(app, tagService)
	handlers.SetupAdminRoutes(app, moderationService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Funding verification polling running (every 10s)")
	log.Println("✅ Expiry scheduler running (every 1m)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
