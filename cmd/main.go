package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"voicepods/backend/internal/api/handler"
	"voicepods/backend/internal/models"
	"voicepods/backend/internal/platform"
	"voicepods/backend/internal/podhub"
	"voicepods/backend/internal/storage"
	"voicepods/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies() (*gorm.DB, *redis.Client) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.Pod{},
		&models.ActiveSession{},
		&models.VoiceStat{},
		&models.UserPrefs{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting Voice Pods service...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	db, rdb := setupDependencies()
	s := storage.NewStorageService(db, rdb)

	hubRoomID := os.Getenv("HUB_ROOM_ID")
	if hubRoomID == "" {
		log.Fatal("HUB_ROOM_ID is not set")
	}

	client := platform.NewRestClient(
		os.Getenv("PLATFORM_API_URL"),
		os.Getenv("PLATFORM_TOKEN"),
		os.Getenv("POD_CATEGORY_ID"),
	)

	hub := podhub.NewManagerService(s, client, hubRoomID)

	// Repair persisted state before accepting any membership events.
	hub.ReconcileStartup()

	gateway := platform.NewGatewayClient(os.Getenv("PLATFORM_GATEWAY_URL"), hub)

	go hub.Run()
	go gateway.Run()

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		opsChatID, err := strconv.ParseInt(os.Getenv("OPS_CHAT_ID"), 10, 64)
		if err != nil {
			log.Fatalf("Invalid OPS_CHAT_ID: %v", err)
		}
		audit, err := telegram.NewAuditService(token, rdb, opsChatID)
		if err != nil {
			log.Fatalf("Failed to start audit forwarder: %v", err)
		}
		go audit.Run()
	}

	r := gin.Default()
	h := handler.NewHandler(hub, s)

	r.GET("/token", h.GetToken)
	r.POST("/reclaim/:promptID/accept", h.AcceptReclaim)
	r.POST("/reclaim/:promptID/deny", h.DenyReclaim)
	r.GET("/stats/:userID/:communityID", h.GetVoiceStat)
	r.GET("/pods/:roomID", h.GetPod)

	server := &http.Server{
		Addr:           ":8080",
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
