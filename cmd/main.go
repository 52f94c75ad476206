package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"blockfix/backend/internal/api/handler"
	"blockfix/backend/internal/classifier"
	"blockfix/backend/internal/directory"
	"blockfix/backend/internal/events"
	"blockfix/backend/internal/ledger"
	"blockfix/backend/internal/lifecycle"
	"blockfix/backend/internal/localization"
	"blockfix/backend/internal/models"
	"blockfix/backend/internal/notify"
	"blockfix/backend/internal/performance"
	"blockfix/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies() (*gorm.DB, *redis.Client) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		envOr("DB_HOST", "localhost"),
		envOr("DB_USER", "user"),
		envOr("DB_PASSWORD", "password"),
		envOr("DB_NAME", "blockfixdb"),
		envOr("DB_PORT", "5432"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.Account{},
		&models.Complaint{},
		&models.Rating{},
		&models.LedgerEntry{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

// seedDemoAccounts provisions the demo roster on an empty database.
func seedDemoAccounts(dir *directory.Service) {
	admins, err := dir.AccountsByRole(models.RoleAdmin)
	if err != nil || len(admins) > 0 {
		return
	}

	seed := []struct {
		email, password, name string
		role                  models.Role
	}{
		{"admin@blockfix.com", "admin123", "Admin User", models.RoleAdmin},
		{"student@test.com", "student123", "John Student", models.RoleStudent},
		{"vendor@test.com", "vendor123", "Jane Vendor", models.RoleVendor},
		{"counselor@test.com", "counselor123", "Dr. Smith", models.RoleCounselor},
	}
	for _, s := range seed {
		if err := dir.Provision(s.email, s.password, s.name, s.role); err != nil {
			log.Printf("ERROR: Failed to seed %s: %v", s.email, err)
		}
	}
	log.Println("Seeded demo accounts.")
}

func main() {
	log.Println("Starting BlockFix Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	db, rdb := setupDependencies()
	store := storage.NewStorageService(db, rdb)

	now := func() int64 { return time.Now().UnixMilli() }
	led := ledger.New(store, now)
	perf := performance.NewEngine(store)
	engine := lifecycle.NewEngine(store, led, perf, classifier.NewKeyword())
	dir := directory.NewService(store)
	seedDemoAccounts(dir)

	loc := localization.NewLocalizer()
	if path := os.Getenv("LOCALES_DIR"); path != "" {
		if err := loc.LoadDir(path); err != nil {
			log.Printf("Warning: could not load locales from %s: %v", path, err)
		}
	}
	email := notify.NewEmailSimulator(loc)

	var alerter *notify.TelegramAlerter
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		chatID, err := strconv.ParseInt(os.Getenv("TELEGRAM_ADMIN_CHAT_ID"), 10, 64)
		if err != nil {
			log.Fatalf("TELEGRAM_ADMIN_CHAT_ID is not a valid chat id: %v", err)
		}
		alerter, err = notify.NewTelegramAlerter(token, chatID, loc)
		if err != nil {
			log.Fatalf("Failed to start Telegram alerter: %v", err)
		}
	}

	hub := events.NewHub(rdb)
	go hub.Run()

	jwtSecret := []byte(envOr("JWT_SECRET", "dev-only-secret"))
	h := handler.NewHandler(dir, engine, perf, led, hub, email, alerter, jwtSecret)

	r := gin.Default()
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           ":" + envOr("PORT", "8080"),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
