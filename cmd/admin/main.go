package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"blockfix/backend/internal/classifier"
	"blockfix/backend/internal/directory"
	"blockfix/backend/internal/ledger"
	"blockfix/backend/internal/lifecycle"
	"blockfix/backend/internal/models"
	"blockfix/backend/internal/performance"
	"blockfix/backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	store := storage.NewStorageService(db, nil) // No redis needed for the CLI
	dir := directory.NewService(store)
	now := func() int64 { return time.Now().UnixMilli() }
	led := ledger.New(store, now)
	perf := performance.NewEngine(store)
	engine := lifecycle.NewEngine(store, led, perf, classifier.NewKeyword())

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add-vendor":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin add-vendor <email> <name>")
			os.Exit(1)
		}
		account, err := dir.AddVendor(os.Args[2], os.Args[3])
		if err != nil {
			log.Fatalf("Error adding vendor: %v", err)
		}
		fmt.Printf("Vendor %s created with id %s.\n", account.Email, account.ID)

	case "add-counselor":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin add-counselor <email> <name>")
			os.Exit(1)
		}
		account, err := dir.AddCounselor(os.Args[2], os.Args[3])
		if err != nil {
			log.Fatalf("Error adding counselor: %v", err)
		}
		fmt.Printf("Counselor %s created with id %s.\n", account.Email, account.ID)

	case "disable":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin disable <account_id>")
			os.Exit(1)
		}
		if err := dir.Disable(os.Args[2]); err != nil {
			log.Fatalf("Error disabling account: %v", err)
		}
		fmt.Printf("Account %s has been disabled.\n", os.Args[2])

	case "release":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin release <complaint_id> <admin_account_id>")
			os.Exit(1)
		}
		if err := engine.ReleaseFunds(os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("Error releasing funds: %v", err)
		}
		fmt.Printf("Funds released for complaint %s.\n", os.Args[2])

	case "performance":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin performance <vendor_id>")
			os.Exit(1)
		}
		summary, err := perf.Summarize(os.Args[2])
		if err != nil {
			log.Fatalf("Error computing performance: %v", err)
		}
		fmt.Printf("Vendor %s: score=%d completed=%d on-time=%d%% avg-rating=%.2f points=%d badges=%v\n",
			summary.VendorID, summary.Score, summary.CompletedJobs, summary.OnTimeRate,
			summary.AverageRating, summary.RewardPoints, summary.Badges)

	case "stats":
		stats, err := engine.ComputeStats()
		if err != nil {
			log.Fatalf("Error computing stats: %v", err)
		}
		fmt.Printf("Complaints: %d total, %d awaiting votes, %d pending, %d assigned, %d resolved, %d confirmed, %d rejected\n",
			stats.TotalComplaints, stats.AwaitingVotes, stats.Pending, stats.Assigned,
			stats.Resolved, stats.Confirmed, stats.Rejected)
		fmt.Printf("Escrow pool: %d, total upvotes: %d, avg resolution: %.1fh\n",
			stats.EscrowPool, stats.TotalUpvotes, stats.AvgResolutionHours)

	case "escrow":
		total, err := led.PoolTotal(models.PoolEscrow)
		if err != nil {
			log.Fatalf("Error reading escrow pool: %v", err)
		}
		fmt.Printf("Escrow pool holds %d.\n", total)

	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}
