package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/seed/seeders"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, admin, demo")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	db, err := gorm.Open(postgres.Open(dsn()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&model.User{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	seeder := seeders.NewUserSeeder(db)

	switch *seedType {
	case "all":
		if err := seeder.SeedAdmin(); err != nil {
			log.Fatalf("Failed to seed admin: %v", err)
		}
		if err := seeder.SeedDemoUsers(); err != nil {
			log.Fatalf("Failed to seed demo users: %v", err)
		}
	case "admin":
		if err := seeder.SeedAdmin(); err != nil {
			log.Fatalf("Failed to seed admin: %v", err)
		}
	case "demo":
		if err := seeder.SeedDemoUsers(); err != nil {
			log.Fatalf("Failed to seed demo users: %v", err)
		}
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all', 'admin', or 'demo'", *seedType)
	}

	log.Println("Seeding completed")
}

func dsn() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		envOr("DB_HOST", "localhost"),
		envOr("DB_USER", "postgres"),
		envOr("DB_PASSWORD", "postgres"),
		envOr("DB_NAME", "rephrase_api"),
		envOr("DB_PORT", "5432"),
		envOr("DB_SSLMODE", "disable"))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func showHelp() {
	fmt.Println("Database seeder")
	fmt.Println()
	fmt.Println("Usage: seed [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -type string   Type of seeding: all, admin, demo (default \"all\")")
	fmt.Println("  -help          Show this help message")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  DATABASE_URL or DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME")
	fmt.Println("  SEED_ADMIN_PASSWORD  Password for the seeded admin account")
}
