package database

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"novobicho/models"
)

var DB *gorm.DB

// Open mounts the database on the given dialector and migrates the schema.
// Tests use this with an in-memory sqlite dialector.
func Open(dialector gorm.Dialector) error {
	db, err := gorm.Open(dialector, &gorm.Config{
		// Unique violations come back as gorm.ErrDuplicatedKey on every
		// driver; the whole idempotency story depends on this.
		TranslateError: true,
	})
	if err != nil {
		return err
	}
	DB = db
	return Migrate()
}

func Migrate() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.LedgerEntry{},
		&models.PaymentTransaction{},
		&models.Bonus{},
		&models.GameMode{},
		&models.Draw{},
		&models.Bet{},
	)
}

func Connect() {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	name := os.Getenv("DB_NAME")
	sslmode := os.Getenv("DB_SSLMODE")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, pass, name, port, sslmode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	DB = db
	log.Println("✅ Connected to database")

	autoMigrate, err := strconv.ParseBool(os.Getenv("DB_AUTO_MIGRATE"))
	if err != nil {
		log.Printf("⚠️  Invalid value for DB_AUTO_MIGRATE: %s\n", os.Getenv("DB_AUTO_MIGRATE"))
	}

	if autoMigrate {
		log.Println("🟡 Starting auto-migration...")
		if err := Migrate(); err != nil {
			log.Fatal("❌ Failed to auto-migrate database:", err)
		}
		if err := SeedGameModes(); err != nil {
			log.Fatal("❌ Failed to seed game modes:", err)
		}
		log.Println("✅ Auto migration completed")
	}
}

// SeedGameModes installs the standard catalog when the table is empty.
// Quotas are the traditional payout table.
func SeedGameModes() error {
	var count int64
	if err := DB.Model(&models.GameMode{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	modes := []models.GameMode{
		{Name: "grupo", Match: models.MatchGrupo, Quota: decimal.NewFromInt(18), IsActive: true},
		{Name: "dezena", Match: models.MatchDezena, Quota: decimal.NewFromInt(60), IsActive: true},
		{Name: "centena", Match: models.MatchCentena, Quota: decimal.NewFromInt(600), IsActive: true},
		{Name: "milhar", Match: models.MatchMilhar, Quota: decimal.NewFromInt(4000), IsActive: true},
	}
	return DB.Create(&modes).Error
}
