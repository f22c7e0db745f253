package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"novobicho/config"
	"novobicho/database"
	"novobicho/models"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// One connection keeps every goroutine on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	database.DB = db
	if err := database.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
}

func testConfig() config.Config {
	return config.Config{
		SignupBonusEnabled:         false,
		SignupBonusAmount:          1000,
		SignupRollover:             3,
		SignupExpirationDays:       7,
		FirstDepositEnabled:        false,
		FirstDepositPercent:        100,
		FirstDepositMax:            20000,
		FirstDepositRollover:       3,
		FirstDepositExpirationDays: 30,
		SettlementWorkers:          4,
	}
}

var userSeq int

func createTestUser(t *testing.T) *models.User {
	t.Helper()
	userSeq++
	user, err := RegisterUser("Test User", fmt.Sprintf("doc-%d-%d", time.Now().UnixNano(), userSeq), testConfig())
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	return user
}

var depositSeq int

// depositFor credits real money through the normal deposit path, with the
// first-deposit bonus switched off.
func depositFor(t *testing.T, userID uint, amount int64) {
	t.Helper()
	depositSeq++
	_, err := ProcessDeposit(PaymentNotification{
		GatewayID:  "testpay",
		ExternalID: fmt.Sprintf("seed-%d", depositSeq),
		UserID:     userID,
		Amount:     amount,
		Status:     models.PaymentApproved,
	}, testConfig())
	if err != nil {
		t.Fatalf("seed deposit failed: %v", err)
	}
}

func seedGameMode(t *testing.T, name, match string, quota int64) *models.GameMode {
	t.Helper()
	mode := models.GameMode{
		Name:     name,
		Match:    match,
		Quota:    decimal.NewFromInt(quota),
		IsActive: true,
	}
	if err := database.DB.Create(&mode).Error; err != nil {
		t.Fatalf("seed game mode failed: %v", err)
	}
	return &mode
}

func createTestDraw(t *testing.T) *models.Draw {
	t.Helper()
	draw, err := CreateDraw("test draw", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateDraw failed: %v", err)
	}
	return draw
}

func farFuture() time.Time {
	return time.Now().Add(365 * 24 * time.Hour)
}

func mustBalances(t *testing.T, userID uint) Balances {
	t.Helper()
	b, err := CurrentBalances(userID)
	if err != nil {
		t.Fatalf("CurrentBalances failed: %v", err)
	}
	return b
}

func mustVerify(t *testing.T, userID uint) {
	t.Helper()
	if err := VerifyProjection(userID); err != nil {
		t.Errorf("projection check failed: %v", err)
	}
}
