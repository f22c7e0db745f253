package services

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"novobicho/database"
	"novobicho/models"
)

func TestSignupBonusGrantedOnRegistration(t *testing.T) {
	setupTestDB(t)

	cfg := testConfig()
	cfg.SignupBonusEnabled = true

	user, err := RegisterUser("Maria", "doc-signup-1", cfg)
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	if user.BonusBalance != cfg.SignupBonusAmount {
		t.Errorf("expected bonus balance %d, got %d", cfg.SignupBonusAmount, user.BonusBalance)
	}

	var bonus models.Bonus
	if err := database.DB.Where("user_id = ?", user.ID).First(&bonus).Error; err != nil {
		t.Fatalf("expected signup bonus row: %v", err)
	}
	if bonus.RolloverRequirement != cfg.SignupBonusAmount*cfg.SignupRollover {
		t.Errorf("expected requirement %d, got %d",
			cfg.SignupBonusAmount*cfg.SignupRollover, bonus.RolloverRequirement)
	}
	mustVerify(t, user.ID)
}

func TestSignupBonusDoubleGrantBlocked(t *testing.T) {
	setupTestDB(t)

	cfg := testConfig()
	cfg.SignupBonusEnabled = true

	user, err := RegisterUser("Maria", "doc-signup-2", cfg)
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	_, err = GrantSignupBonus(database.DB, user.ID, cfg)
	if !errors.Is(err, ErrBonusAlreadyGranted) {
		t.Fatalf("expected ErrBonusAlreadyGranted, got %v", err)
	}

	if b := mustBalances(t, user.ID); b.Bonus != cfg.SignupBonusAmount {
		t.Errorf("expected single grant, bonus balance %d", b.Bonus)
	}
}

func TestRolloverCompletionReclassifiesRemaining(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t)

	bonus, err := grantBonus(database.DB, &models.Bonus{
		UserID:              user.ID,
		BonusType:           models.BonusSignup,
		Amount:              10000,
		RemainingAmount:     10000,
		RolloverRequirement: 4000,
		Status:              models.BonusActive,
		ExpiresAt:           farFuture(),
	})
	if err != nil {
		t.Fatalf("grantBonus failed: %v", err)
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return AdvanceRollover(tx, bonus.ID, 4000)
	})
	if err != nil {
		t.Fatalf("AdvanceRollover failed: %v", err)
	}

	var reloaded models.Bonus
	if err := database.DB.First(&reloaded, bonus.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != models.BonusCompleted {
		t.Errorf("expected completed bonus, got %s", reloaded.Status)
	}
	if reloaded.RemainingAmount != 0 {
		t.Errorf("expected remaining 0 after release, got %d", reloaded.RemainingAmount)
	}

	// Remaining funds moved to the real class through an entry pair.
	b := mustBalances(t, user.ID)
	if b.Real != 10000 || b.Bonus != 0 {
		t.Errorf("expected balances 10000/0 after release, got %d/%d", b.Real, b.Bonus)
	}
	mustVerify(t, user.ID)
}

func TestRolloverProgressNeverExceedsRequirement(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t)

	bonus, err := grantBonus(database.DB, &models.Bonus{
		UserID:              user.ID,
		BonusType:           models.BonusSignup,
		Amount:              10000,
		RemainingAmount:     10000,
		RolloverRequirement: 3000,
		Status:              models.BonusActive,
		ExpiresAt:           farFuture(),
	})
	if err != nil {
		t.Fatalf("grantBonus failed: %v", err)
	}

	// Wagering more than the requirement in one step must clamp.
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return AdvanceRollover(tx, bonus.ID, 9000)
	})
	if err != nil {
		t.Fatalf("AdvanceRollover failed: %v", err)
	}

	var reloaded models.Bonus
	if err := database.DB.First(&reloaded, bonus.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.RolloverProgress > reloaded.RolloverRequirement {
		t.Errorf("progress %d exceeds requirement %d",
			reloaded.RolloverProgress, reloaded.RolloverRequirement)
	}
	if reloaded.Status != models.BonusCompleted {
		t.Errorf("expected completion at the clamp, got %s", reloaded.Status)
	}
}

func TestExpireSweepForfeitsFunds(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t)

	bonus, err := grantBonus(database.DB, &models.Bonus{
		UserID:              user.ID,
		BonusType:           models.BonusSignup,
		Amount:              5000,
		RemainingAmount:     5000,
		RolloverRequirement: 15000,
		Status:              models.BonusActive,
		ExpiresAt:           time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("grantBonus failed: %v", err)
	}

	expired, err := ExpireBonuses(time.Now())
	if err != nil {
		t.Fatalf("ExpireBonuses failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("expected 1 expired bonus, got %d", expired)
	}

	var reloaded models.Bonus
	if err := database.DB.First(&reloaded, bonus.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != models.BonusExpired || reloaded.RemainingAmount != 0 {
		t.Errorf("expected expired/0, got %s/%d", reloaded.Status, reloaded.RemainingAmount)
	}

	if b := mustBalances(t, user.ID); b.Bonus != 0 {
		t.Errorf("expected bonus balance 0 after forfeit, got %d", b.Bonus)
	}

	// Terminal states never revert; a second sweep is a no-op.
	expired, err = ExpireBonuses(time.Now())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if expired != 0 {
		t.Errorf("expected idempotent sweep, expired %d", expired)
	}
	mustVerify(t, user.ID)
}

// A winning settlement can land bonus winnings on a bonus after the expiry
// sweep has read its candidates but before it runs the forfeit transaction.
// The forfeit must cover what the transition actually zeroes, not the stale
// snapshot, or the landed credit stays in the cached bonus balance with no
// active bonus behind it.
func TestExpireSweepForfeitsCreditLandedAfterSnapshot(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t)

	bonus, err := grantBonus(database.DB, &models.Bonus{
		UserID:              user.ID,
		BonusType:           models.BonusSignup,
		Amount:              3000,
		RemainingAmount:     3000,
		RolloverRequirement: 9000,
		Status:              models.BonusActive,
		ExpiresAt:           time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("grantBonus failed: %v", err)
	}

	// Fires once, right after the sweep's candidate query, and applies the
	// same writes a winning bonus-funded bet would.
	injected := false
	err = database.DB.Callback().Query().After("gorm:query").
		Register("test:win_credit_after_snapshot", func(d *gorm.DB) {
			if injected || d.Statement.Table != "bonus" {
				return
			}
			injected = true
			res := database.DB.Model(&models.Bonus{}).
				Where("id = ? AND status = ?", bonus.ID, models.BonusActive).
				Updates(map[string]interface{}{
					"remaining_amount": gorm.Expr("remaining_amount + ?", 2000),
					"amount":           gorm.Expr("amount + ?", 2000),
				})
			if res.Error != nil || res.RowsAffected != 1 {
				t.Errorf("injected credit failed: %v (%d rows)", res.Error, res.RowsAffected)
				return
			}
			if err := appendEntry(database.DB, &models.LedgerEntry{
				UserID:       user.ID,
				Kind:         models.LedgerBetCredit,
				Amount:       2000,
				BalanceClass: models.ClassBonus,
				BonusID:      &bonus.ID,
				Note:         "winnings for bet 1",
			}); err != nil {
				t.Errorf("injected ledger entry failed: %v", err)
				return
			}
			if err := applyUserDelta(database.DB, user.ID, 0, 2000); err != nil {
				t.Errorf("injected balance delta failed: %v", err)
			}
		})
	if err != nil {
		t.Fatalf("register callback failed: %v", err)
	}
	t.Cleanup(func() {
		database.DB.Callback().Query().Remove("test:win_credit_after_snapshot")
	})

	expired, err := ExpireBonuses(time.Now())
	if err != nil {
		t.Fatalf("ExpireBonuses failed: %v", err)
	}
	if !injected {
		t.Fatal("credit was never injected")
	}
	if expired != 1 {
		t.Errorf("expected 1 expired bonus, got %d", expired)
	}

	var reloaded models.Bonus
	if err := database.DB.First(&reloaded, bonus.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != models.BonusExpired || reloaded.RemainingAmount != 0 {
		t.Errorf("expected expired/0, got %s/%d", reloaded.Status, reloaded.RemainingAmount)
	}

	// The forfeit covers the grant and the landed credit.
	if b := mustBalances(t, user.ID); b.Bonus != 0 {
		t.Errorf("expected bonus balance 0 after sweep, got %d", b.Bonus)
	}
	mustVerify(t, user.ID)
}

func TestExpiredBonusNotEligibleForFunding(t *testing.T) {
	setupTestDB(t)
	user := createTestUser(t)
	depositFor(t, user.ID, 2000)

	if _, err := grantBonus(database.DB, &models.Bonus{
		UserID:              user.ID,
		BonusType:           models.BonusSignup,
		Amount:              5000,
		RemainingAmount:     5000,
		RolloverRequirement: 15000,
		Status:              models.BonusActive,
		ExpiresAt:           time.Now().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("grantBonus failed: %v", err)
	}

	// Past expiry the bonus cannot fund a stake, even before the sweep.
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		_, err := TryReserve(tx, user.ID, 4000, true)
		return err
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}
