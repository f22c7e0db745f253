package config

import (
	"os"
	"strconv"
	"time"
)

// Config is read once at startup and passed around as a value. Amounts are
// centavos, rollover values are multipliers over the granted amount.
type Config struct {
	Host string
	Port string

	SignupBonusEnabled   bool
	SignupBonusAmount    int64
	SignupRollover       int64
	SignupExpirationDays int

	FirstDepositEnabled        bool
	FirstDepositPercent        int64
	FirstDepositMax            int64
	FirstDepositRollover       int64
	FirstDepositExpirationDays int

	BonusSweepEvery   time.Duration
	SettlementWorkers int
}

func Load() Config {
	return Config{
		Host: envStr("HOST", "127.0.0.1"),
		Port: envStr("PORT", "3000"),

		SignupBonusEnabled:   envBool("SIGNUP_BONUS_ENABLED", false),
		SignupBonusAmount:    envInt64("SIGNUP_BONUS_AMOUNT", 1000),
		SignupRollover:       envInt64("SIGNUP_BONUS_ROLLOVER", 3),
		SignupExpirationDays: int(envInt64("SIGNUP_BONUS_EXPIRATION_DAYS", 7)),

		FirstDepositEnabled:        envBool("FIRST_DEPOSIT_BONUS_ENABLED", false),
		FirstDepositPercent:        envInt64("FIRST_DEPOSIT_BONUS_PERCENT", 100),
		FirstDepositMax:            envInt64("FIRST_DEPOSIT_BONUS_MAX", 20000),
		FirstDepositRollover:       envInt64("FIRST_DEPOSIT_BONUS_ROLLOVER", 3),
		FirstDepositExpirationDays: int(envInt64("FIRST_DEPOSIT_BONUS_EXPIRATION_DAYS", 30)),

		BonusSweepEvery:   time.Duration(envInt64("BONUS_EXPIRY_SWEEP_MINUTES", 10)) * time.Minute,
		SettlementWorkers: int(envInt64("SETTLEMENT_WORKERS", 8)),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envInt64(key string, def int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return def
	}
	return v
}
