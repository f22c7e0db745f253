package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"novobicho/config"
	"novobicho/database"
	"novobicho/models"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	os.Setenv("GATEWAY_SECRET", "gw-secret")
	os.Setenv("ADMIN_SECRET", "adm-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	database.DB = db
	if err := database.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	mode := models.GameMode{Name: "milhar", Match: models.MatchMilhar, Quota: decimal.NewFromInt(4), IsActive: true}
	if err := database.DB.Create(&mode).Error; err != nil {
		t.Fatalf("Failed to seed game mode: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	app := fiber.New()
	Setup(app, config.Load())
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, out
}

func registerUser(t *testing.T, app *fiber.App, document string) uint {
	t.Helper()
	code, out := doJSON(t, app, http.MethodPost, "/user/register",
		map[string]any{"name": "Test User", "document": document}, nil)
	if code != http.StatusOK {
		t.Fatalf("register: unexpected status %d: %v", code, out)
	}
	data := out["data"].(map[string]any)
	return uint(data["user_id"].(float64))
}

func TestWebhookRequiresGatewaySecret(t *testing.T) {
	app := setupApp(t)

	code, _ := doJSON(t, app, http.MethodPost, "/gateway/payments",
		map[string]any{"type": "deposit"}, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("expected 401 without gateway secret, got %d", code)
	}
}

func TestDepositWebhookIdempotentEndToEnd(t *testing.T) {
	app := setupApp(t)
	userID := registerUser(t, app, "doc-routes-1")

	gwHeaders := map[string]string{"X-Gateway-Secret": "gw-secret"}
	payload := map[string]any{
		"gateway_id":  "pixpay",
		"external_id": "evt-http-1",
		"user_id":     userID,
		"amount":      "150.50",
		"type":        "deposit",
		"status":      "approved",
	}

	code, out := doJSON(t, app, http.MethodPost, "/gateway/payments", payload, gwHeaders)
	if code != http.StatusOK || out["message"] != "PAYMENT_RECORDED" {
		t.Fatalf("first delivery: status %d, %v", code, out)
	}

	code, out = doJSON(t, app, http.MethodPost, "/gateway/payments", payload, gwHeaders)
	if code != http.StatusOK || out["message"] != "DUPLICATE_IGNORED" {
		t.Fatalf("redelivery: status %d, %v", code, out)
	}

	userHeaders := map[string]string{"X-User-ID": fmt.Sprint(userID)}
	code, out = doJSON(t, app, http.MethodGet, "/user/balance", nil, userHeaders)
	if code != http.StatusOK {
		t.Fatalf("balance: status %d", code)
	}
	data := out["data"].(map[string]any)
	if got := int64(data["real"].(float64)); got != 15050 {
		t.Errorf("expected real balance 15050, got %d", got)
	}
}

func TestBetPlacementAndSettlementEndToEnd(t *testing.T) {
	app := setupApp(t)
	userID := registerUser(t, app, "doc-routes-2")

	gwHeaders := map[string]string{"X-Gateway-Secret": "gw-secret"}
	admHeaders := map[string]string{"X-Admin-Secret": "adm-secret"}
	userHeaders := map[string]string{"X-User-ID": fmt.Sprint(userID)}

	doJSON(t, app, http.MethodPost, "/gateway/payments", map[string]any{
		"gateway_id":  "pixpay",
		"external_id": "evt-http-2",
		"user_id":     userID,
		"amount":      "100.00",
		"type":        "deposit",
		"status":      "approved",
	}, gwHeaders)

	code, out := doJSON(t, app, http.MethodPost, "/admin/draws",
		map[string]any{"name": "noite"}, admHeaders)
	if code != http.StatusOK {
		t.Fatalf("create draw: status %d: %v", code, out)
	}
	drawID := uint(out["data"].(map[string]any)["draw_id"].(float64))

	code, out = doJSON(t, app, http.MethodPost, "/user/bets", map[string]any{
		"draw_id":   drawID,
		"game_mode": "milhar",
		"selection": "1234",
		"amount":    5000,
	}, userHeaders)
	if code != http.StatusOK {
		t.Fatalf("place bet: status %d: %v", code, out)
	}

	code, out = doJSON(t, app, http.MethodPost, "/gateway/draws/result", map[string]any{
		"draw_id": drawID,
		"result":  "1234",
	}, gwHeaders)
	if code != http.StatusOK || out["message"] != "DRAW_SETTLED" {
		t.Fatalf("settle: status %d: %v", code, out)
	}

	// Redelivered result feed is a no-op.
	code, out = doJSON(t, app, http.MethodPost, "/gateway/draws/result", map[string]any{
		"draw_id": drawID,
		"result":  "1234",
	}, gwHeaders)
	if code != http.StatusOK || out["message"] != "ALREADY_SETTLED" {
		t.Fatalf("resettle: status %d: %v", code, out)
	}

	code, out = doJSON(t, app, http.MethodGet, "/user/balance", nil, userHeaders)
	if code != http.StatusOK {
		t.Fatalf("balance: status %d", code)
	}
	data := out["data"].(map[string]any)
	// 10000 - 5000 stake + 20000 payout
	if got := int64(data["real"].(float64)); got != 25000 {
		t.Errorf("expected real balance 25000, got %d", got)
	}
}

func TestResultForUnknownDrawAnswers400(t *testing.T) {
	app := setupApp(t)

	// A 5xx here would make the feed retry forever; the draw id is simply
	// wrong, so the answer is a client error.
	gwHeaders := map[string]string{"X-Gateway-Secret": "gw-secret"}
	code, out := doJSON(t, app, http.MethodPost, "/gateway/draws/result", map[string]any{
		"draw_id": 9999,
		"result":  "1234",
	}, gwHeaders)
	if code != http.StatusBadRequest || out["message"] != "UNKNOWN_DRAW" {
		t.Fatalf("expected 400 UNKNOWN_DRAW, got %d: %v", code, out)
	}
}

func TestWithdrawalLifecycleEndToEnd(t *testing.T) {
	app := setupApp(t)
	userID := registerUser(t, app, "doc-routes-3")

	gwHeaders := map[string]string{"X-Gateway-Secret": "gw-secret"}
	userHeaders := map[string]string{"X-User-ID": fmt.Sprint(userID)}

	doJSON(t, app, http.MethodPost, "/gateway/payments", map[string]any{
		"gateway_id":  "pixpay",
		"external_id": "evt-http-3",
		"user_id":     userID,
		"amount":      "80.00",
		"type":        "deposit",
		"status":      "approved",
	}, gwHeaders)

	code, out := doJSON(t, app, http.MethodPost, "/user/withdrawals",
		map[string]any{"amount": 4000}, userHeaders)
	if code != http.StatusOK {
		t.Fatalf("withdrawal: status %d: %v", code, out)
	}
	externalID := out["data"].(map[string]any)["external_id"].(string)

	code, out = doJSON(t, app, http.MethodPost, "/gateway/payments", map[string]any{
		"external_id": externalID,
		"type":        "withdrawal",
		"status":      "rejected",
	}, gwHeaders)
	if code != http.StatusOK || out["message"] != "WITHDRAWAL_RESOLVED" {
		t.Fatalf("resolve: status %d: %v", code, out)
	}

	code, out = doJSON(t, app, http.MethodGet, "/user/balance", nil, userHeaders)
	if code != http.StatusOK {
		t.Fatalf("balance: status %d", code)
	}
	if got := int64(out["data"].(map[string]any)["real"].(float64)); got != 8000 {
		t.Errorf("expected restored balance 8000, got %d", got)
	}
}
