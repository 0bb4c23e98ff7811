package handlers

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"basedare-system/services"

	"github.com/gofiber/fiber/v2"
)

func newAdminApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("MODERATOR_WALLETS", "0x1111111111111111111111111111111111111111")
	t.Setenv("ADMIN_SECRET", "operator-secret")

	app := fiber.New()
	SetupAdminRoutes(app, services.NewModerationService(nil))
	return app
}

func TestTagAdminNotGatedByModeratorScope(t *testing.T) {
	app := newAdminApp(t)

	// no credentials at all: the rejection must come from the admin secret
	// check, never from the moderator wallet allowlist
	req := httptest.NewRequest("GET", "/api/admin/tags", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", resp.StatusCode)
	}
	if strings.Contains(string(body), "x-moderator-wallet") {
		t.Fatalf("tag admin route is gated by the moderator scope: %s", body)
	}
	if !strings.Contains(string(body), "invalid admin secret") {
		t.Fatalf("expected the admin secret check to answer, got: %s", body)
	}
}

func TestModeratorScopeDoesNotAcceptAdminSecret(t *testing.T) {
	app := newAdminApp(t)

	req := httptest.NewRequest("GET", "/api/admin/moderate", nil)
	req.Header.Set("x-admin-secret", "operator-secret")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "x-moderator-wallet") {
		t.Fatalf("expected the moderator wallet check to answer, got: %s", body)
	}
}
