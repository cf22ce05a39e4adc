package keys

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	pkgerrors "observer/internal/pkg/errors"
	"observer/internal/platform/config"
	"observer/internal/platform/repositories"
	"observer/internal/platform/secrets"
)

const testCipherKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func setupService(t *testing.T) (*Service, *repositories.KeyRepository, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	_, err = db.Exec(`
	CREATE TABLE api_keys (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		secret_enc TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		priority INTEGER NOT NULL DEFAULT 0,
		is_exhausted INTEGER NOT NULL DEFAULT 0,
		remaining_credits INTEGER,
		last_credit_check_at INTEGER,
		last_used_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`)
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	cipher, err := secrets.NewCipher(config.SecretsConfig{Key: testCipherKey})
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}

	repo := repositories.NewKeyRepository(db)
	return NewService(repo, cipher), repo, db
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		expected string
	}{
		{"Normal Key", "fc-abcdefghijklmnop", "fc-abcde...mnop"},
		{"Exactly Twelve", "fc-abcdefghi", "fc-abcde...fghi"},
		{"Too Short", "fc-short", "********"},
		{"Empty", "", "********"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskSecret(tt.secret); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestService_AddValidation(t *testing.T) {
	svc, _, db := setupService(t)
	defer db.Close()

	tests := []struct {
		name   string
		secret string
	}{
		{"Empty", ""},
		{"Whitespace", "   "},
		{"Too Short", "fc-abc"},
		{"Wrong Prefix", "sk-abcdefghijklmnopqrstuvwx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add("user1", tt.secret, "")
			var ve *pkgerrors.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("Expected ValidationError, got %v", err)
			}
		})
	}
}

func TestService_AddAndList(t *testing.T) {
	svc, _, db := setupService(t)
	defer db.Close()

	if _, err := svc.Add("user1", "fc-abcdefghijklmnopqrst", ""); err != nil {
		t.Fatalf("Failed to add key: %v", err)
	}
	if _, err := svc.Add("user1", "  fc-zyxwvutsrqponmlkjih  ", "Backup"); err != nil {
		t.Fatalf("Failed to add second key: %v", err)
	}

	views, err := svc.List("user1")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(views))
	}

	if views[0].Label != "Key 1" {
		t.Errorf("Expected default label 'Key 1', got %q", views[0].Label)
	}
	if views[1].Label != "Backup" {
		t.Errorf("Expected label 'Backup', got %q", views[1].Label)
	}
	if views[0].MaskedSecret != "fc-abcde...qrst" {
		t.Errorf("Expected masked secret, got %q", views[0].MaskedSecret)
	}
	// The trimmed secret is what gets stored.
	if views[1].MaskedSecret != "fc-zyxwv...kjih" {
		t.Errorf("Expected trimmed masked secret, got %q", views[1].MaskedSecret)
	}
}

func TestService_ActiveSecretSkipsExhausted(t *testing.T) {
	svc, repo, db := setupService(t)
	defer db.Close()

	a, err := svc.Add("user1", "fc-aaaaaaaaaaaaaaaaaaaa", "A")
	if err != nil {
		t.Fatalf("Failed to add A: %v", err)
	}
	if _, err := svc.Add("user1", "fc-bbbbbbbbbbbbbbbbbbbb", "B"); err != nil {
		t.Fatalf("Failed to add B: %v", err)
	}

	secret, keyID, err := svc.ActiveSecret("user1")
	if err != nil {
		t.Fatalf("Failed to get active secret: %v", err)
	}
	if keyID != a.ID || secret != "fc-aaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("Expected A to be active first")
	}

	// A runs dry; B takes over.
	if err := repo.SetExhausted(a.ID, true); err != nil {
		t.Fatalf("Failed to exhaust A: %v", err)
	}
	secret, _, err = svc.ActiveSecret("user1")
	if err != nil {
		t.Fatalf("Failed to get active secret: %v", err)
	}
	if secret != "fc-bbbbbbbbbbbbbbbbbbbb" {
		t.Errorf("Expected B after A exhausted, got %q", secret)
	}

	got, err := repo.GetByID("user1", a.ID)
	if err != nil {
		t.Fatalf("Failed to get A: %v", err)
	}
	if got.LastUsedAt == nil {
		t.Error("Expected A's last used timestamp to be stamped")
	}
}

func TestService_ActiveSecretEmptyPool(t *testing.T) {
	svc, _, db := setupService(t)
	defer db.Close()

	secret, keyID, err := svc.ActiveSecret("user1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if secret != "" || keyID != "" {
		t.Error("Expected empty result for empty pool")
	}
}

func TestService_ExhaustThenRemoveScenario(t *testing.T) {
	svc, repo, db := setupService(t)
	defer db.Close()

	a, _ := svc.Add("user1", "fc-aaaaaaaaaaaaaaaaaaaa", "A")
	b, _ := svc.Add("user1", "fc-bbbbbbbbbbbbbbbbbbbb", "B")

	if err := repo.SetExhausted(a.ID, true); err != nil {
		t.Fatalf("Failed to exhaust A: %v", err)
	}

	records, _ := repo.ListByOwner("user1")
	active := SelectActive(records)
	if active == nil || active.ID != b.ID {
		t.Fatal("Expected B to be selected after A exhausted")
	}

	if err := svc.Remove("user1", b.ID); err != nil {
		t.Fatalf("Failed to remove B: %v", err)
	}

	views, _ := svc.List("user1")
	if len(views) != 1 || views[0].ID != a.ID || views[0].Priority != 0 {
		t.Error("Expected only A at priority 0")
	}
	// Exhausted keys stay listed even though they are never selected.
	if !views[0].Exhausted {
		t.Error("Expected A to still be marked exhausted")
	}
}

func TestService_RemoveNotFound(t *testing.T) {
	svc, _, db := setupService(t)
	defer db.Close()

	err := svc.Remove("user1", "key_missing")
	var nfe *pkgerrors.NotFoundError
	if !errors.As(err, &nfe) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}

	err = svc.Reorder("user1", "key_missing", 0)
	if !errors.As(err, &nfe) {
		t.Errorf("Expected NotFoundError from reorder, got %v", err)
	}
}

func TestService_SetLegacy(t *testing.T) {
	svc, repo, db := setupService(t)
	defer db.Close()

	if err := svc.SetLegacy("user1", "fc-aaaaaaaaaaaaaaaaaaaa"); err != nil {
		t.Fatalf("Failed to set legacy key: %v", err)
	}

	views, _ := svc.List("user1")
	if len(views) != 1 || views[0].Label != "Default Key" || views[0].Priority != 0 {
		t.Fatal("Expected a single priority-0 Default Key")
	}
	firstID := views[0].ID

	// A second set replaces the secret in place instead of adding a key.
	if err := svc.SetLegacy("user1", "fc-bbbbbbbbbbbbbbbbbbbb"); err != nil {
		t.Fatalf("Failed to replace legacy key: %v", err)
	}
	records, _ := repo.ListByOwner("user1")
	if len(records) != 1 || records[0].ID != firstID {
		t.Error("Expected the existing key to be patched, not replaced")
	}

	secret, _, err := svc.ActiveSecret("user1")
	if err != nil {
		t.Fatalf("Failed to get active secret: %v", err)
	}
	if secret != "fc-bbbbbbbbbbbbbbbbbbbb" {
		t.Errorf("Expected replaced secret, got %q", secret)
	}
}
