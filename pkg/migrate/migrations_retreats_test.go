package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okarpenko/retreathub-backend/pkg/migrate"
)

func TestRetreatsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_retreats.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no retreats migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS retreats",
		"CHECK (current_participants <= max_participants)",
		"CHECK (current_participants >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_retreats_slug",
		"CREATE TABLE IF NOT EXISTS retreat_categories",
		"FOREIGN KEY (retreat_id) REFERENCES retreats(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS retreats",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestBookingsMigrationContainsStatusChecks(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_bookings.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no bookings migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CHECK (participants > 0)",
		"CHECK (status IN ('pending', 'confirmed', 'cancelled', 'completed', 'refunded'))",
		"CHECK (payment_status IN ('pending', 'paid', 'partial', 'refunded', 'failed'))",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}
