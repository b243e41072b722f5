// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"

	"slidedeck/internal/database"
)

// testDB connects to the PostgreSQL instance named by the POSTGRES_*
// variables and migrates it. Tests skip when it is not reachable.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&connect_timeout=2",
		envOr("POSTGRES_USER", "slidedeck"),
		envOr("POSTGRES_PASSWORD", "changeme"),
		envOr("POSTGRES_HOST", "localhost"),
		envOr("POSTGRES_PORT", "5432"),
		envOr("POSTGRES_DB", "slidedeck"),
	)
	db, err := database.Connect(dsn)
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// cleanGenerations removes decks created by a test.
func cleanGenerations(t *testing.T, db *sql.DB, ids ...uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		if _, err := db.Exec("DELETE FROM generations WHERE id = $1", id); err != nil {
			t.Logf("cleanup %s: %v", id, err)
		}
	}
}
