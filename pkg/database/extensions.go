package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RequiredExtensions must exist before the policy tables are migrated.
var RequiredExtensions = []string{"pgcrypto", "vector"}

// EnsureExtensions creates the required extensions over a short-lived pgx
// connection. It runs before gorm opens its pool so AutoMigrate can use
// the vector type.
func EnsureExtensions(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	for _, ext := range RequiredExtensions {
		stmt := "CREATE EXTENSION IF NOT EXISTS " + pgx.Identifier{ext}.Sanitize()
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create extension %s: %w", ext, err)
		}
	}
	return nil
}
