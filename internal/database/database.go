// Package database is the SurrealDB implementation of the chat message store
// and group directory.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/gobychat/internal/config"
)

// NewDB dials cfg.DBUrl, signs in when a user is configured and selects the
// namespace and database. A half-opened connection is closed on failure.
func NewDB(ctx context.Context, cfg *config.Config) (db *surrealdb.DB, err error) {
	db, err = surrealdb.FromEndpointURLString(ctx, cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("connect to surrealdb at %s: %w", cfg.DBUrl, err)
	}
	defer func() {
		if err != nil {
			_ = db.Close(ctx)
			db = nil
		}
	}()

	if cfg.DBUser != "" {
		auth := &surrealdb.Auth{Username: cfg.DBUser, Password: cfg.DBPass}
		if _, err = db.SignIn(ctx, auth); err != nil {
			return nil, fmt.Errorf("sign in to surrealdb as %s: %w", cfg.DBUser, err)
		}
	}
	if err = db.Use(ctx, cfg.DBNs, cfg.DBDb); err != nil {
		return nil, fmt.Errorf("use surrealdb %s/%s: %w", cfg.DBNs, cfg.DBDb, err)
	}

	slog.Info("Connected to SurrealDB", "component", "database", "namespace", cfg.DBNs, "database", cfg.DBDb)
	return db, nil
}
