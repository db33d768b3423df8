package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

// AdminCredentials is the single administrator identity's durable login
// material. It is seeded once at boot from ADMIN_USERNAME/ADMIN_PASSWORD
// and thereafter mutated only by the change-password and reset-password
// flows, so a password rotation survives a process restart.
type AdminCredentials struct {
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

// SeedAdminCredentials inserts the boot-time administrator identity if no
// row exists yet; an existing row (from a prior change-password call) is
// left untouched.
func (s *Store) SeedAdminCredentials(ctx context.Context, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO admin_credentials (id, username, password_hash) VALUES (1, ?, ?)
	`, username, passwordHash)
	if err != nil {
		return fmt.Errorf("store: seed admin credentials: %w", err)
	}
	return nil
}

// GetAdminCredentials returns the current administrator identity.
func (s *Store) GetAdminCredentials(ctx context.Context) (*AdminCredentials, error) {
	var c AdminCredentials
	err := s.db.GetContext(ctx, &c, `SELECT username, password_hash FROM admin_credentials WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: admin credentials: %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get admin credentials: %w", err)
	}
	return &c, nil
}

// SetAdminPasswordHash updates the administrator password, used by the
// change-password and reset-password flows.
func (s *Store) SetAdminPasswordHash(ctx context.Context, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE admin_credentials SET password_hash = ? WHERE id = 1`, passwordHash)
	if err != nil {
		return fmt.Errorf("store: set admin password: %w", err)
	}
	return nil
}
