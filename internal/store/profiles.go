package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Profile is the synthesized profile of one account. DecisionsCount is the
// decision count it was computed from.
type Profile struct {
	AccountID      string
	Fields         map[string]string
	DecisionsCount int
	UpdatedAt      time.Time
}

// GetProfile returns the stored profile, or nil if none exists. A stored
// value that no longer decodes yields a Profile with nil Fields.
func (db *DB) GetProfile(ctx context.Context, accountID string) (*Profile, error) {
	if accountID == "" {
		return nil, ErrNoAccount
	}
	var (
		p         = Profile{AccountID: accountID}
		raw       string
		updatedAt int64
	)
	err := db.QueryRowContext(ctx, `
		SELECT profile, decisions_count, updated_at
		FROM user_profiles WHERE account_id = ?
	`, accountID).Scan(&raw, &p.DecisionsCount, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if json.Unmarshal([]byte(raw), &p.Fields) != nil {
		p.Fields = nil
	}
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &p, nil
}

// UpsertProfile inserts or replaces the account's profile row.
func (db *DB) UpsertProfile(ctx context.Context, p Profile) error {
	if p.AccountID == "" {
		return ErrNoAccount
	}
	fields := p.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO user_profiles (account_id, profile, decisions_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			profile = excluded.profile,
			decisions_count = excluded.decisions_count,
			updated_at = excluded.updated_at
	`, p.AccountID, string(raw), p.DecisionsCount, p.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
