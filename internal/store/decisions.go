package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/decisionos/internal/decision"
)

const decisionColumns = `id, title, context, options, outcome, created_at, decided_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (*decision.Decision, error) {
	var (
		d         decision.Decision
		options   string
		outcome   sql.NullString
		createdAt int64
		decidedAt sql.NullInt64
	)
	if err := row.Scan(&d.ID, &d.Title, &d.Context, &options, &outcome, &createdAt, &decidedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(options), &d.Options); err != nil || d.Options == nil {
		d.Options = []string{}
	}
	d.Outcome = outcome.String
	d.CreatedAt = time.UnixMilli(createdAt).UTC()
	if decidedAt.Valid {
		t := time.UnixMilli(decidedAt.Int64).UTC()
		d.DecidedAt = &t
	}
	return &d, nil
}

// ListDecisions returns every decision of the account, newest first.
func (db *DB) ListDecisions(ctx context.Context, accountID string) ([]decision.Decision, error) {
	if accountID == "" {
		return nil, ErrNoAccount
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+decisionColumns+`
		FROM decisions WHERE account_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	out := []decision.Decision{}
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GetDecision returns a decision by id, or nil if the account has none.
func (db *DB) GetDecision(ctx context.Context, accountID, id string) (*decision.Decision, error) {
	if accountID == "" {
		return nil, ErrNoAccount
	}
	d, err := scanDecision(db.QueryRowContext(ctx, `
		SELECT `+decisionColumns+`
		FROM decisions WHERE account_id = ? AND id = ?
	`, accountID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get decision: %w", err)
	}
	return d, nil
}

// InsertDecision stores d under a fresh id. A zero CreatedAt is set to now.
func (db *DB) InsertDecision(ctx context.Context, accountID string, d decision.Decision) (*decision.Decision, error) {
	if accountID == "" {
		return nil, ErrNoAccount
	}
	d.ID = uuid.NewString()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.CreatedAt = d.CreatedAt.Truncate(time.Millisecond).UTC()
	if d.Options == nil {
		d.Options = []string{}
	}
	if d.DecidedAt != nil {
		t := d.DecidedAt.Truncate(time.Millisecond).UTC()
		d.DecidedAt = &t
	}

	options, err := json.Marshal(d.Options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO decisions (id, account_id, title, context, options, outcome, created_at, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, accountID, d.Title, d.Context, string(options), nullString(d.Outcome), d.CreatedAt.UnixMilli(), nullTime(d.DecidedAt))
	if err != nil {
		return nil, fmt.Errorf("insert decision: %w", err)
	}
	return &d, nil
}

// UpdateDecision applies a resolved patch and returns the updated record,
// or nil if the account has no decision with that id.
func (db *DB) UpdateDecision(ctx context.Context, accountID, id string, p decision.Patch) (*decision.Decision, error) {
	if accountID == "" {
		return nil, ErrNoAccount
	}

	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Context != nil {
		sets = append(sets, "context = ?")
		args = append(args, *p.Context)
	}
	if p.Options != nil {
		opts := *p.Options
		if opts == nil {
			opts = []string{}
		}
		b, err := json.Marshal(opts)
		if err != nil {
			return nil, fmt.Errorf("encode options: %w", err)
		}
		sets = append(sets, "options = ?")
		args = append(args, string(b))
	}
	if p.Outcome != nil {
		sets = append(sets, "outcome = ?")
		args = append(args, nullString(*p.Outcome))
	}
	if p.DecidedAt != nil {
		sets = append(sets, "decided_at = ?")
		if p.DecidedAt.IsZero() {
			args = append(args, nil)
		} else {
			args = append(args, p.DecidedAt.UnixMilli())
		}
	}

	if len(sets) > 0 {
		args = append(args, accountID, id)
		_, err := db.ExecContext(ctx,
			"UPDATE decisions SET "+strings.Join(sets, ", ")+" WHERE account_id = ? AND id = ?",
			args...)
		if err != nil {
			return nil, fmt.Errorf("update decision: %w", err)
		}
	}
	return db.GetDecision(ctx, accountID, id)
}

// DeleteDecision removes a decision. Deleting a missing id is not an error.
func (db *DB) DeleteDecision(ctx context.Context, accountID, id string) error {
	if accountID == "" {
		return ErrNoAccount
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM decisions WHERE account_id = ? AND id = ?", accountID, id); err != nil {
		return fmt.Errorf("delete decision: %w", err)
	}
	return nil
}

// CountDecisions returns how many decisions the account has.
func (db *DB) CountDecisions(ctx context.Context, accountID string) (int, error) {
	if accountID == "" {
		return 0, ErrNoAccount
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM decisions WHERE account_id = ?", accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return n, nil
}

// AccountDecisions adapts the store into a decision.Backend bound to one account.
func (db *DB) AccountDecisions(accountID string) decision.Backend {
	return &accountBackend{db: db, accountID: accountID}
}

type accountBackend struct {
	db        *DB
	accountID string
}

func (b *accountBackend) List(ctx context.Context) ([]decision.Decision, error) {
	return b.db.ListDecisions(ctx, b.accountID)
}

func (b *accountBackend) Get(ctx context.Context, id string) (*decision.Decision, error) {
	return b.db.GetDecision(ctx, b.accountID, id)
}

func (b *accountBackend) Insert(ctx context.Context, d decision.Decision) (*decision.Decision, error) {
	return b.db.InsertDecision(ctx, b.accountID, d)
}

func (b *accountBackend) Update(ctx context.Context, id string, p decision.Patch) (*decision.Decision, error) {
	return b.db.UpdateDecision(ctx, b.accountID, id, p)
}

func (b *accountBackend) Delete(ctx context.Context, id string) error {
	return b.db.DeleteDecision(ctx, b.accountID, id)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}
