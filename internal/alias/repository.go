package alias

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines alias persistence operations.
type Repository interface {
	List(ctx context.Context) ([]Alias, error)
	Get(ctx context.Context, mac string) (*Alias, error)
	Upsert(ctx context.Context, a *Alias) error
	Delete(ctx context.Context, mac string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed alias repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List returns all aliases ordered by MAC.
func (r *SQLiteRepository) List(ctx context.Context) ([]Alias, error) {
	const query = `SELECT mac, alias, created_at, updated_at FROM aliases ORDER BY mac`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying aliases: %w", err)
	}
	defer rows.Close()

	var aliases []Alias
	for rows.Next() {
		a, err := scanAlias(rows)
		if err != nil {
			return nil, err
		}
		aliases = append(aliases, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating aliases: %w", err)
	}
	return aliases, nil
}

// Get returns the alias for mac, or ErrAliasNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, mac string) (*Alias, error) {
	const query = `SELECT mac, alias, created_at, updated_at FROM aliases WHERE mac = ?`
	return scanAlias(r.db.QueryRowContext(ctx, query, mac))
}

// Upsert inserts or renames an alias. CreatedAt is preserved on update;
// both timestamps on a are refreshed from the stored row.
func (r *SQLiteRepository) Upsert(ctx context.Context, a *Alias) error {
	const query = `INSERT INTO aliases (mac, alias, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(mac) DO UPDATE SET alias = excluded.alias, updated_at = excluded.updated_at`

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.ExecContext(ctx, query, a.MAC, a.Name, now, now); err != nil {
		return fmt.Errorf("upserting alias %s: %w", a.MAC, err)
	}

	stored, err := r.Get(ctx, a.MAC)
	if err != nil {
		return err
	}
	*a = *stored
	return nil
}

// Delete removes the alias for mac, or returns ErrAliasNotFound.
func (r *SQLiteRepository) Delete(ctx context.Context, mac string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM aliases WHERE mac = ?`, mac)
	if err != nil {
		return fmt.Errorf("deleting alias %s: %w", mac, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting alias %s: %w", mac, err)
	}
	if n == 0 {
		return ErrAliasNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlias(s scanner) (*Alias, error) {
	var a Alias
	var createdAt, updatedAt string

	if err := s.Scan(&a.MAC, &a.Name, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAliasNotFound
		}
		return nil, fmt.Errorf("scanning alias: %w", err)
	}
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
