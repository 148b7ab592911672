// Package postgres provides a Postgres-backed prompt store using pgx.
//
// The schema mirrors the hosted database this service grew up against:
// a prompts table with a profiles table joined for author display names.
// Rows come back in the StoredRow shape and are converted to the
// canonical form at this boundary.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/prompt"
)

// Compile-time interface check
var _ prompt.Store = (*Store)(nil)

// Store is a Postgres-backed prompt store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a prompt store over an existing connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a connection pool from a database URL and verifies it
// with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

const selectColumns = `
	p.id, p.user_id, p.title, p.description, p.prompt, p.category,
	p.tags, p.likes, p.usage_count, p.created_at, p.updated_at,
	pr.username, pr.full_name`

const fromJoin = `
	FROM prompts p
	LEFT JOIN profiles pr ON pr.id = p.user_id`

// GetAll returns prompts matching opts, newest first. Query filtering
// happens in SQL so large libraries don't round-trip to the client.
func (s *Store) GetAll(ctx context.Context, opts prompt.ListOptions) ([]prompt.Prompt, error) {
	query := `SELECT` + selectColumns + fromJoin
	var args []any
	cond := ""

	if opts.AuthorID != "" {
		args = append(args, opts.AuthorID)
		cond = fmt.Sprintf(" WHERE p.user_id = $%d", len(args))
	}
	if opts.Query != "" {
		args = append(args, "%"+opts.Query+"%")
		clause := fmt.Sprintf(
			"(p.title ILIKE $%[1]d OR p.description ILIKE $%[1]d OR EXISTS (SELECT 1 FROM unnest(p.tags) tag WHERE tag ILIKE $%[1]d))",
			len(args),
		)
		if cond == "" {
			cond = " WHERE " + clause
		} else {
			cond += " AND " + clause
		}
	}

	query += cond + " ORDER BY p.created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []prompt.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prompt rows: %w", err)
	}
	return prompts, nil
}

// Get returns the prompt with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*prompt.Prompt, error) {
	query := `SELECT` + selectColumns + fromJoin + ` WHERE p.id = $1`

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get prompt: %w", err)
		}
		return nil, prompt.ErrNotFound
	}
	p, err := scanPrompt(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new prompt and fills in the database-assigned ID and
// creation time.
func (s *Store) Create(ctx context.Context, p *prompt.Prompt) error {
	if p == nil {
		return prompt.ErrInvalidPrompt
	}
	prompt.Normalize(p)

	query := `
		INSERT INTO prompts (user_id, title, description, prompt, category, tags, likes, usage_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query,
		nullIfEmpty(p.AuthorID), p.Title, p.Description, p.Template,
		p.Category, p.Tags, p.Likes, p.UsageCount,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create prompt: %w", err)
	}
	return nil
}

// Update replaces the editable columns and stamps updated_at.
func (s *Store) Update(ctx context.Context, p *prompt.Prompt) error {
	if p == nil || p.ID == "" {
		return prompt.ErrInvalidPrompt
	}

	query := `
		UPDATE prompts
		SET title = $2, description = $3, prompt = $4, category = $5,
		    tags = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		p.ID, p.Title, p.Description, p.Template, p.Category, p.Tags,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return prompt.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update prompt: %w", err)
	}
	return nil
}

// Delete removes the prompt with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM prompts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return prompt.ErrNotFound
	}
	return nil
}

// IncrementUsage bumps the usage counter by one.
func (s *Store) IncrementUsage(ctx context.Context, id string) error {
	return s.bump(ctx, id, "usage_count")
}

// Like bumps the like counter by one.
func (s *Store) Like(ctx context.Context, id string) error {
	return s.bump(ctx, id, "likes")
}

func (s *Store) bump(ctx context.Context, id, column string) error {
	// column is one of two compile-time constants, never user input.
	query := fmt.Sprintf(`UPDATE prompts SET %s = %s + 1 WHERE id = $1`, column, column)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return prompt.ErrNotFound
	}
	return nil
}

// scanPrompt reads one joined row into the canonical form.
func scanPrompt(rows pgx.Rows) (prompt.Prompt, error) {
	var row prompt.StoredRow
	var userID, username, fullName *string
	var updatedAt *time.Time

	err := rows.Scan(
		&row.ID, &userID, &row.Title, &row.Description, &row.PromptText,
		&row.Category, &row.Tags, &row.Likes, &row.UsageCount,
		&row.CreatedAt, &updatedAt, &username, &fullName,
	)
	if err != nil {
		return prompt.Prompt{}, fmt.Errorf("failed to scan prompt row: %w", err)
	}

	if userID != nil {
		row.UserID = *userID
	}
	row.UpdatedAt = updatedAt
	if username != nil || fullName != nil {
		row.Profile = &prompt.Profile{}
		if username != nil {
			row.Profile.Username = *username
		}
		if fullName != nil {
			row.Profile.FullName = *fullName
		}
	}

	return prompt.FromStoredRow(row), nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
