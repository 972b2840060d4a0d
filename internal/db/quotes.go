package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested quote does not exist.
var ErrNotFound = errors.New("quote not found")

// timeLayout is fixed-width so that lexicographic ordering of the stored
// created_at column matches chronological ordering (RFC3339Nano trims
// trailing zeros and breaks that property).
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Quote is a persisted quote and the metadata of the images generated
// for it. Rows are immutable apart from the image filenames, which are
// assigned once after the files have been written.
type Quote struct {
	ID                   int64
	Text                 string
	DateGenerated        string
	Seed                 sql.NullString
	ImagePrompt          string
	RawImageFilename     string
	OverlayImageFilename string
	CreatedAt            time.Time
}

// CreateQuoteParams holds the fields for a new quote row.
type CreateQuoteParams struct {
	Text        string
	Seed        string
	ImagePrompt string
}

const quoteColumns = `id, quote_text, date_generated, seed, image_prompt,
	raw_image_filename, overlay_image_filename, created_at`

// CreateQuote inserts a new quote and returns it with its assigned id and
// creation time. created_at is written explicitly in RFC 3339 so that
// recency ordering is stable across same-second inserts (id breaks ties).
func (s *Store) CreateQuote(ctx context.Context, params CreateQuoteParams) (Quote, error) {
	now := time.Now().UTC()
	seed := sql.NullString{String: params.Seed, Valid: params.Seed != ""}

	res, err := s.ExecContext(ctx, `
		INSERT INTO quotes (quote_text, date_generated, seed, image_prompt, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, params.Text, now.Format("2006-01-02"), seed, params.ImagePrompt, now.Format(timeLayout))
	if err != nil {
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Quote{}, fmt.Errorf("last insert id: %w", err)
	}

	return Quote{
		ID:            id,
		Text:          params.Text,
		DateGenerated: now.Format("2006-01-02"),
		Seed:          seed,
		ImagePrompt:   params.ImagePrompt,
		CreatedAt:     now,
	}, nil
}

// UpdateQuoteImages records the filenames of the stored raw and overlay
// images for a quote.
func (s *Store) UpdateQuoteImages(ctx context.Context, id int64, rawFilename, overlayFilename string) error {
	res, err := s.ExecContext(ctx, `
		UPDATE quotes
		SET raw_image_filename = ?, overlay_image_filename = ?
		WHERE id = ?
	`, rawFilename, overlayFilename, id)
	if err != nil {
		return fmt.Errorf("update quote images: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecentQuoteTexts returns the texts of the n most recently created
// quotes, most recent first. Fewer than n quotes returns all of them.
func (s *Store) RecentQuoteTexts(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.QueryContext(ctx, `
		SELECT quote_text FROM quotes
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent quotes: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan quote text: %w", err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent quotes: %w", err)
	}

	return texts, nil
}

// GetQuote returns a quote by id, or ErrNotFound.
func (s *Store) GetQuote(ctx context.Context, id int64) (Quote, error) {
	row := s.QueryRowContext(ctx, `
		SELECT `+quoteColumns+` FROM quotes WHERE id = ?
	`, id)

	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, ErrNotFound
	}
	if err != nil {
		return Quote{}, fmt.Errorf("get quote: %w", err)
	}
	return q, nil
}

// ListQuotes returns all quotes, most recent first.
func (s *Store) ListQuotes(ctx context.Context) ([]Quote, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT `+quoteColumns+` FROM quotes
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (Quote, error) {
	var q Quote
	var createdAt string
	if err := row.Scan(
		&q.ID,
		&q.Text,
		&q.DateGenerated,
		&q.Seed,
		&q.ImagePrompt,
		&q.RawImageFilename,
		&q.OverlayImageFilename,
		&createdAt,
	); err != nil {
		return Quote{}, err
	}

	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Quote{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	q.CreatedAt = ts

	return q, nil
}
