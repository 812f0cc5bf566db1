package data

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// appleEpoch is the zero point of chat.db date columns
var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// nanosecondThreshold separates nanosecond dates (modern systems) from second dates
const nanosecondThreshold = 1_000_000_000_000

// chatDBRepo implements the Message repository over a Messages chat.db
type chatDBRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewChatDBRepo opens chat.db read-only and probes it.
// Every failure wraps repo.ErrStoreUnavailable.
func NewChatDBRepo(path string, logger *zap.Logger) (repo.MessageRepo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", repo.ErrStoreUnavailable, err)
	}

	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", repo.ErrStoreUnavailable, path, err)
	}

	// Probe: fails here when full disk access is missing or the schema is wrong
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM (SELECT ROWID FROM message LIMIT 1)`).Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: probe %s: %v", repo.ErrStoreUnavailable, path, err)
	}

	logger.Info("message store opened", zap.String("path", path))
	return &chatDBRepo{db: db, logger: logger}, nil
}

func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}
	return u.String()
}

// Latest gets the most recent messages, newest first
func (r *chatDBRepo) Latest(ctx context.Context, limit int) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ROWID, text, date, is_from_me
		FROM message
		WHERE text IS NOT NULL
		ORDER BY date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest messages: %w", err)
	}
	defer rows.Close()

	return r.scanMessages(rows)
}

// After gets messages newer than id, newest first
func (r *chatDBRepo) After(ctx context.Context, id int64) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ROWID, text, date, is_from_me
		FROM message
		WHERE ROWID > ? AND text IS NOT NULL
		ORDER BY date DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query new messages: %w", err)
	}
	defer rows.Close()

	return r.scanMessages(rows)
}

// Close closes the database connection
func (r *chatDBRepo) Close() error {
	return r.db.Close()
}

func (r *chatDBRepo) scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		var (
			id       int64
			text     sql.NullString
			date     sql.NullInt64
			isFromMe sql.NullInt64
		)
		if err := rows.Scan(&id, &text, &date, &isFromMe); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if !text.Valid || text.String == "" {
			continue
		}

		messages = append(messages, domain.Message{
			ID:        id,
			Text:      text.String,
			Timestamp: appleTime(date.Int64),
			IsFromMe:  isFromMe.Int64 != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// appleTime converts a chat.db date value to wall time
func appleTime(v int64) time.Time {
	if v > nanosecondThreshold {
		return appleEpoch.Add(time.Duration(v))
	}
	return appleEpoch.Add(time.Duration(v) * time.Second)
}
