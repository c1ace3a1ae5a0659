// Package history owns the persisted clipboard history.
//
// A Store wraps a single SQLite connection behind a mutex. Every operation
// holds the mutex for its full duration, so operations are totally ordered
// and a query never observes a half-applied capture.
package history

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	table = "history"

	// DefaultFileName is the store file created next to the executable.
	DefaultFileName = "clipboard.db"
)

var columns = []string{"id", "source_app", "icon_path", "content_type", "content", "timestamp"}

// ErrNotFound is returned when an id does not exist.
var ErrNotFound = errors.New("history record not found")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the sole owner of the history table.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// DefaultPath returns the store location derived from the running
// executable's directory.
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName), nil
}

// Open opens (creating if necessary) the store at path and applies the schema.
// Any error here means there is no usable history.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	// One logical connection from here on; Store.mu serializes its use.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Upsert records a capture. If a row with the same content type and
// byte-identical content exists, its source app, icon path and timestamp are
// refreshed and its id returned; otherwise a new row is inserted.
func (s *Store) Upsert(ctx context.Context, typ ContentType, content []byte, sourceApp, iconPath string) (int64, error) {
	if !typ.Valid() {
		return 0, fmt.Errorf("upsert: invalid content type %q", typ)
	}
	if content == nil {
		content = []byte{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := formatTime(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("upsert: begin: %w", err)
	}
	defer tx.Rollback()

	// Rows written by other tools may hold text with TEXT storage class, which
	// never compares equal to a BLOB parameter.
	query, args, err := sq.Select("id").From(table).
		Where(sq.Eq{"content_type": string(typ)}).
		Where("CAST(content AS BLOB) = ?", content).
		Limit(1).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("upsert: build lookup: %w", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		query, args, err = sq.Insert(table).
			Columns("source_app", "icon_path", "content_type", "content", "timestamp", "seq").
			Values(sourceApp, iconPath, string(typ), content, ts, nextSeq).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("upsert: build insert: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("upsert: insert: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("upsert: insert id: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("upsert: lookup: %w", err)
	default:
		query, args, err = sq.Update(table).
			Set("source_app", sourceApp).
			Set("icon_path", iconPath).
			Set("timestamp", ts).
			Set("seq", nextSeq).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("upsert: build update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("upsert: update %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("upsert: commit: %w", err)
	}
	return id, nil
}

// Touch bumps a record's timestamp to now without altering anything else.
// The timestamp never moves backwards.
func (s *Store) Touch(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := sq.Update(table).
		Set("timestamp", sq.Expr("MAX(timestamp, ?)", formatTime(s.now()))).
		Set("seq", nextSeq).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("touch %d: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("touch %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("touch %d: %w", id, ErrNotFound)
	}
	return nil
}

// Get returns a single record.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.query(ctx, selectRecords().Where(sq.Eq{"id": id}))
	if err != nil {
		return Record{}, fmt.Errorf("get %d: %w", id, err)
	}
	if len(recs) == 0 {
		return Record{}, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	return recs[0], nil
}

// ListAll returns every record, most recent first. The whole history is
// loaded into memory.
func (s *Store) ListAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.query(ctx, selectRecords())
	if err != nil {
		return nil, fmt.Errorf("list all: %w", err)
	}
	return recs, nil
}

// ListRecent returns at most limit records, most recent first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.query(ctx, selectRecords().Limit(uint64(limit)))
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	return recs, nil
}

// Search returns text records containing term, most recent first. Matching
// is done on the raw stored bytes: ASCII letters compare case-insensitively,
// every other byte (NUL and invalid UTF-8 included) must match exactly, and
// no character in term is a wildcard. Image records are never returned.
func (s *Store) Search(ctx context.Context, term string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.query(ctx, selectRecords().Where(sq.Eq{"content_type": string(Text)}))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	needle := asciiLower([]byte(term))
	out := recs[:0]
	for _, r := range recs {
		if bytes.Contains(asciiLower(r.Content), needle) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := sq.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func selectRecords() sq.SelectBuilder {
	return sq.Select(columns...).From(table).OrderBy("timestamp DESC", "seq DESC", "id DESC")
}

// query runs b and decodes every row. Must be called with s.mu held.
func (s *Store) query(ctx context.Context, b sq.SelectBuilder) ([]Record, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := s.now()
	recs := []Record{}
	for rows.Next() {
		var (
			id                       int64
			sourceApp, iconPath, typ string
			content, ts              any
		)
		if err := rows.Scan(&id, &sourceApp, &iconPath, &typ, &content, &ts); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		recs = append(recs, decodeRow(id, sourceApp, iconPath, typ, content, ts, now))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// nextSeq orders writes that land in the same timestamp second.
var nextSeq = sq.Expr("(SELECT COALESCE(MAX(seq), 0) + 1 FROM " + table + ")")

// asciiLower returns a copy of b with only ASCII letters folded.
func asciiLower(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
