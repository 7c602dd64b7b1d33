// Package store is the persistence leaf: two flat record collections (users
// and boards) kept as whole JSON documents, plus point-in-time backups of the
// boards document.
//
// LAYERING:
//
//	Store   → typed ReadAll/WriteAll, backup naming and retention
//	Backend → where the bytes live (jsonfile: files on disk, sqlite: rows)
//
// ReadAll never fails: a missing, unreadable or malformed document degrades to
// an empty collection and a warning in the log, and a single record that does
// not decode is skipped. ReadRecords is the strict variant for
// read-modify-write callers: it hands back raw elements and reports a document
// it could not read, so nothing unread is ever written over. Writes report
// failure as a *WriteError value instead of panicking.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Collection names one of the two record collections.
type Collection string

const (
	Users  Collection = "users"
	Boards Collection = "boards"
)

// DefaultRetention is how many board backups are kept when no limit is configured.
const DefaultRetention = 1000

// backupPrefix and backupSuffix frame every backup name:
// boards-2025-01-02T03-04-05-000000000Z.json
const (
	backupPrefix = "boards-"
	backupSuffix = ".json"
)

// ErrNoDocument is returned by a Backend when the requested document does not exist.
var ErrNoDocument = errors.New("store: document does not exist")

// Backend stores raw documents. Implementations must replace a document
// wholesale on Write; partial updates are never issued.
type Backend interface {
	Read(ctx context.Context, c Collection) ([]byte, error)
	Write(ctx context.Context, c Collection, doc []byte) error
	// Snapshot copies the current document of c under the given backup name.
	// It returns ErrNoDocument when there is nothing to copy.
	Snapshot(ctx context.Context, c Collection, name string) error
	ListSnapshots(ctx context.Context) ([]string, error)
	RemoveSnapshot(ctx context.Context, name string) error
	Close() error
}

// Recorder receives backup events. metrics.Collector satisfies it.
type Recorder interface {
	RecordBackup()
	RecordBackupsPruned(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordBackup()           {}
func (nopRecorder) RecordBackupsPruned(int) {}

// WriteError is the explicit failure result of WriteAll.
type WriteError struct {
	Collection Collection
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store: writing %s: %v", e.Collection, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store is the typed front of a Backend.
type Store struct {
	backend   Backend
	logger    *slog.Logger
	retention int
	recorder  Recorder
	now       func() time.Time

	mu        sync.Mutex // guards lastStamp
	lastStamp time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithRetention sets how many board backups survive pruning. Values below 1 are ignored.
func WithRetention(k int) Option {
	return func(s *Store) {
		if k > 0 {
			s.retention = k
		}
	}
}

// WithRecorder reports backup activity to r.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock replaces time.Now; tests use it to get predictable backup names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New wraps a backend.
func New(backend Backend, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		logger:    logger,
		retention: DefaultRetention,
		recorder:  nopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retention returns the configured backup window.
func (s *Store) Retention() int { return s.retention }

// Close releases the backend.
func (s *Store) Close() error { return s.backend.Close() }

// ReadRecords returns the raw elements of the collection, in stored order.
// A missing or blank document is an empty collection. A backend failure, or
// a document that is not a JSON array, is returned as an error.
func (s *Store) ReadRecords(ctx context.Context, c Collection) ([]json.RawMessage, error) {
	doc, err := s.backend.Read(ctx, c)
	if err != nil {
		if errors.Is(err, ErrNoDocument) {
			return []json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("store: reading %s: %w", c, err)
	}
	if len(bytes.TrimSpace(doc)) == 0 {
		return []json.RawMessage{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(doc, &records); err != nil {
		return nil, fmt.Errorf("store: %s is not a well-formed array: %w", c, err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

// ReadAll returns every record of the collection that decodes into T. It
// never fails: a document ReadRecords rejects is logged and read as empty,
// and a record that does not decode is logged and skipped.
func ReadAll[T any](ctx context.Context, s *Store, c Collection) []T {
	records, err := s.ReadRecords(ctx, c)
	if err != nil {
		s.logger.Warn("reading collection failed, using empty collection",
			slog.String("collection", string(c)),
			slog.String("error", err.Error()),
		)
		return []T{}
	}

	out := make([]T, 0, len(records))
	for i, raw := range records {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			s.logger.Warn("skipping unreadable record",
				slog.String("collection", string(c)),
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, v)
	}
	return out
}

// WriteAll serialises records (2-space indent, struct field order) and
// replaces the collection document. A nil result means success.
func WriteAll[T any](ctx context.Context, s *Store, c Collection, records []T) *WriteError {
	if records == nil {
		records = []T{}
	}
	doc, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		s.logger.Error("encoding collection failed",
			slog.String("collection", string(c)),
			slog.String("error", err.Error()),
		)
		return &WriteError{Collection: c, Err: err}
	}
	if err := s.backend.Write(ctx, c, doc); err != nil {
		s.logger.Error("writing collection failed",
			slog.String("collection", string(c)),
			slog.String("error", err.Error()),
		)
		return &WriteError{Collection: c, Err: err}
	}
	return nil
}

// BackupBoards snapshots the boards document and prunes old backups so that at
// most Retention() remain. It is best-effort: failures are logged, never returned.
func (s *Store) BackupBoards(ctx context.Context) {
	name := s.nextBackupName()
	if err := s.backend.Snapshot(ctx, Boards, name); err != nil {
		if !errors.Is(err, ErrNoDocument) {
			s.logger.Error("board backup failed",
				slog.String("backup", name),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	s.recorder.RecordBackup()
	s.logger.Debug("board backup written", slog.String("backup", name))

	names, err := s.backend.ListSnapshots(ctx)
	if err != nil {
		s.logger.Error("listing board backups failed", slog.String("error", err.Error()))
		return
	}
	names = filterBackups(names)
	// The timestamp format is fixed-width, so lexicographic order is chronological.
	sort.Strings(names)

	excess := len(names) - s.retention
	removed := 0
	for i := 0; i < excess; i++ {
		if err := s.backend.RemoveSnapshot(ctx, names[i]); err != nil {
			s.logger.Warn("removing old board backup failed",
				slog.String("backup", names[i]),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.recorder.RecordBackupsPruned(removed)
	}
}

// Backups lists the current backup names, oldest first.
func (s *Store) Backups(ctx context.Context) ([]string, error) {
	names, err := s.backend.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	names = filterBackups(names)
	sort.Strings(names)
	return names, nil
}

// nextBackupName builds a sortable, filesystem-safe name. Two backups taken
// within the same clock tick still get distinct, increasing names.
func (s *Store) nextBackupName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if !ts.After(s.lastStamp) {
		ts = s.lastStamp.Add(time.Nanosecond)
	}
	s.lastStamp = ts
	return BackupName(ts)
}

// BackupName formats the backup name for a timestamp, replacing the
// filesystem-unsafe ":" and "." with "-".
func BackupName(ts time.Time) string {
	stamp := ts.UTC().Format("2006-01-02T15:04:05.000000000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return backupPrefix + stamp + backupSuffix
}

func filterBackups(names []string) []string {
	out := names[:0:0]
	for _, n := range names {
		if strings.HasSuffix(n, backupSuffix) {
			out = append(out, n)
		}
	}
	return out
}
