// Package library keeps generated exercises so they can be rendered,
// exported and practised again later.
//
// Records are msgpack-encoded under Key{"exercise", <id>} in a Store,
// either BadgerDB on disk or an in-memory map for tests.
package library

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/intone/pkg/exercise"
)

var (
	// ErrNotFound is returned when no exercise matches an ID.
	ErrNotFound = errors.New("library: not found")

	// ErrAmbiguous is returned when an ID prefix matches several exercises.
	ErrAmbiguous = errors.New("library: ambiguous id")
)

const exercisePrefix = "exercise"

// Record is a stored exercise.
type Record struct {
	Exercise  *exercise.Spec `msgpack:"exercise" json:"exercise" yaml:"exercise"`
	Profile   string         `msgpack:"profile,omitempty" json:"profile,omitempty" yaml:"profile,omitempty"`
	Seed      uint64         `msgpack:"seed,omitempty" json:"seed,omitempty" yaml:"seed,omitempty"`
	CreatedAt time.Time      `msgpack:"created_at" json:"created_at" yaml:"created_at"`
}

// ID returns the exercise ID.
func (r *Record) ID() string {
	if r.Exercise == nil {
		return ""
	}
	return r.Exercise.ID
}

// Library stores exercise records in a Store.
type Library struct {
	store Store
}

// New wraps store. The library takes ownership and closes it on Close.
func New(store Store) *Library {
	return &Library{store: store}
}

// Open opens an on-disk library in dir.
func Open(dir string) (*Library, error) {
	store, err := NewBadger(BadgerOptions{Dir: dir})
	if err != nil {
		return nil, err
	}
	return New(store), nil
}

func recordKey(id string) Key {
	return Key{exercisePrefix, id}
}

// Put stores rec, replacing any record with the same exercise ID. A zero
// CreatedAt is set to now.
func (l *Library) Put(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID() == "" {
		return errors.New("library: record without exercise id")
	}
	if strings.ContainsRune(rec.ID(), separator) {
		return fmt.Errorf("library: invalid exercise id %q", rec.ID())
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("library: encode %s: %w", rec.ID(), err)
	}
	if err := l.store.Set(ctx, recordKey(rec.ID()), data); err != nil {
		return fmt.Errorf("library: put %s: %w", rec.ID(), err)
	}
	slog.Debug("library: stored exercise", slog.String("exercise", rec.ID()), slog.Int("notes", len(rec.Exercise.Notes)))
	return nil
}

// Get returns the record for id.
func (l *Library) Get(ctx context.Context, id string) (*Record, error) {
	data, err := l.store.Get(ctx, recordKey(id))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("library: get %s: %w", id, err)
	}
	return decodeRecord(data)
}

// Resolve returns the record whose ID is id or, failing that, the single
// record whose ID starts with id.
func (l *Library) Resolve(ctx context.Context, id string) (*Record, error) {
	rec, err := l.Get(ctx, id)
	if !errors.Is(err, ErrNotFound) {
		return rec, err
	}
	var match *Record
	for r, err := range l.all(ctx) {
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(r.ID(), id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
		}
		match = r
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Delete removes the record for id. It returns ErrNotFound when there is
// no such record.
func (l *Library) Delete(ctx context.Context, id string) error {
	if _, err := l.Get(ctx, id); err != nil {
		return err
	}
	if err := l.store.Delete(ctx, recordKey(id)); err != nil {
		return fmt.Errorf("library: delete %s: %w", id, err)
	}
	slog.Debug("library: deleted exercise", slog.String("exercise", id))
	return nil
}

// List returns all records, newest first.
func (l *Library) List(ctx context.Context) ([]*Record, error) {
	var recs []*Record
	for r, err := range l.all(ctx) {
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	slices.SortStableFunc(recs, func(a, b *Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
	return recs, nil
}

// all yields every record in key order, skipping entries that no longer
// decode.
func (l *Library) all(ctx context.Context) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for entry, err := range l.store.List(ctx, Key{exercisePrefix}) {
			if err != nil {
				yield(nil, fmt.Errorf("library: list: %w", err))
				return
			}
			rec, err := decodeRecord(entry.Value)
			if err != nil {
				slog.Warn("library: skipping malformed record", slog.String("key", entry.Key.String()), slog.Any("error", err))
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Close closes the underlying store.
func (l *Library) Close() error {
	return l.store.Close()
}

func decodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("library: decode: %w", err)
	}
	if rec.Exercise == nil {
		return nil, errors.New("library: decode: record without exercise")
	}
	return &rec, nil
}
