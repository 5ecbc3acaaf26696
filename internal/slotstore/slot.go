package slotstore

import (
	"context"
	"encoding/json"
	"github.com/agajdosi/artificial-witness/internal/errors"
	"log/slog"
	"sync"
)

// Slot is one independently persisted and independently observable named value.
//
// Values are kept in encoded form so that every Get hands out a fresh copy; callers can mutate what they receive
// without touching the slot. Every write replaces the whole value and bumps the slot version.
type Slot[T any] struct {
	store     *Store
	key       string
	transient bool
	logger    *slog.Logger

	// writeMu serializes writers so that the persisted order matches the visible order.
	writeMu sync.Mutex
	// mu guards the fields below.
	mu          sync.RWMutex
	raw         []byte
	version     uint64
	subscribers map[uint64]func(T)
	nextSubID   uint64
}

type options struct {
	transient bool
}

type Option func(*options)

// Transient keeps the slot in memory only. It starts from the default on every open.
func Transient() Option {
	return func(o *options) {
		o.transient = true
	}
}

// Open rehydrates the slot key from store, falling back to def when nothing is persisted or the persisted value
// cannot be parsed. Rehydration never fails; problems are logged.
func Open[T any](ctx context.Context, store *Store, key string, def T, opts ...Option) *Slot[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	s := &Slot[T]{
		store:       store,
		key:         key,
		transient:   o.transient,
		logger:      store.logger.With(slog.String("slot", key)),
		subscribers: map[uint64]func(T){},
	}

	defRaw, err := json.Marshal(def)
	if err != nil {
		// Defaults are static values of known types, so this is a programming error.
		panic(errors.Wrap(err, "marshal slot default", slog.String("key", key)))
	}
	s.raw = defRaw

	if s.transient {
		return s
	}

	persisted, ok, err := store.load(ctx, key)
	switch {
	case err != nil:
		s.logger.LogAttrs(ctx, slog.LevelWarn, "could not load slot, using default", errors.SlogError(err))
	case !ok:
		s.logger.LogAttrs(ctx, slog.LevelDebug, "slot not persisted yet, using default")
	default:
		var probe T
		if err = json.Unmarshal(persisted, &probe); err != nil {
			err = errors.Wrap(err, "unmarshal slot")
			s.logger.LogAttrs(ctx, slog.LevelWarn, "could not parse slot, using default", errors.SlogError(err))
		} else {
			s.raw = persisted
		}
	}
	return s
}

// Key returns the slot name.
func (s *Slot[T]) Key() string {
	return s.key
}

// Get returns a copy of the current value.
func (s *Slot[T]) Get() T {
	s.mu.RLock()
	raw := s.raw
	s.mu.RUnlock()
	return s.decode(raw)
}

// Snapshot returns a copy of the current value together with its version for a later CompareAndSet.
func (s *Slot[T]) Snapshot() (T, uint64) {
	s.mu.RLock()
	raw, version := s.raw, s.version
	s.mu.RUnlock()
	return s.decode(raw), version
}

// Version returns the number of writes since the slot was opened.
func (s *Slot[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set replaces the value, persists it and notifies subscribers.
//
// The new value becomes visible even if persisting fails; the returned error only reports the lost durability.
// The returned version identifies this write for CompareAndSet.
func (s *Slot[T]) Set(ctx context.Context, value T) (uint64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.write(ctx, value)
}

// CompareAndSet writes value only if no other write happened since version was observed.
func (s *Slot[T]) CompareAndSet(ctx context.Context, version uint64, value T) (uint64, bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if current := s.Version(); current != version {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "rejected stale write",
			slog.Uint64("version", version), slog.Uint64("current", current))
		return current, false, nil
	}
	newVersion, err := s.write(ctx, value)
	return newVersion, true, err
}

// Subscribe calls fn with the current value and then after every write, in write order.
// fn must not write to the same slot. Call the returned function to unsubscribe.
func (s *Slot[T]) Subscribe(fn func(T)) func() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	raw := s.raw
	s.mu.Unlock()

	fn(s.decode(raw))

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// write must be called with writeMu held.
func (s *Slot[T]) write(ctx context.Context, value T) (uint64, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return s.Version(), errors.Wrap(err, "marshal slot", slog.String("key", s.key))
	}

	s.mu.Lock()
	s.raw = raw
	s.version++
	version := s.version
	subscribers := make([]func(T), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	var persistErr error
	if !s.transient {
		if persistErr = s.store.save(ctx, s.key, raw); persistErr != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "could not persist slot", errors.SlogError(persistErr))
		}
	}

	for _, fn := range subscribers {
		fn(s.decode(raw))
	}

	return version, persistErr
}

func (s *Slot[T]) decode(raw []byte) T {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		// raw was produced by json.Marshal of T, so it always decodes.
		panic(errors.Wrap(err, "unmarshal slot", slog.String("key", s.key)))
	}
	return v
}
