package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/skischeduler/internal/apperr"
	"github.com/2beens/skischeduler/internal/telemetry/metrics"
	"github.com/2beens/skischeduler/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrCollectionNotExist = errors.New("collection does not exist")

// Collection is a named JSON document, always read and written as a whole
type Collection struct {
	Name string
	// document used when the collection was never written
	Empty []byte
}

var (
	Exercises = Collection{Name: "exercises", Empty: []byte("[]")}
	Sessions  = Collection{Name: "sessions", Empty: []byte("[]")}
	Schedules = Collection{Name: "schedules", Empty: []byte("{}")}
)

// Backend persists raw collection documents.
// Read returns ErrCollectionNotExist for a collection never written.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
}

type Store struct {
	backend Backend
	// nil when disabled
	cache       *freecache.Cache
	cacheSizeMB int
	metrics     *metrics.Manager

	locksMutex sync.Mutex
	locks      map[string]*sync.Mutex
	// collections already reported as too large for the cache
	tooLarge sync.Map
}

// MaxCacheEntrySize is about the largest collection, in bytes, a cache of cacheSizeMB holds.
// freecache refuses entries over 1/1024 of its size.
func MaxCacheEntrySize(cacheSizeMB int) int {
	return cacheSizeMB * 1024
}

// New creates a store over backend. cacheSizeMB of 0 disables the read cache.
func New(backend Backend, cacheSizeMB int, metricsManager *metrics.Manager) *Store {
	s := &Store{
		backend: backend,
		metrics: metricsManager,
		locks:   map[string]*sync.Mutex{},
	}
	if cacheSizeMB > 0 {
		s.cache = freecache.NewCache(cacheSizeMB * 1024 * 1024)
		s.cacheSizeMB = cacheSizeMB
	}
	return s
}

func (s *Store) lock(name string) *sync.Mutex {
	s.locksMutex.Lock()
	defer s.locksMutex.Unlock()

	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *Store) countOp(collection, op string, err error) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.CounterStoreOps.With(prometheus.Labels{
		"collection": collection,
		"op":         op,
		"result":     result,
	}).Inc()
}

// read returns the raw collection. locked tells whether the caller already holds
// the collection lock. The cache is only filled under that lock, so a backend read
// racing a write can never put an older document into the cache.
func (s *Store) read(ctx context.Context, c Collection, locked bool) (_ []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.read")
	span.SetAttributes(attribute.String("collection", c.Name))
	defer func() {
		s.countOp(c.Name, "read", err)
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if s.cache == nil {
		return s.readBackend(ctx, c)
	}

	if data, err := s.cache.Get([]byte(c.Name)); err == nil {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return data, nil
	}

	if !locked {
		l := s.lock(c.Name)
		l.Lock()
		defer l.Unlock()

		// filled by a writer or another reader while waiting
		if data, err := s.cache.Get([]byte(c.Name)); err == nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return data, nil
		}
	}

	data, err := s.readBackend(ctx, c)
	if err != nil {
		return nil, err
	}

	s.cacheSet(c, data)
	return data, nil
}

func (s *Store) readBackend(ctx context.Context, c Collection) ([]byte, error) {
	data, err := s.backend.Read(ctx, c.Name)
	if errors.Is(err, ErrCollectionNotExist) {
		return c.Empty, nil
	}
	if err != nil {
		return nil, apperr.Storage("read "+c.Name, err)
	}
	return data, nil
}

func (s *Store) write(ctx context.Context, c Collection, data []byte) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.write")
	span.SetAttributes(attribute.String("collection", c.Name))
	defer func() {
		s.countOp(c.Name, "write", err)
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if s.metrics != nil {
		defer func(begin time.Time) {
			s.metrics.HistStoreWriteDuration.WithLabelValues(c.Name).Observe(time.Since(begin).Seconds())
		}(time.Now())
	}

	if err := s.backend.Write(ctx, c.Name, data); err != nil {
		// the cached copy might not reflect what is persisted anymore
		s.cacheDel(c)
		return apperr.Storage("write "+c.Name, err)
	}

	s.cacheSet(c, data)
	return nil
}

func (s *Store) cacheSet(c Collection, data []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set([]byte(c.Name), data, 0); err != nil {
		// the collection will be read from the backend
		if errors.Is(err, freecache.ErrLargeEntry) {
			if _, reported := s.tooLarge.LoadOrStore(c.Name, true); !reported {
				log.Warnf(
					"store: collection [%s] has %d bytes, over the %d bytes cache entry limit, not cached (raise cache_size_mb)",
					c.Name, len(data), MaxCacheEntrySize(s.cacheSizeMB),
				)
			}
		} else {
			log.Debugf("store: cache collection [%s]: %s", c.Name, err)
		}
		s.cacheDel(c)
	}
}

func (s *Store) cacheDel(c Collection) {
	if s.cache == nil {
		return
	}
	s.cache.Del([]byte(c.Name))
}

func decode[T any](c Collection, data []byte) (T, error) {
	var doc T
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = c.Empty
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, apperr.Storage("decode "+c.Name, err)
	}
	return doc, nil
}

func encode[T any](c Collection, doc T) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, apperr.Storage("encode "+c.Name, err)
	}
	if bytes.Equal(data, []byte("null")) {
		return c.Empty, nil
	}
	return data, nil
}

// Load reads and decodes the whole collection.
// A collection never written decodes from its empty document.
func Load[T any](ctx context.Context, s *Store, c Collection) (T, error) {
	return load[T](ctx, s, c, false)
}

func load[T any](ctx context.Context, s *Store, c Collection, locked bool) (T, error) {
	data, err := s.read(ctx, c, locked)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](c, data)
}

// Save overwrites the whole collection with doc
func Save[T any](ctx context.Context, s *Store, c Collection, doc T) error {
	l := s.lock(c.Name)
	l.Lock()
	defer l.Unlock()

	return save(ctx, s, c, doc)
}

func save[T any](ctx context.Context, s *Store, c Collection, doc T) error {
	data, err := encode(c, doc)
	if err != nil {
		return err
	}
	return s.write(ctx, c, data)
}

// Mutate runs a load, fn, save cycle holding the collection lock, so concurrent
// mutations of the same collection do not overwrite each other.
// Nothing is saved if fn returns an error.
func Mutate[T any](ctx context.Context, s *Store, c Collection, fn func(doc *T) error) error {
	l := s.lock(c.Name)
	l.Lock()
	defer l.Unlock()

	doc, err := load[T](ctx, s, c, true)
	if err != nil {
		return err
	}

	if err := fn(&doc); err != nil {
		return err
	}

	if err := save(ctx, s, c, doc); err != nil {
		return fmt.Errorf("save after mutate: %w", err)
	}
	return nil
}
