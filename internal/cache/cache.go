// Package cache stores reconciled anchor sets per location, day and
// calculation config. Validity is decided here from the envelope's SavedAt,
// not by the underlying store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/store"
)

// Defaults.
const (
	DefaultTTL       = 24 * time.Hour
	DefaultPrecision = 3
	KeyPrefix        = "vakit:timings:"
)

// Entry is the persisted envelope.
type Entry struct {
	Key     string          `json:"key"`
	SavedAt time.Time       `json:"saved_at"`
	Payload model.AnchorSet `json:"payload"`
}

// Observer is told about lookups and swallowed storage failures.
type Observer interface {
	ObserveCacheLookup(hit bool)
	ObserveCacheError(op string)
}

// Cache is a TTL'd anchor-set cache over a store.KV.
type Cache struct {
	kv        store.KV
	ttl       time.Duration
	precision int
	now       func() time.Time
	observer  Observer
}

// New creates a Cache. A ttl of zero or less uses DefaultTTL.
func New(kv store.KV, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		kv:        kv,
		ttl:       ttl,
		precision: DefaultPrecision,
		now:       time.Now,
	}
}

// WithNow overrides the clock used for SavedAt and expiry.
func (c *Cache) WithNow(fn func() time.Time) *Cache {
	c.now = fn
	return c
}

// WithPrecision sets the number of decimals coordinates are rounded to.
func (c *Cache) WithPrecision(p int) *Cache {
	if p > 0 {
		c.precision = p
	}
	return c
}

// WithObserver attaches a lookup observer.
func (c *Cache) WithObserver(o Observer) *Cache {
	c.observer = o
	return c
}

// TTL returns the validity window of an entry.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Key builds the cache key for loc on the ISO date with the given params.
func (c *Cache) Key(loc model.Location, isoDate string, params model.CalcParams) string {
	return BuildKey(loc, isoDate, params, c.precision)
}

// BuildKey is the deterministic key function. Coordinates are rounded to
// precision decimals; three decimals is roughly 100 m. Zero method or school
// is written as "m" or "s".
func BuildKey(loc model.Location, isoDate string, params model.CalcParams, precision int) string {
	method, school := "m", "s"
	if params.Method != 0 {
		method = fmt.Sprint(params.Method)
	}
	if params.School != 0 {
		school = fmt.Sprint(params.School)
	}
	return fmt.Sprintf("%s%.*f:%.*f:%s:%s:%s",
		KeyPrefix, precision, roundCoord(loc.Latitude, precision),
		precision, roundCoord(loc.Longitude, precision), isoDate, method, school)
}

// roundCoord rounds v to precision decimals. Values that round to zero lose
// their sign so both sides of the equator and prime meridian share a cell.
func roundCoord(v float64, precision int) float64 {
	p := math.Pow10(precision)
	r := math.Round(v*p) / p
	if r == 0 {
		return 0
	}
	return r
}

// Get returns the cached set for key when it is still valid. Expired,
// corrupt and unreadable entries are reported as misses.
func (c *Cache) Get(ctx context.Context, key string) (*model.AnchorSet, bool) {
	set, ok := c.get(ctx, key)
	if c.observer != nil {
		c.observer.ObserveCacheLookup(ok)
	}
	return set, ok
}

func (c *Cache) get(ctx context.Context, key string) (*model.AnchorSet, bool) {
	data, err := c.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		c.logIOError("get", key, err)
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logIOError("decode", key, eris.Wrap(err, "cache: decode entry"))
		return nil, false
	}
	if e.SavedAt.IsZero() || e.Payload.Anchors == nil {
		c.logIOError("decode", key, eris.New("cache: incomplete entry"))
		return nil, false
	}
	if c.now().Sub(e.SavedAt) > c.ttl {
		return nil, false
	}
	return &e.Payload, true
}

// Put stores set under key. Failures are logged and dropped.
func (c *Cache) Put(ctx context.Context, key string, set *model.AnchorSet) {
	if set == nil {
		return
	}
	data, err := json.Marshal(Entry{Key: key, SavedAt: c.now().UTC(), Payload: *set})
	if err != nil {
		c.logIOError("encode", key, eris.Wrap(err, "cache: encode entry"))
		return
	}
	// The store copy outlives the envelope so validity stays decided here.
	if err := c.kv.Set(ctx, key, data, 2*c.ttl); err != nil {
		c.logIOError("put", key, err)
	}
}

// Prune removes expired entries from the store.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	n, err := c.kv.DeleteExpired(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "cache: prune")
	}
	return n, nil
}

func (c *Cache) logIOError(op, key string, err error) {
	if c.observer != nil {
		c.observer.ObserveCacheError(op)
	}
	zap.L().Warn("cache: storage failure ignored",
		zap.Error(&model.CacheIOError{Op: op, Key: key, Err: err}),
	)
}
