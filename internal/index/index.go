// Package index maintains the in-memory SKU index: a snapshot of the
// destination store's entire catalog keyed by SKU, rebuilt by full
// enumeration.
//
// Snapshots are immutable. The manager publishes the current snapshot
// through an atomic pointer; a rebuild constructs a completely new map
// and swaps it in only after the final page succeeds. Readers therefore
// always see either the previous complete snapshot or the new one, never
// a half-built map, and need no locking. A failed rebuild leaves the old
// snapshot live - stale data beats no data.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"checkout-bridge/internal/catalog"
	"checkout-bridge/internal/model"
)

// DefaultRebuildInterval is how often the background loop rebuilds the
// index when the config does not say otherwise.
const DefaultRebuildInterval = 10 * time.Minute

// Snapshot is one complete, immutable SKU-to-variant mapping built from a
// single full catalog enumeration pass.
type Snapshot struct {
	entries map[string]model.CatalogEntry
	builtAt time.Time
}

// Lookup returns the catalog entry for the given SKU. The key is trimmed
// before the exact-match lookup; there is no fuzzy matching.
func (s *Snapshot) Lookup(sku string) (model.CatalogEntry, bool) {
	entry, ok := s.entries[strings.TrimSpace(sku)]
	return entry, ok
}

// Size returns the number of mapped SKUs.
func (s *Snapshot) Size() int {
	return len(s.entries)
}

// BuiltAt returns when the snapshot's enumeration completed. Zero for the
// empty startup snapshot.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// Manager owns the current snapshot and the rebuild lifecycle.
type Manager struct {
	catalog  catalog.Client
	interval time.Duration
	logger   *slog.Logger

	current atomic.Pointer[Snapshot]
	rebuild singleflight.Group
}

// New creates a Manager reading from the given catalog client. The
// published snapshot starts empty; call Rebuild for the initial blocking
// build and Run for the periodic one.
func New(client catalog.Client, interval time.Duration, logger *slog.Logger) *Manager {
	if interval <= 0 {
		interval = DefaultRebuildInterval
	}
	m := &Manager{
		catalog:  client,
		interval: interval,
		logger:   logger,
	}
	m.current.Store(&Snapshot{entries: map[string]model.CatalogEntry{}})
	return m
}

// Current returns the currently published snapshot. Never nil.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Lookup resolves a SKU against the current snapshot.
func (m *Manager) Lookup(sku string) (model.CatalogEntry, bool) {
	return m.Current().Lookup(sku)
}

// Rebuild enumerates the full catalog, builds a fresh snapshot, and
// publishes it. Returns the new snapshot's size. On any enumeration
// failure the previous snapshot stays published and the error is
// returned.
//
// Concurrent callers are coalesced into one enumeration and all receive
// its result; the enumeration runs under the first caller's context.
func (m *Manager) Rebuild(ctx context.Context) (int, error) {
	size, err, _ := m.rebuild.Do("rebuild", func() (any, error) {
		snap, err := m.build(ctx)
		if err != nil {
			return 0, err
		}
		m.current.Store(snap)
		return snap.Size(), nil
	})
	if err != nil {
		return 0, err
	}
	return size.(int), nil
}

// Run rebuilds the index on a fixed interval until ctx is canceled.
// Failures are logged and the loop keeps going with the stale snapshot.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			size, err := m.Rebuild(ctx)
			if err != nil {
				m.logger.Warn("sku index rebuild failed, keeping previous snapshot",
					slog.String("error", err.Error()),
					slog.Int("stale_size", m.Current().Size()),
				)
				continue
			}
			m.logger.Info("sku index rebuilt",
				slog.Int("size", size),
			)
		}
	}
}

// build walks every catalog page into a freshly allocated map.
// SKUs are trimmed; blanks are skipped; a duplicate SKU overwrites the
// earlier entry (last writer wins).
func (m *Manager) build(ctx context.Context) (*Snapshot, error) {
	entries := make(map[string]model.CatalogEntry)
	cursor := ""

	for {
		page, err := m.catalog.EnumeratePage(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("enumerating catalog at cursor %q: %w", cursor, err)
		}

		for _, e := range page.Entries {
			sku := strings.TrimSpace(e.SKU)
			if sku == "" {
				continue
			}
			entries[sku] = model.CatalogEntry{
				SKU:          sku,
				VariantID:    e.VariantID,
				ProductTitle: e.ProductTitle,
			}
		}

		if !page.HasNextPage {
			break
		}
		if page.EndCursor == "" || page.EndCursor == cursor {
			// A page claiming continuation without a fresh cursor would
			// loop forever; treat it as a failed enumeration.
			return nil, fmt.Errorf("catalog page at cursor %q has no continuation cursor", cursor)
		}
		cursor = page.EndCursor
	}

	return &Snapshot{entries: entries, builtAt: time.Now()}, nil
}
