// Package catalog owns the artist id index and per-artist records on top of
// the key-value store.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"hamusic/internal/core"
	"hamusic/internal/store"
)

// IDsKey is the well-known key holding the JSON array of live artist ids.
const IDsKey = "artist:ids"

// ArtistKey returns the record key for an artist id.
func ArtistKey(id int) string {
	return fmt.Sprintf("artist:%d", id)
}

// ArtistPatch is a partial update for Edit. Nil fields are left untouched.
// VideoSet distinguishes "replace the video with Video" (including nil, which
// clears it) from "leave the video alone".
type ArtistPatch struct {
	Name     *string
	Avatar   *string
	Video    *core.Video
	VideoSet bool
}

// Repository provides id allocation and list/search/mutate operations over
// artist records. Mutations serialize on an internal mutex: the index is
// read-modify-written as two store operations, so concurrent writers would
// otherwise race on it.
type Repository struct {
	kv     store.KeyValueStore
	logger *zap.Logger
	coll   *collate.Collator

	mu sync.Mutex
}

func NewRepository(kv store.KeyValueStore, logger *zap.Logger) *Repository {
	return &Repository{
		kv:     kv,
		logger: logger,
		coll:   collate.New(language.Und, collate.Loose),
	}
}

// Locker exposes the mutation lock so batch operations (bulk import) can hold
// it across their whole read-modify-write cycle.
func (r *Repository) Locker() sync.Locker {
	return &r.mu
}

// ListIDs reads the id index. An absent index reads as empty.
func (r *Repository) ListIDs(ctx context.Context) ([]int, error) {
	data, ok, err := r.kv.Get(ctx, IDsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []int{}, nil
	}

	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode id index: %w", err)
	}
	return ids, nil
}

// SaveIDs overwrites the id index wholesale. Callers must read-modify-write
// the full set.
func (r *Repository) SaveIDs(ctx context.Context, ids []int) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode id index: %w", err)
	}
	return r.kv.Put(ctx, IDsKey, data)
}

// Get fetches a single artist record.
func (r *Repository) Get(ctx context.Context, id int) (*core.Artist, error) {
	data, ok, err := r.kv.Get(ctx, ArtistKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrNotFound
	}

	var artist core.Artist
	if err := json.Unmarshal(data, &artist); err != nil {
		return nil, fmt.Errorf("failed to decode artist %d: %w", id, err)
	}
	return &artist, nil
}

// GetAll fetches every indexed record concurrently, drops records that fail
// to parse or have an empty name, and returns the rest sorted by name under
// locale-aware collation. The second return value counts dropped records.
func (r *Repository) GetAll(ctx context.Context) ([]core.Artist, int, error) {
	artists, skipped, err := r.fetchAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(artists, func(i, j int) bool {
		return r.coll.CompareString(artists[i].Name, artists[j].Name) < 0
	})
	return artists, skipped, nil
}

// Search returns the artists whose name contains the query, case-insensitively.
// Unlike GetAll the result is not sorted; callers get fetch order.
func (r *Repository) Search(ctx context.Context, query string) ([]core.Artist, int, error) {
	artists, skipped, err := r.fetchAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	needle := strings.ToLower(query)
	filtered := make([]core.Artist, 0, len(artists))
	for _, a := range artists {
		if strings.Contains(strings.ToLower(a.Name), needle) {
			filtered = append(filtered, a)
		}
	}
	return filtered, skipped, nil
}

func (r *Repository) fetchAll(ctx context.Context) ([]core.Artist, int, error) {
	ids, err := r.ListIDs(ctx)
	if err != nil {
		return nil, 0, err
	}

	results := make([]*core.Artist, len(ids))
	g, gCtx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			data, ok, err := r.kv.Get(gCtx, ArtistKey(id))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			var artist core.Artist
			if err := json.Unmarshal(data, &artist); err != nil {
				r.logger.Warn("Dropping unparseable artist record",
					zap.Int("id", id), zap.Error(err))
				return nil
			}
			results[i] = &artist
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	artists := make([]core.Artist, 0, len(results))
	skipped := 0
	for _, a := range results {
		if a == nil || a.Name == "" {
			skipped++
			continue
		}
		artists = append(artists, *a)
	}
	return artists, skipped, nil
}

// Add creates a record under the next free id (max of live ids plus one, or 1
// for an empty index) and appends the id to the index.
func (r *Repository) Add(ctx context.Context, name, avatar string, video *core.Video) (*core.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	artist := &core.Artist{
		ID:     NextID(ids),
		Name:   name,
		Avatar: avatar,
		Video:  video,
	}
	if err := r.PutArtist(ctx, artist); err != nil {
		return nil, err
	}
	if err := r.SaveIDs(ctx, append(ids, artist.ID)); err != nil {
		return nil, err
	}

	r.logger.Info("Added artist", zap.Int("id", artist.ID), zap.String("name", name))
	return artist, nil
}

// Edit merges a partial update over an existing record. A supplied video
// replaces the stored one wholesale, never field by field.
func (r *Repository) Edit(ctx context.Context, id int, patch ArtistPatch) (*core.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	artist, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		artist.Name = *patch.Name
	}
	if patch.Avatar != nil {
		artist.Avatar = *patch.Avatar
	}
	if patch.VideoSet {
		artist.Video = patch.Video
	}

	if err := r.PutArtist(ctx, artist); err != nil {
		return nil, err
	}
	return artist, nil
}

// Remove deletes the record and takes its id out of the index.
func (r *Repository) Remove(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.ListIDs(ctx)
	if err != nil {
		return err
	}

	remaining := make([]int, 0, len(ids))
	found := false
	for _, existing := range ids {
		if existing == id {
			found = true
			continue
		}
		remaining = append(remaining, existing)
	}
	if !found {
		return core.ErrNotFound
	}

	if err := r.kv.Delete(ctx, ArtistKey(id)); err != nil {
		return err
	}
	if err := r.SaveIDs(ctx, remaining); err != nil {
		return err
	}

	r.logger.Info("Removed artist", zap.Int("id", id))
	return nil
}

// PutArtist writes a record without touching the index. Bulk import uses it
// together with ListIDs/SaveIDs under the repository lock.
func (r *Repository) PutArtist(ctx context.Context, artist *core.Artist) error {
	data, err := json.Marshal(artist)
	if err != nil {
		return fmt.Errorf("failed to encode artist %d: %w", artist.ID, err)
	}
	return r.kv.Put(ctx, ArtistKey(artist.ID), data)
}

// NextID computes the id for a new record: one past the largest live id, so
// ids of deleted artists are never reused.
func NextID(ids []int) int {
	next := 1
	for _, id := range ids {
		if id >= next {
			next = id + 1
		}
	}
	return next
}
