package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"hamusic/internal/catalog"
	"hamusic/internal/core"
	"hamusic/internal/store"
	"hamusic/internal/youtube"
)

func newTestImporter(t *testing.T) (*Importer, *catalog.Repository) {
	t.Helper()

	kv, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() unexpected error: %v", err)
	}
	t.Cleanup(func() {
		_ = kv.Close()
	})

	// Every id resolves; unresolvable entries never reach the API.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"items":[{"id":%q,"snippet":{"title":"T","thumbnails":{"high":{"url":"https://example.com/%s.jpg"}}},"contentDetails":{"duration":"PT1M"}}]}`, id, id)
	}))
	t.Cleanup(server.Close)

	repo := catalog.NewRepository(kv, zap.NewNop())
	yt := youtube.NewClient(&core.YouTubeConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		RequestsPerSec: 1000,
	}, store.NewVideoCache(16, 0.001), zap.NewNop())

	return NewImporter(repo, yt, zap.NewNop()), repo
}

func TestImporter_Run_PartialSuccess(t *testing.T) {
	im, repo := newTestImporter(t)
	ctx := context.Background()

	report, err := im.Run(ctx, []Entry{
		{Name: "X", URL: "bad"},
		{Name: "Y", URL: "https://youtu.be/validID1234"},
	})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	if len(report.Added) != 1 || report.Added[0].Name != "Y" {
		t.Fatalf("Run() added = %+v, want just Y", report.Added)
	}
	if report.Skipped != 1 {
		t.Errorf("Run() skipped = %d, want 1", report.Skipped)
	}

	ids, err := repo.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs() unexpected error: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("ListIDs() = %v, want exactly one new id", ids)
	}
}

func TestImporter_Run_AllocatesFromRunningList(t *testing.T) {
	im, repo := newTestImporter(t)
	ctx := context.Background()

	// Existing catalog state observed at batch start.
	if _, err := repo.Add(ctx, "Existing", "", nil); err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}

	report, err := im.Run(ctx, []Entry{
		{Name: "A", URL: "https://youtu.be/aaaaaaaaaaa"},
		{Name: "B", URL: "https://youtu.be/bbbbbbbbbbb"},
	})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	if len(report.Added) != 2 {
		t.Fatalf("Run() added %d artists, want 2", len(report.Added))
	}
	if report.Added[0].ID != 2 || report.Added[1].ID != 3 {
		t.Errorf("Run() ids = %d, %d; want 2, 3", report.Added[0].ID, report.Added[1].ID)
	}

	ids, _ := repo.ListIDs(ctx)
	if len(ids) != 3 {
		t.Errorf("ListIDs() = %v, want three ids", ids)
	}
}

func TestImporter_Run_StoresRawURLAndResolvedAvatar(t *testing.T) {
	im, repo := newTestImporter(t)
	ctx := context.Background()

	report, err := im.Run(ctx, []Entry{
		{Name: "A", URL: "https://youtu.be/aaaaaaaaaaa"},
	})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	added := report.Added[0]
	if added.Avatar != "https://example.com/aaaaaaaaaaa.jpg" {
		t.Errorf("Run() avatar = %q, want resolved thumbnail", added.Avatar)
	}
	if added.Video == nil || added.Video.URL != "https://youtu.be/aaaaaaaaaaa" {
		t.Errorf("Run() video = %+v, want raw URL reference", added.Video)
	}

	stored, err := repo.Get(ctx, added.ID)
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if stored.Video.URL != "https://youtu.be/aaaaaaaaaaa" {
		t.Errorf("Get() stored video URL = %q", stored.Video.URL)
	}
}

func TestImporter_Run_MissingCredentialFailsBatch(t *testing.T) {
	kv, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() unexpected error: %v", err)
	}
	t.Cleanup(func() {
		_ = kv.Close()
	})

	repo := catalog.NewRepository(kv, zap.NewNop())
	yt := youtube.NewClient(&core.YouTubeConfig{
		APIKey:         "",
		BaseURL:        "https://example.invalid",
		RequestsPerSec: 1000,
	}, store.NewVideoCache(16, 0.001), zap.NewNop())
	im := NewImporter(repo, yt, zap.NewNop())
	ctx := context.Background()

	report, err := im.Run(ctx, []Entry{
		{Name: "A", URL: "https://youtu.be/aaaaaaaaaaa"},
	})
	if !errors.Is(err, core.ErrUpstreamUnavailable) {
		t.Fatalf("Run() error = %v, want ErrUpstreamUnavailable", err)
	}
	if report != nil {
		t.Errorf("Run() report = %+v, want nil", report)
	}

	ids, err := repo.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs() unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ListIDs() = %v, want no ids after failed batch", ids)
	}
}

func TestImporter_Run_UpstreamOutageFailsBatch(t *testing.T) {
	kv, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() unexpected error: %v", err)
	}
	t.Cleanup(func() {
		_ = kv.Close()
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	repo := catalog.NewRepository(kv, zap.NewNop())
	yt := youtube.NewClient(&core.YouTubeConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		RequestsPerSec: 1000,
	}, store.NewVideoCache(16, 0.001), zap.NewNop())
	im := NewImporter(repo, yt, zap.NewNop())
	ctx := context.Background()

	_, err = im.Run(ctx, []Entry{
		{Name: "A", URL: "https://youtu.be/aaaaaaaaaaa"},
	})
	if !errors.Is(err, core.ErrUpstreamUnavailable) {
		t.Fatalf("Run() error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestImporter_Run_EmptyBatch(t *testing.T) {
	im, repo := newTestImporter(t)
	ctx := context.Background()

	report, err := im.Run(ctx, []Entry{})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if len(report.Added) != 0 || report.Skipped != 0 {
		t.Errorf("Run() = %+v, want empty report", report)
	}

	ids, _ := repo.ListIDs(ctx)
	if len(ids) != 0 {
		t.Errorf("ListIDs() = %v, want empty", ids)
	}
}
