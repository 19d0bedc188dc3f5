package stac

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, datetime string) Item {
	return Item{
		ID:         id,
		Properties: map[string]any{"datetime": datetime},
	}
}

func TestScenePairPicksOldestAndNewest(t *testing.T) {
	items := []Item{
		item("b", "2024-05-10T10:00:00Z"),
		item("c", "2024-05-20T10:00:00Z"),
		item("a", "2024-05-01T10:00:00Z"),
	}

	pre, post, err := ScenePair(items)
	require.NoError(t, err)
	assert.Equal(t, "a", pre.ID)
	assert.Equal(t, "c", post.ID)
}

func TestScenePairSkipsUndatedItems(t *testing.T) {
	items := []Item{
		{ID: "undated"},
		item("only", "2024-05-01T10:00:00Z"),
	}

	_, _, err := ScenePair(items)
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"sentinel-2-l2a"}, req.Collections)
		assert.Equal(t, [4]float64{10, 44, 11, 45}, req.BBox)

		json.NewEncoder(w).Encode(searchResponse{Features: []Item{item("s1", "2024-05-01T10:00:00Z")}})
	}))
	defer server.Close()

	t.Setenv("STAC_API_URL", server.URL)
	t.Setenv("ROOT_PATH", t.TempDir())

	client := NewClient(context.Background())
	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	items, err := client.Search(context.Background(), [4]float64{10, 44, 11, 45}, from, to)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "s1", items[0].ID)
}

func TestSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	t.Setenv("STAC_API_URL", server.URL)
	t.Setenv("ROOT_PATH", t.TempDir())

	client := NewClient(context.Background())
	_, err := client.Search(context.Background(), [4]float64{}, time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)
}

func TestDownloadAssetCachesResult(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("tiff-bytes"))
	}))
	defer server.Close()

	t.Setenv("ROOT_PATH", t.TempDir())
	destDir := t.TempDir()

	client := NewClient(context.Background())
	scene := Item{
		ID:         "scene-1",
		Properties: map[string]any{"datetime": "2024-05-01T10:00:00Z"},
		Assets:     map[string]Asset{"visual": {Href: server.URL + "/visual.tif", Type: "image/tiff"}},
	}

	first, err := client.DownloadAsset(context.Background(), scene, "visual", destDir)
	require.NoError(t, err)
	second, err := client.DownloadAsset(context.Background(), scene, "visual", destDir)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, hits, "a re-request for the same asset must hit the cache")
}

func TestDownloadAssetUnknownKey(t *testing.T) {
	t.Setenv("ROOT_PATH", t.TempDir())
	client := NewClient(context.Background())

	_, err := client.DownloadAsset(context.Background(), Item{ID: "x"}, "visual", t.TempDir())
	assert.Error(t, err)
}
