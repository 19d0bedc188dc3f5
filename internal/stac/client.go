// Package stac acquires satellite scenes from a STAC catalog. It is the
// acquisition collaborator around the analysis engine: everything here
// may block on the network, nothing here runs inside an analysis.
package stac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/flood-guardian/flood-guardian-engine/internal/cache"
	"github.com/flood-guardian/flood-guardian-engine/internal/properties"
	"github.com/flood-guardian/flood-guardian-engine/internal/utils"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/oauth2/clientcredentials"
)

// Asset is one downloadable file of a catalog item.
type Asset struct {
	Href string `json:"href"`
	Type string `json:"type"`
}

// Item is one catalog entry (a scene acquisition).
type Item struct {
	ID         string           `json:"id"`
	Properties map[string]any   `json:"properties"`
	Assets     map[string]Asset `json:"assets"`
}

// Datetime parses the item's acquisition timestamp.
func (i Item) Datetime() (time.Time, error) {
	raw, ok := i.Properties["datetime"].(string)
	if !ok {
		return time.Time{}, fmt.Errorf("item %s has no datetime", i.ID)
	}
	return time.Parse(time.RFC3339, raw)
}

// Client talks to one STAC API endpoint. When token credentials are
// configured the HTTP client carries an oauth2 client-credentials token
// source; public catalogs work without any.
type Client struct {
	apiURL     string
	collection string
	httpClient *http.Client
	downloads  *cache.FileStore[string]
}

func NewClient(ctx context.Context) *Client {
	httpClient := &http.Client{Timeout: 120 * time.Second}
	if properties.StacClientID() != "" {
		credentials := clientcredentials.Config{
			ClientID:     properties.StacClientID(),
			ClientSecret: properties.StacClientSecret(),
			TokenURL:     properties.StacTokenURL(),
		}
		httpClient = credentials.Client(ctx)
		httpClient.Timeout = 120 * time.Second
	}
	return &Client{
		apiURL:     properties.StacAPIURL(),
		collection: properties.StacCollection(),
		httpClient: httpClient,
		downloads:  cache.NewFileStore[string]("downloads"),
	}
}

type searchRequest struct {
	Collections []string   `json:"collections"`
	BBox        [4]float64 `json:"bbox"`
	Datetime    string     `json:"datetime"`
	Limit       int        `json:"limit"`
}

type searchResponse struct {
	Features []Item `json:"features"`
}

// Search lists scenes intersecting bbox (west, south, east, north)
// acquired inside [from, to].
func (c *Client) Search(ctx context.Context, bbox [4]float64, from, to time.Time) ([]Item, error) {
	payload, err := json.Marshal(searchRequest{
		Collections: []string{c.collection},
		BBox:        bbox,
		Datetime:    fmt.Sprintf("%s/%s", from.Format(time.RFC3339), to.Format(time.RFC3339)),
		Limit:       100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, body)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return result.Features, nil
}

// ScenePair picks the oldest and newest usable scenes from a search
// result, the pre/post inputs of a change analysis.
func ScenePair(items []Item) (pre, post Item, err error) {
	byDate := make(map[time.Time]Item, len(items))
	for _, item := range items {
		date, derr := item.Datetime()
		if derr != nil {
			continue
		}
		byDate[date] = item
	}
	if len(byDate) < 2 {
		return Item{}, Item{}, fmt.Errorf("need at least 2 dated scenes, got %d", len(byDate))
	}
	dates := utils.SortedDateKeys(byDate, true)
	return byDate[dates[0]], byDate[dates[len(dates)-1]], nil
}

// DownloadAsset fetches one asset into destDir and returns the local
// path. Previously downloaded assets that still exist on disk are
// reused via the download cache.
func (c *Client) DownloadAsset(ctx context.Context, item Item, assetKey, destDir string) (string, error) {
	asset, ok := item.Assets[assetKey]
	if !ok {
		return "", fmt.Errorf("item %s has no asset %q", item.ID, assetKey)
	}

	cacheKey := c.downloads.Key(item.ID, assetKey, asset.Href)
	if path, ok := c.downloads.Get(cacheKey); ok {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.Href, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("asset download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("asset download returned %d", resp.StatusCode)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	destPath := filepath.Join(destDir, fmt.Sprintf("%s_%s.tif", item.ID, assetKey))
	out, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	bar := progressbar.DefaultBytes(resp.ContentLength, "Downloading "+item.ID)
	if _, err := io.Copy(io.MultiWriter(out, bar), resp.Body); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("asset download failed: %w", err)
	}

	if err := c.downloads.Put(cacheKey, destPath); err != nil {
		return "", err
	}
	return destPath, nil
}
