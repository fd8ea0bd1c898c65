package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/stockbell/internal/config"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	return &config.AppConfig{
		DataDir:      t.TempDir(),
		StoreBackend: config.StoreSQLite,
		Coordinator:  config.CoordinatorMemory,
		HistoryLimit: 50,
	}
}

func TestCurrentVersion(t *testing.T) {
	v, err := currentVersion("v1.4.2")
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", v.String())

	for _, bad := range []string{"dev", "unknown", ""} {
		_, err := currentVersion(bad)
		assert.Error(t, err, bad)
	}
}

func TestOriginChecker(t *testing.T) {
	assert.Nil(t, originChecker([]string{"*"}))

	check := originChecker([]string{"https://dash.example.com"})
	require.NotNil(t, check)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req), "same-origin tools send no Origin header")

	req.Header.Set("Origin", "https://dash.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://other.example.com")
	assert.False(t, check(req))
}

func TestWatchlistCommands(t *testing.T) {
	cfg := testConfig(t)
	run := func(args ...string) string {
		root := NewRootCmd(cfg)
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		require.NoError(t, root.ExecuteContext(context.Background()))
		return out.String()
	}

	assert.Contains(t, run("watchlist", "list"), "Watchlist is empty.")
	assert.Contains(t, run("watchlist", "toggle", "King", "Limone"), "King Limone")
	assert.Contains(t, run("watchlist", "toggle", "Mango"), "Mango")

	// Persisted in the SQLite database under the data dir.
	assert.Equal(t, "King Limone\nMango\n", run("watchlist", "list"))

	run("watchlist", "clear")
	assert.Contains(t, run("watchlist", "list"), "Watchlist is empty.")
}

func TestRunCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/seed-shop.php":
			_, _ = w.Write([]byte(`{"reportedAt":1000,"seeds":[{"name":"Mango","qty":2}],"gear":[{"name":"Water Bucket","qty":1}]}`))
		case "/weather.php":
			_, _ = w.Write([]byte(`{"active":true,"name":"Golden"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t)
	cfg.ShopBaseURL = srv.URL
	cfg.ShopTimeout = 5 * time.Second

	ctx := context.Background()
	require.NoError(t, withWatchlistToggle(ctx, cfg, "Mango"))

	var out bytes.Buffer
	require.NoError(t, runCheck(ctx, cfg, &out))

	text := out.String()
	assert.Contains(t, text, "Report 1000")
	assert.Contains(t, text, "Water Bucket")
	assert.Contains(t, text, "Gilded Awakening")
	assert.Contains(t, text, "In stock: Mango")
}

func withWatchlistToggle(ctx context.Context, cfg *config.AppConfig, name string) error {
	root := NewRootCmd(cfg)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"watchlist", "toggle", name})
	return root.ExecuteContext(ctx)
}
