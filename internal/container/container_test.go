package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/internal"
	"ga4dash/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(paths ...string) *config.Config {
	return &config.Config{
		Data:     config.DataConfig{MartPaths: paths, LoadConcurrency: 2},
		Server:   config.ServerConfig{Port: "0", GinMode: gin.TestMode},
		Stats:    config.StatsConfig{Confidence: 0.95, Significance: 0.05},
		LogLevel: internal.LogLevelError,
	}
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestContainerWiring(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	csv := "browsing_style,session_count,conversion_rate\nVariety Seeker,1000,13.0\nDeep Specialist,1000,2.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, mart.ProbeFile), []byte(csv), 0o644))

	c, err := New(testConfig(dir))
	require.NoError(t, err)
	require.NoError(t, c.Warm(context.Background()))

	source, err := c.Store.Source(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, source)
	assert.Contains(t, c.Store.Skipped(), mart.FunnelDropoff)

	cmp, err := c.Segments.Compare(context.Background(), mart.BrowsingStyle, "Variety", "Deep", nil)
	require.NoError(t, err)
	assert.True(t, cmp.Significant)

	srv, err := c.Server()
	require.NoError(t, err)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWarmWithoutData(t *testing.T) {
	c, err := New(testConfig(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)

	err = c.Warm(context.Background())
	assert.ErrorIs(t, err, core.ErrDataDirNotFound)
}
