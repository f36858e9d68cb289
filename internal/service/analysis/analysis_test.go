package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/panbanda/orphan/internal/service/scanner"
	"github.com/panbanda/orphan/internal/testutil"
	"github.com/panbanda/orphan/pkg/config"
	"github.com/panbanda/orphan/pkg/source"
)

func scanProject(t *testing.T, files map[string]string) *scanner.ScanResult {
	t.Helper()
	root := testutil.NewProject(t, files)
	res, err := scanner.New().Scan(root, "")
	require.NoError(t, err)
	return res
}

func TestNew(t *testing.T) {
	svc := New()
	require.NotNil(t, svc)
	assert.NotNil(t, svc.config)
	assert.NotNil(t, svc.log)

	cfg := config.DefaultConfig()
	assert.Same(t, cfg, New(WithConfig(cfg)).config)
}

func TestFindUnusedAssets(t *testing.T) {
	scan := scanProject(t, map[string]string{
		"index.html":          `<img src="assets/logo.png">`,
		"app.css":             `.hero { background-image: url("assets/hero.jpg"); }`,
		"assets/logo.png":     "png",
		"assets/hero.jpg":     "jpg",
		"assets/old-logo.png": "unused",
	})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a, err := New(WithClock(func() time.Time { return now })).FindUnusedAssets(context.Background(), scan, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"assets/old-logo.png"}, a.UnusedPaths())
	assert.Equal(t, int64(len("unused")), a.Summary.UnusedBytes)
	assert.Equal(t, 3, a.Summary.TotalAssets)
	assert.Equal(t, 2, a.Summary.TotalSources)
	assert.Equal(t, now, a.AnalyzedAt)
}

func TestFindUnusedAssets_DynamicDirectory(t *testing.T) {
	scan := scanProject(t, map[string]string{
		"flags.js":          "const src = `/img/flags/${code}.svg`;",
		"img/flags/fr.svg":  "fr",
		"img/flags/de.svg":  "de",
		"img/other/cat.png": "cat",
	})

	a, err := New().FindUnusedAssets(context.Background(), scan, Options{ReportDynamic: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"img/other/cat.png"}, a.UnusedPaths())
	assert.Equal(t, []string{"img/flags/de.svg", "img/flags/fr.svg"}, a.PossiblyUsed)
	assert.Equal(t, []string{"img/flags"}, a.Summary.DynamicDirs)
}

func TestFindUnusedAssets_Progress(t *testing.T) {
	scan := scanProject(t, map[string]string{
		"a.js":     "",
		"b.js":     "",
		"c.js":     "",
		"logo.png": "",
	})

	var mu sync.Mutex
	var calls []int
	_, err := New().FindUnusedAssets(context.Background(), scan, Options{
		OnProgress: func(current, total int, _ string) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, current)
			assert.Equal(t, 3, total)
		},
	})
	require.NoError(t, err)
	assert.Len(t, calls, 3)
}

func TestFindUnusedAssets_ReadErrorsAreReported(t *testing.T) {
	scan := scanProject(t, map[string]string{
		"broken.js": "",
		"ok.js":     `import icon from "./icon.svg"`,
		"icon.svg":  "",
		"stale.png": "",
	})

	ctrl := gomock.NewController(t)
	src := source.NewMockContentSource(ctrl)
	src.EXPECT().Read(gomock.Any()).DoAndReturn(func(path string) ([]byte, error) {
		if filepath.Base(path) == "broken.js" {
			return nil, os.ErrPermission
		}
		return os.ReadFile(path)
	}).AnyTimes()

	var failed []string
	a, err := New(WithSource(src)).FindUnusedAssets(context.Background(), scan, Options{
		SinglePass: true,
		OnError: func(path string, err error) {
			failed = append(failed, filepath.Base(path))
			assert.ErrorIs(t, err, os.ErrPermission)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"broken.js"}, failed)
	assert.Equal(t, 1, a.Summary.ReadErrors)
	assert.Equal(t, []string{"stale.png"}, a.UnusedPaths())
}

func TestFindUnusedAssets_Cancelled(t *testing.T) {
	scan := scanProject(t, map[string]string{"a.js": "", "logo.png": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().FindUnusedAssets(ctx, scan, Options{})

	var analysisErr *AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindUnusedAssets_Cache(t *testing.T) {
	scan := scanProject(t, map[string]string{
		"index.html": `<img src="logo.png">`,
		"logo.png":   "",
		"old.png":    "",
	})
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = ".orphan/cache"

	svc := New(WithConfig(cfg))
	first, err := svc.FindUnusedAssets(context.Background(), scan, Options{UseCache: true})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(scan.Root, ".orphan", "cache"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "results should be written to the cache directory")

	// Content is still read to validate the cached entry.
	ctrl := gomock.NewController(t)
	src := source.NewMockContentSource(ctrl)
	src.EXPECT().Read(gomock.Any()).DoAndReturn(os.ReadFile).AnyTimes()

	second, err := New(WithConfig(cfg), WithSource(src)).FindUnusedAssets(context.Background(), scan, Options{UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, first.UnusedPaths(), second.UnusedPaths())
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Match.Strict = true
	cfg.Match.Workers = 4
	cfg.Cache.Enabled = true

	opts := OptionsFromConfig(cfg)
	assert.True(t, opts.Strict)
	assert.Equal(t, 4, opts.Workers)
	assert.True(t, opts.UseCache)
	assert.False(t, opts.SinglePass)
}

func TestAnalysisError(t *testing.T) {
	inner := errors.New("boom")
	err := &AnalysisError{Root: "/site", Err: inner}
	assert.Equal(t, "analysis of /site failed: boom", err.Error())
	assert.ErrorIs(t, err, inner)
}
