package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"occasion-listing/internal/config"
)

func TestUpdateCatalogsCommandClearsCacheAndSyncLatest(t *testing.T) {
	work := t.TempDir()
	catalogDir := filepath.Join(work, "catalogs")
	lockPath := filepath.Join(work, "catalogs.lock.json")
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(catalogDir, "occasions.yaml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lockPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldLoad := loadConfigForUpdate
	oldSync := syncCatalogsForUpdate
	defer func() {
		loadConfigForUpdate = oldLoad
		syncCatalogsForUpdate = oldSync
	}()

	loadConfigForUpdate = func(pathArg, cwd string) (*config.Config, *config.Paths, error) {
		return &config.Config{
				CatalogCenter: config.CatalogCenterConfig{
					Owner:   "occasion-listing",
					Repo:    "occasion-catalogs",
					Release: "catalogs-v-old",
					Asset:   "catalog-bundle.tar.gz",
				},
			}, &config.Paths{
				ResolvedCatalogDir: catalogDir,
				CatalogLockPath:    lockPath,
			}, nil
	}
	called := false
	syncCatalogsForUpdate = func(ctx context.Context, cfg *config.Config, paths *config.Paths) (config.CatalogSyncResult, error) {
		called = true
		if cfg.CatalogCenter.Release != "latest" || !cfg.CatalogCenter.Strict || !cfg.CatalogCenter.Enabled {
			t.Fatalf("center settings not forced: %+v", cfg.CatalogCenter)
		}
		if _, err := os.Stat(paths.ResolvedCatalogDir); !os.IsNotExist(err) {
			t.Fatalf("catalog dir should be removed before sync, err=%v", err)
		}
		if _, err := os.Stat(paths.CatalogLockPath); !os.IsNotExist(err) {
			t.Fatalf("catalog lock should be removed before sync, err=%v", err)
		}
		return config.CatalogSyncResult{Updated: true, Version: "2.1.0", Message: "目录中心更新成功"}, nil
	}

	var out, errb bytes.Buffer
	root := NewRootCmd(&out, &errb)
	root.SetArgs([]string{"update", "catalogs"})
	if err := root.Execute(); err != nil {
		t.Fatalf("update catalogs failed: %v", err)
	}
	if !called {
		t.Fatalf("expected syncCatalogsForUpdate to be called")
	}
	if strings.TrimSpace(out.String()) != "2.1.0" {
		t.Fatalf("unexpected stdout: %q", out.String())
	}
}

func TestUpdateCatalogsCommandSyncError(t *testing.T) {
	oldLoad := loadConfigForUpdate
	oldSync := syncCatalogsForUpdate
	defer func() {
		loadConfigForUpdate = oldLoad
		syncCatalogsForUpdate = oldSync
	}()
	loadConfigForUpdate = func(pathArg, cwd string) (*config.Config, *config.Paths, error) {
		return &config.Config{}, &config.Paths{
			ResolvedCatalogDir: filepath.Join(t.TempDir(), "catalogs"),
			CatalogLockPath:    filepath.Join(t.TempDir(), "catalogs.lock.json"),
		}, nil
	}
	syncCatalogsForUpdate = func(ctx context.Context, cfg *config.Config, paths *config.Paths) (config.CatalogSyncResult, error) {
		return config.CatalogSyncResult{}, io.EOF
	}

	var out, errb bytes.Buffer
	root := NewRootCmd(&out, &errb)
	root.SetArgs([]string{"update", "catalogs"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "EOF") {
		t.Fatalf("expected sync error, got %v", err)
	}
}
