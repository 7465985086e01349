package config

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"occasion-listing/internal/catalog"
)

var githubAPIBase = "https://api.github.com"

type CatalogSyncResult struct {
	Updated bool
	Version string
	Message string
	Warning string
}

type catalogLock struct {
	ReleaseID      int64  `json:"release_id"`
	TagName        string `json:"tag_name"`
	AssetName      string `json:"asset_name"`
	CatalogVersion string `json:"catalog_version"`
	SyncedAt       string `json:"synced_at"`
}

type githubAsset struct {
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
}

type githubRelease struct {
	ID      int64         `json:"id"`
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

// SyncCatalogsFromCenter pulls a catalog bundle from a GitHub release into the
// resolved catalog dir. Failures are warnings unless catalog_center.strict is set.
func SyncCatalogsFromCenter(ctx context.Context, cfg *Config, paths *Paths) (CatalogSyncResult, error) {
	out := CatalogSyncResult{}
	if cfg == nil || paths == nil {
		return out, nil
	}
	center := cfg.CatalogCenter
	fail := func(format string, args ...any) (CatalogSyncResult, error) {
		msg := fmt.Sprintf(format, args...)
		if center.Strict {
			return out, errors.New(msg)
		}
		out.Warning = msg
		return out, nil
	}

	owner := strings.TrimSpace(center.Owner)
	repo := strings.TrimSpace(center.Repo)
	if owner == "" || repo == "" {
		return fail("catalog_center 缺少 owner 或 repo")
	}
	releaseRef := firstNonEmpty(center.Release, "latest")
	assetName := firstNonEmpty(center.Asset, "catalog-bundle.tar.gz")
	timeoutSec := center.TimeoutSec
	if timeoutSec <= 0 {
		timeoutSec = 20
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()
	client := &http.Client{Timeout: time.Duration(timeoutSec) * time.Second}

	release, err := fetchGitHubRelease(ctx, client, owner, repo, releaseRef)
	if err != nil {
		return fail("目录中心查询失败：%v", err)
	}
	tag := firstNonEmpty(release.TagName, releaseRef)
	assetURL := ""
	for _, a := range release.Assets {
		if strings.EqualFold(strings.TrimSpace(a.Name), assetName) {
			assetURL = strings.TrimSpace(a.URL)
			break
		}
	}
	if assetURL == "" {
		return fail("目录中心未找到资产 %s（release=%s）", assetName, tag)
	}

	lock, _ := readCatalogLock(paths.CatalogLockPath)
	if lock.ReleaseID == release.ID && lock.AssetName == assetName && catalogFilesExist(paths.ResolvedCatalogDir) {
		out.Version = lock.CatalogVersion
		out.Message = fmt.Sprintf("目录已是最新版本（%s）", tag)
		return out, nil
	}

	raw, err := downloadBytes(ctx, client, assetURL)
	if err != nil {
		return fail("目录中心下载失败：%v", err)
	}
	version, err := applyCatalogBundle(raw, paths.ResolvedCatalogDir)
	if err != nil {
		return fail("目录包校验失败：%v", err)
	}
	out.Version = version

	if err := writeCatalogLock(paths.CatalogLockPath, catalogLock{
		ReleaseID:      release.ID,
		TagName:        release.TagName,
		AssetName:      assetName,
		CatalogVersion: version,
		SyncedAt:       time.Now().Format(time.RFC3339),
	}); err != nil {
		return fail("写入目录锁失败：%v", err)
	}
	out.Updated = true
	out.Message = fmt.Sprintf("目录中心更新成功（%s，catalog %s）", tag, version)
	return out, nil
}

func fetchGitHubRelease(ctx context.Context, client *http.Client, owner, repo, releaseRef string) (githubRelease, error) {
	base := strings.TrimRight(githubAPIBase, "/")
	url := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", base, owner, repo, releaseRef)
	if strings.EqualFold(releaseRef, "latest") {
		url = fmt.Sprintf("%s/repos/%s/%s/releases/latest", base, owner, repo)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return githubRelease{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "occasion-listing")
	resp, err := client.Do(req)
	if err != nil {
		return githubRelease{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return githubRelease{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return githubRelease{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out githubRelease
	if err := json.Unmarshal(body, &out); err != nil {
		return githubRelease{}, fmt.Errorf("解析 release 响应失败：%w", err)
	}
	if out.ID == 0 {
		return githubRelease{}, fmt.Errorf("release id 为空")
	}
	return out, nil
}

func downloadBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "occasion-listing")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("空响应")
	}
	return raw, nil
}

// applyCatalogBundle extracts the catalog files into a staging dir, loads
// them, and only then replaces the files in catalogDir.
func applyCatalogBundle(raw []byte, catalogDir string) (string, error) {
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		return "", err
	}
	tmpDir, err := os.MkdirTemp(filepath.Dir(catalogDir), ".catalog-sync-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	if err := extractCatalogFiles(raw, tmpDir); err != nil {
		return "", err
	}
	for _, name := range catalog.RequiredFiles() {
		if _, err := os.Stat(filepath.Join(tmpDir, name)); err != nil {
			return "", fmt.Errorf("目录包缺少 %s", name)
		}
	}
	cat, err := catalog.LoadDir(tmpDir)
	if err != nil {
		return "", err
	}
	for _, name := range catalog.RequiredFiles() {
		if err := os.Rename(filepath.Join(tmpDir, name), filepath.Join(catalogDir, name)); err != nil {
			return "", err
		}
	}
	return cat.Version.String(), nil
}

func extractCatalogFiles(raw []byte, outDir string) error {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer gz.Close()
	tr := tar.NewReader(gz)
	wanted := map[string]struct{}{}
	for _, n := range catalog.RequiredFiles() {
		wanted[n] = struct{}{}
	}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if hdr.FileInfo().IsDir() {
			continue
		}
		base := filepath.Base(strings.TrimSpace(hdr.Name))
		if _, ok := wanted[base]; !ok {
			continue
		}
		f, err := os.OpenFile(filepath.Join(outDir, base), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, io.LimitReader(tr, 5<<20)); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
}

func catalogFilesExist(dir string) bool {
	for _, name := range catalog.RequiredFiles() {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func readCatalogLock(path string) (catalogLock, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return catalogLock{}, err
	}
	out := catalogLock{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return catalogLock{}, err
	}
	return out, nil
}

func writeCatalogLock(path string, lock catalogLock) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
