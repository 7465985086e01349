package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"occasion-listing/internal/catalog"
)

//go:embed default.yaml
var embeddedDefaultConfig []byte

//go:embed default_env.example
var embeddedEnvExample []byte

const rootDirName = ".occasion-listing"

func Load(pathArg, cwd string) (*Config, *Paths, error) {
	paths, err := resolvePaths(pathArg)
	if err != nil {
		return nil, nil, err
	}
	if err := ensureBootstrap(paths); err != nil {
		return nil, nil, err
	}

	raw, err := os.ReadFile(paths.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败（%s）：%w", paths.ConfigPath, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, nil, fmt.Errorf("配置文件格式错误（%s）：%w", paths.ConfigPath, err)
	}
	cfg.applyDefaults()

	paths.ConfigSource = paths.ConfigPath
	paths.ResolvedCatalogDir = expandPath(cfg.CatalogDir, paths.HomeDir, cwd)
	if err := ensureCatalogFiles(paths.ResolvedCatalogDir); err != nil {
		return nil, nil, err
	}
	return cfg, paths, nil
}

// LoadCatalog reads the catalogs from the resolved catalog dir.
func LoadCatalog(paths *Paths) (*catalog.Catalog, error) {
	if paths == nil || strings.TrimSpace(paths.ResolvedCatalogDir) == "" {
		return catalog.Default()
	}
	cat, err := catalog.LoadDir(paths.ResolvedCatalogDir)
	if err != nil {
		return nil, fmt.Errorf("加载目录失败（%s）：%w", paths.ResolvedCatalogDir, err)
	}
	return cat, nil
}

func resolvePaths(configArg string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("读取用户目录失败：%w", err)
	}
	root := filepath.Join(home, rootDirName)
	configPath := filepath.Join(root, "config.yaml")
	if strings.TrimSpace(configArg) != "" {
		configPath = expandPath(configArg, home, "")
	}

	return &Paths{
		HomeDir:         home,
		RootDir:         root,
		ConfigPath:      configPath,
		CatalogDir:      filepath.Join(root, "catalogs"),
		CatalogLockPath: filepath.Join(root, "catalogs.lock.json"),
		EnvPath:         filepath.Join(root, ".env"),
		EnvExample:      filepath.Join(root, ".env.example"),
	}, nil
}

func ensureBootstrap(paths *Paths) error {
	if err := os.MkdirAll(filepath.Dir(paths.ConfigPath), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败：%w", err)
	}
	if err := ensureFile(paths.ConfigPath, embeddedDefaultConfig, 0o644); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(paths.EnvExample), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败：%w", err)
	}
	if err := ensureFile(paths.EnvExample, embeddedEnvExample, 0o644); err != nil {
		return err
	}
	return ensureCatalogFiles(paths.CatalogDir)
}

func ensureFile(path string, data []byte, mode os.FileMode) error {
	if st, err := os.Stat(path); err == nil {
		if st.IsDir() {
			return fmt.Errorf("默认文件路径是目录（%s）", path)
		}
		return nil
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("写入默认文件失败（%s）：%w", path, err)
	}
	return nil
}

func ensureCatalogFiles(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("目录路径为空")
	}
	if err := catalog.WriteDefaults(dir); err != nil {
		return fmt.Errorf("写入默认目录失败（%s）：%w", dir, err)
	}
	return nil
}

func expandPath(v, home, cwd string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if strings.HasPrefix(v, "~/") {
		return filepath.Join(home, v[2:])
	}
	if filepath.IsAbs(v) {
		return v
	}
	if strings.TrimSpace(cwd) != "" {
		return filepath.Join(cwd, v)
	}
	return v
}
