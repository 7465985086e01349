package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

func LoadEnvFile(path string) (map[string]string, error) {
	out, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("读取 .env 失败：%w", err)
	}
	return out, nil
}

func UpsertEnvVar(path, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("env key 为空")
	}
	values := map[string]string{}
	if existing, err := godotenv.Read(path); err == nil {
		values = existing
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("读取 .env 失败：%w", err)
	}
	values[key] = strings.TrimSpace(value)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建 .env 目录失败：%w", err)
	}
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("写入 .env 失败：%w", err)
	}
	return nil
}

// ResolveAPIKey prefers the process environment over the .env file.
func ResolveAPIKey(envName, envPath string) string {
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v
	}
	values, err := LoadEnvFile(envPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(values[envName])
}
