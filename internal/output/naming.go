package output

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Pair is the JSON and Markdown output of one listing.
type Pair struct {
	ID       string
	JSONPath string
	MDPath   string
}

func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("输出目录为空")
	}
	return os.MkdirAll(dir, 0o755)
}

// NextPair picks a random id whose listing_<id>.json and listing_<id>.md
// are both free in dir.
func NextPair(dir string, randomLen int, randSrc io.Reader) (Pair, error) {
	if randomLen <= 0 {
		randomLen = 8
	}
	if randSrc == nil {
		randSrc = rand.Reader
	}
	for i := 0; i < 1000; i++ {
		id, err := randomID(randomLen, randSrc)
		if err != nil {
			return Pair{}, err
		}
		p := Pair{
			ID:       id,
			JSONPath: filepath.Join(dir, fmt.Sprintf("listing_%s.json", id)),
			MDPath:   filepath.Join(dir, fmt.Sprintf("listing_%s.md", id)),
		}
		if !exists(p.JSONPath) && !exists(p.MDPath) {
			return p, nil
		}
	}
	return Pair{}, fmt.Errorf("尝试多次仍无法生成不冲突文件名")
}

// WriteFile writes through a temp file in the same directory and renames it
// into place.
func WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return fmt.Errorf("创建临时文件失败（%s）：%w", path, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("写入文件失败（%s）：%w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("写入文件失败（%s）：%w", path, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("写入文件失败（%s）：%w", path, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func randomID(n int, randSrc io.Reader) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(randSrc, buf); err != nil {
		return "", fmt.Errorf("读取随机数失败：%w", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}
