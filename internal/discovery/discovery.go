package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"occasion-listing/internal/listing"
)

var briefExts = []string{".md", ".txt"}

type Result struct {
	Files    []string
	Skipped  []string
	Warnings []string
}

// Discover resolves files and directories to product brief files. Explicit
// files must carry the brief marker; directory entries without it are skipped.
func Discover(inputs []string) (Result, error) {
	if len(inputs) == 0 {
		return Result{}, fmt.Errorf("未提供输入路径")
	}
	set := map[string]struct{}{}
	res := Result{}

	for _, in := range inputs {
		if strings.TrimSpace(in) == "" {
			continue
		}
		st, err := os.Stat(in)
		if err != nil {
			return Result{}, fmt.Errorf("输入路径无效（%s）：%w", in, err)
		}
		if st.IsDir() {
			if err := scanDir(in, set, &res); err != nil {
				return Result{}, err
			}
			continue
		}
		raw, err := os.ReadFile(in)
		if err != nil {
			return Result{}, fmt.Errorf("读取文件失败（%s）：%w", in, err)
		}
		if !listing.IsProductBrief(string(raw)) {
			return Result{}, fmt.Errorf("文件不是产品简报格式（缺少首行标志 %s）：%s", listing.Marker, in)
		}
		set[filepath.Clean(in)] = struct{}{}
	}

	for p := range set {
		res.Files = append(res.Files, p)
	}
	slices.Sort(res.Files)
	if len(res.Files) == 0 {
		return Result{}, fmt.Errorf("未找到任何产品简报文件")
	}
	return res, nil
}

func scanDir(root string, set map[string]struct{}, res *Result) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !slices.Contains(briefExts, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("读取失败已跳过：%s", path))
			return nil
		}
		if !listing.IsProductBrief(string(raw)) {
			res.Skipped = append(res.Skipped, path)
			return nil
		}
		set[filepath.Clean(path)] = struct{}{}
		return nil
	})
	if err != nil {
		return fmt.Errorf("扫描目录失败（%s）：%w", root, err)
	}
	return nil
}
