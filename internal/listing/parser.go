package listing

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

const Marker = "===Product Brief==="

var fieldLabels = map[string][]string{
	"name":        {"name", "product", "产品名"},
	"brand":       {"brand", "品牌名"},
	"category":    {"category", "分类"},
	"price":       {"price", "价格"},
	"marketplace": {"marketplace", "站点"},
	"locale":      {"locale", "语言"},
	"tone":        {"tone", "brand_tone", "语气"},
	"occasion":    {"occasion", "场景"},
}

var (
	listPrefixRe = regexp.MustCompile(`^([0-9]{1,2}[\.)]|[-*•])\s*`)
	headingRe    = regexp.MustCompile(`^#+\s*`)
)

func ParseFile(path string) (Product, error) {
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return Product{}, fmt.Errorf("读取文件失败（%s）：%w", path, err)
	}
	p, err := Parse(string(rawBytes))
	if err != nil {
		return Product{}, fmt.Errorf("%w：%s", err, path)
	}
	p.SourcePath = path
	return p, nil
}

func Parse(raw string) (Product, error) {
	body, ok := BodyAfterMarker(raw)
	if !ok {
		return Product{}, fmt.Errorf("文件不是产品简报格式（缺少首行标志 %s）", Marker)
	}
	p := Product{
		Name:        parseField(body, "name"),
		Brand:       parseField(body, "brand"),
		Category:    parseField(body, "category"),
		Price:       parseField(body, "price"),
		Marketplace: parseField(body, "marketplace"),
		Locale:      parseField(body, "locale"),
		BrandTone:   parseField(body, "tone"),
		Occasion:    parseField(body, "occasion"),
		Features:    parseList(body, "features", "卖点"),
		Description: parseBlock(body, "description", "描述"),
	}
	if err := p.Validate(); err != nil {
		return Product{}, fmt.Errorf("产品简报缺少必填字段（%s）", strings.Join(p.MissingFields(), ", "))
	}
	if len(p.Features) < 3 || len(p.Features) > 10 {
		p.Warnings = append(p.Warnings, fmt.Sprintf("卖点数量是 %d，不在 3-10 范围，继续生成", len(p.Features)))
	}
	return p, nil
}

func IsProductBrief(raw string) bool {
	_, ok := BodyAfterMarker(raw)
	return ok
}

func BodyAfterMarker(raw string) (string, bool) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	lines := strings.Split(raw, "\n")
	idx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.TrimSpace(line) == Marker {
			idx = i
		}
		break
	}
	if idx < 0 {
		return "", false
	}
	if idx+1 >= len(lines) {
		return "", true
	}
	return strings.Join(lines[idx+1:], "\n"), true
}

// parseField reads "label: value" lines, or the first line under a "# label" heading.
func parseField(body, field string) string {
	labels := fieldLabels[field]
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, label := range labels {
			if value, ok := cutLabel(trimmed, label); ok {
				return value
			}
			if isHeading(trimmed, label) {
				return firstLineUnder(lines[i+1:])
			}
		}
	}
	return ""
}

func cutLabel(line, label string) (string, bool) {
	if len(line) <= len(label) || !strings.EqualFold(line[:len(label)], label) {
		return "", false
	}
	rest := line[len(label):]
	for _, sep := range []string{":", "："} {
		if strings.HasPrefix(rest, sep) {
			return strings.TrimSpace(strings.TrimPrefix(rest, sep)), true
		}
	}
	return "", false
}

func isHeading(line, label string) bool {
	if !strings.HasPrefix(line, "#") {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(headingRe.ReplaceAllString(line, "")), label)
}

func firstLineUnder(lines []string) string {
	for _, line := range lines {
		next := strings.TrimSpace(line)
		if next == "" {
			continue
		}
		if strings.HasPrefix(next, "#") {
			return ""
		}
		return next
	}
	return ""
}

func sectionLines(body string, labels ...string) []string {
	lines := strings.Split(body, "\n")
	start := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, label := range labels {
			if isHeading(trimmed, label) {
				start = i + 1
				break
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return nil
	}
	var out []string
	for i := start; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "#") {
			break
		}
		out = append(out, lines[i])
	}
	return out
}

func parseList(body string, labels ...string) []string {
	var out []string
	for _, line := range sectionLines(body, labels...) {
		item := strings.TrimSpace(listPrefixRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func parseBlock(body string, labels ...string) string {
	return strings.TrimSpace(strings.Join(sectionLines(body, labels...), "\n"))
}
