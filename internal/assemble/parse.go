package assemble

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"occasion-listing/internal/listing"
)

type rawSection struct {
	title          string
	body           string
	keywords       []string
	imageDirective string
}

type rawFields struct {
	title       string
	bullets     []string
	description string
	frontend    []string
	backend     []string
	sections    map[listing.SectionKey]rawSection
}

func (f rawFields) empty() bool {
	return f.title == "" && len(f.bullets) == 0 && f.description == "" &&
		len(f.frontend) == 0 && len(f.backend) == 0 && len(f.sections) == 0
}

var (
	titleKeys       = []string{"title", "producttitle", "listingtitle", "itemname"}
	bulletKeys      = []string{"bullets", "bulletpoints", "bullet", "keyfeatures", "highlights", "fivepoints"}
	descriptionKeys = []string{"description", "longdescription", "productdescription", "body"}
	keywordKeys     = []string{"keywords", "seokeywords", "frontendkeywords", "keywordlist"}
	backendKeys     = []string{"backendkeywords", "searchterms", "backendsearchterms", "hiddenkeywords"}
	enhancedKeys    = []string{"enhancedcontent", "apluscontent", "apluscontentplan", "aplus", "richcontent", "sections"}
	frontendSubKeys = []string{"frontend", "primary", "visible", "customer"}
	backendSubKeys  = []string{"backend", "searchterms", "hidden", "longtail"}

	sectionTitleKeys = []string{"title", "heading", "headline", "name"}
	sectionBodyKeys  = []string{"body", "content", "text", "description", "copy"}
	sectionKWKeys    = []string{"keywords", "seokeywords", "tags"}
	sectionImageKeys = []string{"imagedirective", "imagedescription", "image", "imagebrief", "visual"}
	sectionIDKeys    = []string{"key", "id", "section", "type"}
)

var sectionTokens = map[string]listing.SectionKey{
	"hero":            listing.SectionHero,
	"banner":          listing.SectionHero,
	"features":        listing.SectionFeatures,
	"feature":         listing.SectionFeatures,
	"keyfeatures":     listing.SectionFeatures,
	"trust":           listing.SectionTrust,
	"quality":         listing.SectionTrust,
	"trustquality":    listing.SectionTrust,
	"qualitytrust":    listing.SectionTrust,
	"usage":           listing.SectionUsage,
	"howtouse":        listing.SectionUsage,
	"use":             listing.SectionUsage,
	"comparison":      listing.SectionComparison,
	"compare":         listing.SectionComparison,
	"whychooseus":     listing.SectionComparison,
	"testimonials":    listing.SectionTestimonials,
	"testimonial":     listing.SectionTestimonials,
	"socialproof":     listing.SectionTestimonials,
	"reviews":         listing.SectionTestimonials,
	"contents":        listing.SectionContents,
	"whatsinbox":      listing.SectionContents,
	"whatsinthebox":   listing.SectionContents,
	"inthebox":        listing.SectionContents,
	"package":         listing.SectionContents,
	"packagecontents": listing.SectionContents,
	"faq":             listing.SectionFAQ,
	"faqs":            listing.SectionFAQ,
	"questions":       listing.SectionFAQ,
}

var (
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9]+`)
	sectionPrefixRe = regexp.MustCompile(`^section[0-9]*`)
	bulletPrefixRe  = regexp.MustCompile(`^\s*(?:[-*•]|[0-9]{1,2}[\.)])\s*`)
	labelRe         = regexp.MustCompile(`(?i)^\s*(title|标题|bullets?|bullet\s*points|五点|description|描述|keywords?|关键词|search\s*terms|backend\s*keywords|搜索词)\s*[:：]\s*(.*)$`)
	keywordSplitRe  = regexp.MustCompile(`[,;，；\n]+`)
)

func normKey(k string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(k), "")
}

// sectionKeyFor maps "section1_hero", "whatsInTheBox" or "FAQs" onto a canonical key.
func sectionKeyFor(name string) (listing.SectionKey, bool) {
	token := sectionPrefixRe.ReplaceAllString(normKey(name), "")
	if key, ok := sectionTokens[token]; ok {
		return key, true
	}
	for _, key := range listing.SectionKeys() {
		if token != "" && strings.Contains(token, string(key)) {
			return key, true
		}
	}
	return "", false
}

// extractJSON returns the first object in text that decodes, tolerating prose
// and stray braces around it.
func extractJSON(text string) (map[string]any, bool) {
	for offset := 0; offset < len(text); {
		i := strings.IndexByte(text[offset:], '{')
		if i < 0 {
			break
		}
		start := offset + i
		var obj map[string]any
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&obj); err == nil && len(obj) > 0 {
			return obj, true
		}
		offset = start + 1
	}
	return nil, false
}

type lookup map[string]any

func newLookup(obj map[string]any) lookup {
	l := make(lookup, len(obj))
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		nk := normKey(k)
		if _, taken := l[nk]; !taken {
			l[nk] = obj[k]
		}
	}
	return l
}

func (l lookup) first(keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := l[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (l lookup) str(keys []string) string {
	v, _ := l.first(keys)
	return asString(v)
}

func fieldsFromJSON(obj map[string]any) rawFields {
	l := newLookup(obj)
	f := rawFields{
		title:       l.str(titleKeys),
		description: l.str(descriptionKeys),
		sections:    map[listing.SectionKey]rawSection{},
	}
	if v, ok := l.first(bulletKeys); ok {
		f.bullets = asBullets(v)
	}
	if v, ok := l.first(keywordKeys); ok {
		if m, isObj := v.(map[string]any); isObj {
			sub := newLookup(m)
			if fv, ok := sub.first(frontendSubKeys); ok {
				f.frontend = asList(fv)
			}
			if bv, ok := sub.first(backendSubKeys); ok {
				f.backend = asList(bv)
			}
		} else {
			f.frontend = asList(v)
		}
	}
	if len(f.backend) == 0 {
		if v, ok := l.first(backendKeys); ok {
			f.backend = asList(v)
		}
	}
	if v, ok := l.first(enhancedKeys); ok {
		collectSections(v, f.sections)
	}
	// Legacy layouts put section1_hero ... at the top level.
	legacy := make([]string, 0, len(obj))
	for k := range obj {
		if strings.HasPrefix(normKey(k), "section") && normKey(k) != "sections" {
			legacy = append(legacy, k)
		}
	}
	sort.Strings(legacy)
	for _, k := range legacy {
		if key, ok := sectionKeyFor(k); ok {
			if _, exists := f.sections[key]; !exists {
				f.sections[key] = asSection(obj[k])
			}
		}
	}
	for key, s := range f.sections {
		if s.title == "" && s.body == "" && len(s.keywords) == 0 && s.imageDirective == "" {
			delete(f.sections, key)
		}
	}
	return f
}

func collectSections(v any, out map[listing.SectionKey]rawSection) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			key, ok := sectionKeyFor(k)
			if !ok {
				continue
			}
			if _, exists := out[key]; !exists {
				out[key] = asSection(t[k])
			}
		}
	case []any:
		order := listing.SectionKeys()
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				if i < len(order) {
					if _, exists := out[order[i]]; !exists {
						out[order[i]] = asSection(item)
					}
				}
				continue
			}
			key, found := listing.SectionKey(""), false
			if id := newLookup(m).str(sectionIDKeys); id != "" {
				key, found = sectionKeyFor(id)
			}
			if !found && i < len(order) {
				key, found = order[i], true
			}
			if !found {
				continue
			}
			if _, exists := out[key]; !exists {
				out[key] = asSection(m)
			}
		}
	}
}

func asSection(v any) rawSection {
	switch t := v.(type) {
	case string:
		return rawSection{body: strings.TrimSpace(t)}
	case map[string]any:
		l := newLookup(t)
		s := rawSection{
			title:          l.str(sectionTitleKeys),
			body:           l.str(sectionBodyKeys),
			imageDirective: l.str(sectionImageKeys),
		}
		if kv, ok := l.first(sectionKWKeys); ok {
			s.keywords = asList(kv)
		}
		return s
	}
	return rawSection{}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := asString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n\n")
	case float64, bool:
		return strings.TrimSpace(fmt.Sprint(t))
	}
	return ""
}

func asBullets(v any) []string {
	switch t := v.(type) {
	case string:
		return parseBulletLines(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			var s string
			if m, ok := item.(map[string]any); ok {
				s = newLookup(m).str([]string{"text", "content", "bullet", "body"})
			} else {
				s = asString(item)
			}
			if s = strings.TrimSpace(bulletPrefixRe.ReplaceAllString(s, "")); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func asList(v any) []string {
	switch t := v.(type) {
	case string:
		return splitKeywords(t)
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, splitKeywords(asString(item))...)
		}
		return out
	}
	return nil
}

func splitKeywords(s string) []string {
	var out []string
	for _, part := range keywordSplitRe.Split(s, -1) {
		part = strings.TrimSpace(bulletPrefixRe.ReplaceAllString(part, ""))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBulletLines(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(bulletPrefixRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// fieldsFromText reads "Title:", "Bullets:", "Description:" and "Keywords:"
// blocks. Text without any label becomes the description.
func fieldsFromText(text string) (rawFields, bool) {
	var f rawFields
	current := ""
	labelled := false
	var desc []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if m := labelRe.FindStringSubmatch(line); m != nil {
			labelled = true
			current = labelField(m[1])
			line = m[2]
		}
		trimmed := strings.TrimSpace(line)
		switch current {
		case "title":
			if f.title == "" && trimmed != "" {
				f.title = trimmed
			}
		case "bullets":
			f.bullets = append(f.bullets, parseBulletLines(trimmed)...)
		case "description":
			desc = append(desc, line)
		case "keywords":
			f.frontend = append(f.frontend, splitKeywords(trimmed)...)
		case "backend":
			f.backend = append(f.backend, splitKeywords(trimmed)...)
		}
	}
	if !labelled {
		return rawFields{description: strings.TrimSpace(text)}, false
	}
	f.description = strings.TrimSpace(strings.Join(desc, "\n"))
	return f, true
}

func labelField(label string) string {
	switch k := normKey(label); {
	case k == "title" || label == "标题":
		return "title"
	case strings.HasPrefix(k, "bullet") || label == "五点":
		return "bullets"
	case k == "description" || label == "描述":
		return "description"
	case k == "searchterms" || k == "backendkeywords" || label == "搜索词":
		return "backend"
	default:
		return "keywords"
	}
}
