package listing

import (
	"slices"
	"strings"
	"unicode/utf8"
)

type SectionKey string

const (
	SectionHero         SectionKey = "hero"
	SectionFeatures     SectionKey = "features"
	SectionTrust        SectionKey = "trust"
	SectionUsage        SectionKey = "usage"
	SectionComparison   SectionKey = "comparison"
	SectionTestimonials SectionKey = "testimonials"
	SectionContents     SectionKey = "contents"
	SectionFAQ          SectionKey = "faq"
)

// SectionKeys is the canonical enhanced-content order.
func SectionKeys() []SectionKey {
	return []SectionKey{
		SectionHero,
		SectionFeatures,
		SectionTrust,
		SectionUsage,
		SectionComparison,
		SectionTestimonials,
		SectionContents,
		SectionFAQ,
	}
}

type Bullet struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback,omitempty"`
}

type Section struct {
	Key            SectionKey `json:"key"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	Keywords       []string   `json:"keywords"`
	ImageDirective string     `json:"image_directive"`
	Fallback       bool       `json:"fallback,omitempty"`
}

type Keywords struct {
	Frontend []string `json:"frontend"`
	Backend  []string `json:"backend"`
}

// Listing is the assembled, structurally complete listing.
type Listing struct {
	Title           string    `json:"title"`
	Bullets         []Bullet  `json:"bullets"`
	Description     string    `json:"description"`
	Keywords        Keywords  `json:"keywords"`
	EnhancedContent []Section `json:"enhanced_content"`
	Backfilled      []string  `json:"backfilled,omitempty"`
	Diagnostics     []string  `json:"diagnostics,omitempty"`
}

// Complete reports whether all eight section keys are present and every
// bullet length falls within [minRunes, maxRunes].
func (l Listing) Complete(minRunes, maxRunes int) bool {
	for _, key := range SectionKeys() {
		if _, ok := l.Section(key); !ok {
			return false
		}
	}
	for _, b := range l.Bullets {
		n := utf8.RuneCountInString(strings.TrimSpace(b.Text))
		if n < minRunes || n > maxRunes {
			return false
		}
	}
	return true
}

func (l Listing) Section(key SectionKey) (Section, bool) {
	for _, s := range l.EnhancedContent {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

func (l Listing) IsBackfilled(path string) bool {
	return slices.Contains(l.Backfilled, path)
}

func (l Listing) BulletTexts() []string {
	out := make([]string, 0, len(l.Bullets))
	for _, b := range l.Bullets {
		out = append(out, b.Text)
	}
	return out
}

// CopyText joins title, bullets and description.
func (l Listing) CopyText() string {
	parts := make([]string, 0, len(l.Bullets)+2)
	parts = append(parts, l.Title)
	parts = append(parts, l.BulletTexts()...)
	parts = append(parts, l.Description)
	return strings.Join(parts, "\n")
}

// SectionText joins every section title and body.
func (l Listing) SectionText() string {
	parts := make([]string, 0, len(l.EnhancedContent)*2)
	for _, s := range l.EnhancedContent {
		parts = append(parts, s.Title, s.Body)
	}
	return strings.Join(parts, "\n")
}

// AllKeywords returns frontend then backend keywords.
func (l Listing) AllKeywords() []string {
	out := make([]string, 0, len(l.Keywords.Frontend)+len(l.Keywords.Backend))
	out = append(out, l.Keywords.Frontend...)
	return append(out, l.Keywords.Backend...)
}
