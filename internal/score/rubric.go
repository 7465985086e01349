package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/Masterminds/semver/v3"
)

type Category string

const (
	CategoryTitle        Category = "title"
	CategoryBullets      Category = "bullets"
	CategoryDescription  Category = "description"
	CategoryKeywords     Category = "keywords"
	CategoryEnhanced     Category = "enhanced_content"
	CategoryLocalization Category = "localization"
	CategoryConversion   Category = "conversion"
)

// Categories is the report order.
func Categories() []Category {
	return []Category{
		CategoryTitle,
		CategoryBullets,
		CategoryDescription,
		CategoryKeywords,
		CategoryEnhanced,
		CategoryLocalization,
		CategoryConversion,
	}
}

func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "enhanced" || key == "sections" {
		key = string(CategoryEnhanced)
	}
	for _, c := range Categories() {
		if string(c) == key {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown score category %q", s)
}

type Weights map[Category]float64

func DefaultWeights() Weights {
	return Weights{
		CategoryTitle:        0.15,
		CategoryBullets:      0.20,
		CategoryDescription:  0.15,
		CategoryKeywords:     0.15,
		CategoryEnhanced:     0.20,
		CategoryLocalization: 0.15,
		CategoryConversion:   0,
	}
}

const (
	GradeExcellent   = "excellent"
	GradeCompetitive = "competitive"
	GradeNeedsWork   = "needs_work"
	GradePoor        = "poor"
)

// Rubric is versioned; the same listing, brief and localization report
// always score the same under one rubric version.
type Rubric struct {
	Version       string  `yaml:"version" json:"version"`
	Weights       Weights `yaml:"weights" json:"weights"`
	PassThreshold float64 `yaml:"pass_threshold" json:"pass_threshold"`
	Max           float64 `yaml:"max" json:"max"`
}

func DefaultRubric() Rubric {
	return Rubric{
		Version:       "1.0.0",
		Weights:       DefaultWeights(),
		PassThreshold: 8.0,
		Max:           10,
	}
}

func (r Rubric) withDefaults() Rubric {
	d := DefaultRubric()
	if strings.TrimSpace(r.Version) == "" {
		r.Version = d.Version
	}
	if r.Max <= 0 {
		r.Max = d.Max
	}
	if r.PassThreshold <= 0 {
		r.PassThreshold = r.Max * d.PassThreshold / d.Max
	}
	weights := DefaultWeights()
	for c, w := range r.Weights {
		weights[c] = w
	}
	r.Weights = weights
	return r
}

func (r Rubric) validate() (*semver.Version, error) {
	v, err := semver.NewVersion(r.Version)
	if err != nil {
		return nil, fmt.Errorf("rubric version %q: %w", r.Version, err)
	}
	total := 0.0
	for c, w := range r.Weights {
		if _, err := ParseCategory(string(c)); err != nil {
			return nil, err
		}
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("rubric weight for %s must not be negative", c)
		}
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("rubric weights sum to zero")
	}
	if r.PassThreshold > r.Max {
		return nil, fmt.Errorf("pass threshold %.2f exceeds rubric max %.2f", r.PassThreshold, r.Max)
	}
	return v, nil
}

// Grade maps a score to a band relative to max.
func Grade(score, max float64) string {
	if max <= 0 {
		return GradePoor
	}
	switch ratio := score / max; {
	case ratio >= 0.9:
		return GradeExcellent
	case ratio >= 0.8:
		return GradeCompetitive
	case ratio >= 0.6:
		return GradeNeedsWork
	default:
		return GradePoor
	}
}
