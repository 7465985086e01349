// Package localization estimates whether listing copy reads as native to a
// target market.
//
// The checks are heuristics, not a translation-quality oracle. Script share
// and diacritic coverage miss fluent copy that happens to avoid special
// characters, and cultural-term matching rewards keyword stuffing. Scores are
// signals for review, never ground truth.
package localization

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"

	"occasion-listing/internal/catalog"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/textmatch"
)

const criticalPrefix = "CRITICAL: "

type Config struct {
	ScriptMax            float64 `yaml:"script_max" json:"script_max"`
	CulturalMax          float64 `yaml:"cultural_max" json:"cultural_max"`
	PointsPerTerm        float64 `yaml:"points_per_term" json:"points_per_term"`
	ContaminationPenalty float64 `yaml:"contamination_penalty" json:"contamination_penalty"`
}

func DefaultConfig() Config {
	return Config{ScriptMax: 10, CulturalMax: 10, PointsPerTerm: 2.5, ContaminationPenalty: 0.1}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ScriptMax <= 0 {
		c.ScriptMax = d.ScriptMax
	}
	if c.CulturalMax <= 0 {
		c.CulturalMax = d.CulturalMax
	}
	if c.PointsPerTerm <= 0 {
		c.PointsPerTerm = d.PointsPerTerm
	}
	if c.ContaminationPenalty < 0 {
		c.ContaminationPenalty = d.ContaminationPenalty
	}
	return c
}

type Report struct {
	LocaleID            string   `json:"locale_id"`
	ScriptScore         float64  `json:"script_score"`
	ScriptMax           float64  `json:"script_max"`
	ScriptRatio         float64  `json:"script_ratio"`
	NativeCharacters    int      `json:"native_characters"`
	CulturalScore       float64  `json:"cultural_score"`
	CulturalMax         float64  `json:"cultural_max"`
	CulturalTermsFound  []string `json:"cultural_terms_found"`
	ContaminationIssues []string `json:"contamination_issues"`
	Issues              []string `json:"issues"`
	Strengths           []string `json:"strengths"`
	Compliance          float64  `json:"compliance"`
}

// Critical reports whether any issue is marked critical.
func (r Report) Critical() bool {
	return slices.ContainsFunc(r.Issues, func(s string) bool { return strings.HasPrefix(s, criticalPrefix) })
}

// Validator never mutates the listing it reads.
type Validator struct {
	Config Config
}

func New(cfg Config) Validator {
	return Validator{Config: cfg.withDefaults()}
}

func (v Validator) Validate(l listing.Listing, locale catalog.LocaleProfile) Report {
	cfg := v.Config.withDefaults()
	r := Report{
		LocaleID:    locale.ID,
		ScriptMax:   cfg.ScriptMax,
		CulturalMax: cfg.CulturalMax,
	}
	copyText := l.CopyText()
	allText := copyText + "\n" + l.SectionText() + "\n" + strings.Join(l.AllKeywords(), "\n")
	proseText := copyText + "\n" + l.SectionText()

	v.scoreScript(&r, copyText, locale, cfg)
	scoreCultural(&r, allText, locale, cfg)
	scoreContamination(&r, proseText, locale)

	total := cfg.ScriptMax + cfg.CulturalMax
	compliance := (r.ScriptScore+r.CulturalScore)/total - cfg.ContaminationPenalty*float64(len(r.ContaminationIssues))
	r.Compliance = round(clamp(compliance, 0, 1), 4)
	return r
}

func (v Validator) scoreScript(r *Report, text string, locale catalog.LocaleProfile, cfg Config) {
	tables := locale.ScriptTables()
	letters, inScript := 0, 0
	specials := locale.SpecialSet()
	found := map[rune]bool{}
	specialCount := 0
	for _, c := range text {
		if !unicode.IsLetter(c) {
			continue
		}
		letters++
		if unicode.In(c, tables...) {
			inScript++
		}
		if slices.Contains(specials, c) {
			specialCount++
			found[c] = true
		}
	}

	share := 0.0
	if letters > 0 {
		share = float64(inScript) / float64(letters)
	}
	ratio := share
	r.NativeCharacters = inScript
	if len(specials) > 0 {
		r.NativeCharacters = specialCount
		needed := min(3, len(specials))
		coverage := math.Min(1, float64(len(found))/float64(needed))
		ratio = share * coverage
		if len(found) < needed && specialCount > 0 {
			r.Issues = append(r.Issues, fmt.Sprintf("only %d of %d expected special characters found (%s)", len(found), needed, locale.SpecialCharacters))
		}
	}

	if r.NativeCharacters == 0 {
		r.ScriptRatio = 0
		r.ScriptScore = 0
		r.Issues = append(r.Issues, fmt.Sprintf("%sno %s script characters found; the copy does not read as %s language text",
			criticalPrefix, strings.Join(locale.ExpectedScripts, "/"), locale.Name))
		return
	}
	r.ScriptRatio = round(ratio, 4)
	r.ScriptScore = round(ratio*cfg.ScriptMax, 2)
	switch {
	case ratio >= 0.9:
		r.Strengths = append(r.Strengths, fmt.Sprintf("native script ratio %.2f for %s", ratio, locale.Name))
	case ratio < 0.5:
		r.Issues = append(r.Issues, fmt.Sprintf("low native script ratio %.2f for %s language text", ratio, locale.Name))
	}
}

func scoreCultural(r *Report, text string, locale catalog.LocaleProfile, cfg Config) {
	for _, term := range locale.CulturalTerms {
		if textmatch.ContainsFold(text, term) {
			r.CulturalTermsFound = append(r.CulturalTermsFound, term)
		}
	}
	r.CulturalScore = round(math.Min(cfg.CulturalMax, float64(len(r.CulturalTermsFound))*cfg.PointsPerTerm), 2)
	if len(r.CulturalTermsFound) == 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("no cultural terms for %s found (expected any of: %s)", locale.Name, strings.Join(locale.CulturalTerms, ", ")))
		return
	}
	r.Strengths = append(r.Strengths, fmt.Sprintf("cultural terms found: %s", strings.Join(r.CulturalTermsFound, ", ")))
}

func scoreContamination(r *Report, text string, locale catalog.LocaleProfile) {
	for _, term := range locale.AvoidTermsFromOtherLocales {
		n := textmatch.CountWord(text, term)
		if n == 0 {
			continue
		}
		issue := fmt.Sprintf("contamination: %q from another locale appears %d time(s)", term, n)
		r.ContaminationIssues = append(r.ContaminationIssues, issue)
		r.Issues = append(r.Issues, issue)
	}
	if len(r.ContaminationIssues) == 0 && len(locale.AvoidTermsFromOtherLocales) > 0 {
		r.Strengths = append(r.Strengths, "no vocabulary from other locales")
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
