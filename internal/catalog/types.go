// Package catalog holds the read-only occasion, tone and locale registries.
package catalog

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"occasion-listing/internal/textmatch"
)

const (
	GeneralPurposeID = "general"
	DefaultPhraseKey = "default"
)

type OccasionProfile struct {
	ID                 string              `yaml:"id" json:"id" validate:"required"`
	Name               string              `yaml:"name" json:"name" validate:"required"`
	Aliases            []string            `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	LocalizedNames     map[string]string   `yaml:"localized_names,omitempty" json:"localized_names,omitempty"`
	LocalizedKeywords  map[string][]string `yaml:"localized_keywords,omitempty" json:"localized_keywords,omitempty"`
	EmotionalFramework string              `yaml:"emotional_framework" json:"emotional_framework" validate:"required"`
	PrimaryKeywords    []string            `yaml:"primary_keywords" json:"primary_keywords" validate:"required,min=1,dive,required"`
	EmotionalBenefits  []string            `yaml:"emotional_benefits,omitempty" json:"emotional_benefits,omitempty"`
	GiftContext        string              `yaml:"gift_context" json:"gift_context"`
	EmotionalTriggers  []string            `yaml:"emotional_triggers,omitempty" json:"emotional_triggers,omitempty"`
	ToneAdaptations    map[string]string   `yaml:"tone_adaptations,omitempty" json:"tone_adaptations,omitempty"`
	TitlePattern       string              `yaml:"title_pattern" json:"title_pattern" validate:"required"`
	ContentThemeHints  string              `yaml:"content_theme_hints" json:"content_theme_hints" validate:"required"`
	BulletStarters     []string            `yaml:"bullet_starters,omitempty" json:"bullet_starters,omitempty"`
	DescriptionHook    string              `yaml:"description_hook,omitempty" json:"description_hook,omitempty"`
	Custom             bool                `yaml:"-" json:"custom,omitempty"`
}

// NameFor returns the occasion's display name in the given language.
func (p OccasionProfile) NameFor(language string) string {
	if name := strings.TrimSpace(p.LocalizedNames[language]); name != "" {
		return name
	}
	return p.Name
}

// KeywordsFor returns search terms written for the locale, looked up by locale
// id first and then by language. English locales use PrimaryKeywords.
func (p OccasionProfile) KeywordsFor(localeID, language string) []string {
	if kws := p.LocalizedKeywords[localeID]; len(kws) > 0 {
		return slices.Clone(kws)
	}
	return slices.Clone(p.LocalizedKeywords[language])
}

func (p OccasionProfile) IsGeneral() bool {
	return p.ID == GeneralPurposeID
}

func (p OccasionProfile) clone() OccasionProfile {
	p.Aliases = slices.Clone(p.Aliases)
	p.LocalizedNames = maps.Clone(p.LocalizedNames)
	if p.LocalizedKeywords != nil {
		kws := make(map[string][]string, len(p.LocalizedKeywords))
		for k, v := range p.LocalizedKeywords {
			kws[k] = slices.Clone(v)
		}
		p.LocalizedKeywords = kws
	}
	p.PrimaryKeywords = slices.Clone(p.PrimaryKeywords)
	p.EmotionalBenefits = slices.Clone(p.EmotionalBenefits)
	p.EmotionalTriggers = slices.Clone(p.EmotionalTriggers)
	p.ToneAdaptations = maps.Clone(p.ToneAdaptations)
	p.BulletStarters = slices.Clone(p.BulletStarters)
	return p
}

type ToneProfile struct {
	ID              string              `yaml:"id" json:"id" validate:"required"`
	Description     string              `yaml:"description,omitempty" json:"description,omitempty"`
	RequiredPhrases map[string][]string `yaml:"required_phrases" json:"required_phrases" validate:"required"`
	PowerWords      []string            `yaml:"power_words,omitempty" json:"power_words,omitempty"`
	AvoidedWords    []string            `yaml:"avoided_words,omitempty" json:"avoided_words,omitempty"`
	TitleStarters   []string            `yaml:"title_starters,omitempty" json:"title_starters,omitempty"`
}

// PhrasesFor returns the phrases every generated section must carry in the
// given language, falling back to the default set.
func (t ToneProfile) PhrasesFor(language string) []string {
	if phrases, ok := t.RequiredPhrases[language]; ok && len(phrases) > 0 {
		return slices.Clone(phrases)
	}
	return slices.Clone(t.RequiredPhrases[DefaultPhraseKey])
}

func (t ToneProfile) clone() ToneProfile {
	phrases := make(map[string][]string, len(t.RequiredPhrases))
	for k, v := range t.RequiredPhrases {
		phrases[k] = slices.Clone(v)
	}
	t.RequiredPhrases = phrases
	t.PowerWords = slices.Clone(t.PowerWords)
	t.AvoidedWords = slices.Clone(t.AvoidedWords)
	t.TitleStarters = slices.Clone(t.TitleStarters)
	return t
}

type LocaleProfile struct {
	ID                         string   `yaml:"id" json:"id" validate:"required"`
	Name                       string   `yaml:"name" json:"name" validate:"required"`
	Language                   string   `yaml:"language" json:"language" validate:"required"`
	Aliases                    []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	ExpectedScripts            []string `yaml:"expected_scripts" json:"expected_scripts" validate:"required,min=1"`
	SpecialCharacters          string   `yaml:"special_characters,omitempty" json:"special_characters,omitempty"`
	CulturalTerms              []string `yaml:"cultural_terms" json:"cultural_terms" validate:"required,min=1"`
	AvoidTermsFromOtherLocales []string `yaml:"avoid_terms,omitempty" json:"avoid_terms,omitempty"`
	CurrencySymbol             string   `yaml:"currency_symbol" json:"currency_symbol" validate:"required"`
	FormalityMarkers           []string `yaml:"formality_markers,omitempty" json:"formality_markers,omitempty"`
	ImageryCues                []string `yaml:"imagery_cues,omitempty" json:"imagery_cues,omitempty"`
	GiftTerm                   string   `yaml:"gift_term" json:"gift_term" validate:"required"`
	TitlePattern               string   `yaml:"title_pattern,omitempty" json:"title_pattern,omitempty"`
	GeneralTitlePattern        string   `yaml:"general_title_pattern,omitempty" json:"general_title_pattern,omitempty"`
	UrgencyCues                []string `yaml:"urgency_cues,omitempty" json:"urgency_cues,omitempty"`
	TrustCues                  []string `yaml:"trust_cues,omitempty" json:"trust_cues,omitempty"`
	SocialProofCues            []string `yaml:"social_proof_cues,omitempty" json:"social_proof_cues,omitempty"`
}

// SpecialSet returns the distinct diacritics the locale expects.
func (l LocaleProfile) SpecialSet() []rune {
	var out []rune
	for _, r := range l.SpecialCharacters {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}

func (l LocaleProfile) clone() LocaleProfile {
	l.Aliases = slices.Clone(l.Aliases)
	l.ExpectedScripts = slices.Clone(l.ExpectedScripts)
	l.CulturalTerms = slices.Clone(l.CulturalTerms)
	l.AvoidTermsFromOtherLocales = slices.Clone(l.AvoidTermsFromOtherLocales)
	l.FormalityMarkers = slices.Clone(l.FormalityMarkers)
	l.ImageryCues = slices.Clone(l.ImageryCues)
	l.UrgencyCues = slices.Clone(l.UrgencyCues)
	l.TrustCues = slices.Clone(l.TrustCues)
	l.SocialProofCues = slices.Clone(l.SocialProofCues)
	return l
}

// NormalizeID maps free-form identifiers onto catalog keys:
// "Valentine's Day", "valentines-day" and "VALENTINES DAY" all become "valentines_day".
func NormalizeID(id string) string {
	s := textmatch.Fold(textmatch.StripMarks(strings.TrimSpace(id)))
	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		switch {
		case r == '\'' || r == '’' || r == '`':
			continue
		case isIDRune(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}

func isIDRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
