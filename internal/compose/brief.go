package compose

import "occasion-listing/internal/listing"

// Limits are the structural bands shared by the composer, the assembler and the scorer.
type Limits struct {
	TitleMinRunes       int `yaml:"title_min_runes" json:"title_min_runes"`
	TitleMaxRunes       int `yaml:"title_max_runes" json:"title_max_runes"`
	BulletCount         int `yaml:"bullet_count" json:"bullet_count"`
	BulletMinRunes      int `yaml:"bullet_min_runes" json:"bullet_min_runes"`
	BulletMaxRunes      int `yaml:"bullet_max_runes" json:"bullet_max_runes"`
	DescriptionMinRunes int `yaml:"description_min_runes" json:"description_min_runes"`
	DescriptionMaxRunes int `yaml:"description_max_runes" json:"description_max_runes"`
	SectionBodyMinRunes int `yaml:"section_body_min_runes" json:"section_body_min_runes"`
	KeywordMin          int `yaml:"keyword_min" json:"keyword_min"`
	BackendMaxBytes     int `yaml:"backend_max_bytes" json:"backend_max_bytes"`
}

func DefaultLimits() Limits {
	return Limits{
		TitleMinRunes:       150,
		TitleMaxRunes:       200,
		BulletCount:         5,
		BulletMinRunes:      120,
		BulletMaxRunes:      280,
		DescriptionMinRunes: 1000,
		DescriptionMaxRunes: 2000,
		SectionBodyMinRunes: 120,
		KeywordMin:          10,
		BackendMaxBytes:     249,
	}
}

// WithDefaults fills zero fields from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	fill := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&l.TitleMinRunes, d.TitleMinRunes)
	fill(&l.TitleMaxRunes, d.TitleMaxRunes)
	fill(&l.BulletCount, d.BulletCount)
	fill(&l.BulletMinRunes, d.BulletMinRunes)
	fill(&l.BulletMaxRunes, d.BulletMaxRunes)
	fill(&l.DescriptionMinRunes, d.DescriptionMinRunes)
	fill(&l.DescriptionMaxRunes, d.DescriptionMaxRunes)
	fill(&l.SectionBodyMinRunes, d.SectionBodyMinRunes)
	fill(&l.KeywordMin, d.KeywordMin)
	fill(&l.BackendMaxBytes, d.BackendMaxBytes)
	return l
}

const (
	Tier1Weight = 0.70
	Tier2Weight = 0.20
	Tier3Weight = 0.10
)

const (
	KindOccasion = "occasion"
	KindBenefit  = "benefit"
	KindFeature  = "feature"
	KindCategory = "category"
)

type WeightedKeyword struct {
	Term    string  `json:"term"`
	Tier    int     `json:"tier"`
	Weight  float64 `json:"weight"`
	Kind    string  `json:"kind"`
	Framing string  `json:"framing,omitempty"`
}

type TierSummary struct {
	Tier   int     `json:"tier"`
	Weight float64 `json:"weight"`
	Terms  int     `json:"terms"`
}

type TitleRequirement struct {
	Pattern     string   `json:"pattern"`
	Rendered    string   `json:"rendered"`
	Directive   bool     `json:"directive,omitempty"`
	MinRunes    int      `json:"min_runes"`
	MaxRunes    int      `json:"max_runes"`
	MustInclude []string `json:"must_include"`
}

type BulletRequirement struct {
	Count       int      `json:"count"`
	MinRunes    int      `json:"min_runes"`
	MaxRunes    int      `json:"max_runes"`
	LeadBenefit string   `json:"lead_benefit"`
	Starters    []string `json:"starters,omitempty"`
}

type DescriptionRequirement struct {
	MinRunes            int    `json:"min_runes"`
	MaxRunes            int    `json:"max_runes"`
	Opening             string `json:"opening"`
	MinOccasionMentions int    `json:"min_occasion_mentions"`
}

type SectionDirective struct {
	Key            listing.SectionKey `json:"key"`
	Heading        string             `json:"heading"`
	Focus          string             `json:"focus"`
	Theme          string             `json:"theme"`
	ImageDirective string             `json:"image_directive"`
}

// Constraints must hold in every generated section. The scorer checks the same values.
type Constraints struct {
	RequiredPhrases  []string `json:"required_phrases"`
	FormalityMarkers []string `json:"formality_markers,omitempty"`
	AvoidWords       []string `json:"avoid_words,omitempty"`
	LocaleAvoidWords []string `json:"locale_avoid_words,omitempty"`
	PowerWords       []string `json:"power_words,omitempty"`
}

// ConversionCues are the locale's words for urgency, trust and social proof.
type ConversionCues struct {
	Urgency     []string `json:"urgency,omitempty"`
	Trust       []string `json:"trust,omitempty"`
	SocialProof []string `json:"social_proof,omitempty"`
}

// Brief is the generation instruction for one product. It lives only for the
// duration of one completion call.
type Brief struct {
	ProductName    string   `json:"product_name"`
	Brand          string   `json:"brand"`
	Category       string   `json:"category,omitempty"`
	Features       []string `json:"features,omitempty"`
	Price          string   `json:"price,omitempty"`
	Marketplace    string   `json:"marketplace,omitempty"`
	CatalogVersion string   `json:"catalog_version,omitempty"`

	OccasionID     string `json:"occasion_id"`
	OccasionName   string `json:"occasion_name"`
	GeneralPurpose bool   `json:"general_purpose,omitempty"`
	CustomOccasion bool   `json:"custom_occasion,omitempty"`
	ToneID         string `json:"tone_id"`
	LocaleID       string `json:"locale_id"`
	LocaleName     string `json:"locale_name"`
	Language       string `json:"language"`
	Currency       string `json:"currency"`
	GiftTerm       string `json:"gift_term"`

	ToneAdaptation     string   `json:"tone_adaptation"`
	EmotionalFramework string   `json:"emotional_framework"`
	GiftContext        string   `json:"gift_context,omitempty"`
	EmotionalTriggers  []string `json:"emotional_triggers,omitempty"`
	CulturalTerms      []string `json:"cultural_terms,omitempty"`

	Title       TitleRequirement       `json:"title"`
	Bullets     BulletRequirement      `json:"bullets"`
	Description DescriptionRequirement `json:"description"`

	Keywords        []WeightedKeyword `json:"keywords"`
	Tiers           []TierSummary     `json:"tiers"`
	KeywordMin      int               `json:"keyword_min"`
	BackendMaxBytes int               `json:"backend_max_bytes"`

	Sections       []SectionDirective `json:"sections"`
	SectionBodyMin int                `json:"section_body_min_runes"`

	Constraints Constraints    `json:"constraints"`
	Cues        ConversionCues `json:"conversion_cues"`
}

// TierTerms returns the keyword terms of one tier in priority order.
func (b Brief) TierTerms(tier int) []string {
	var out []string
	for _, kw := range b.Keywords {
		if kw.Tier == tier {
			out = append(out, kw.Term)
		}
	}
	return out
}

// OccasionTerms are the words that count as a mention of the occasion.
func (b Brief) OccasionTerms() []string {
	if b.GeneralPurpose {
		return nil
	}
	out := []string{b.OccasionName}
	for _, kw := range b.Keywords {
		if kw.Kind == KindOccasion {
			out = append(out, kw.Term)
		}
	}
	return out
}

func (b Brief) Section(key listing.SectionKey) (SectionDirective, bool) {
	for _, s := range b.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return SectionDirective{}, false
}
