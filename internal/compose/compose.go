// Package compose turns a product and its occasion, tone and locale profiles
// into a generation brief.
package compose

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"occasion-listing/internal/catalog"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/textmatch"
)

const genericToneAdaptation = "expertly crafted for {occasion}"

type Composer struct {
	Limits         Limits
	CatalogVersion string
}

func New(limits Limits, catalogVersion string) Composer {
	return Composer{Limits: limits.WithDefaults(), CatalogVersion: catalogVersion}
}

// Compose is a pure function of its inputs and the composer's limits.
func (c Composer) Compose(product listing.Product, occasion catalog.OccasionProfile, tone catalog.ToneProfile, locale catalog.LocaleProfile) Brief {
	limits := c.Limits.WithDefaults()
	occasionName := occasion.NameFor(locale.Language)
	label := occasionName
	if occasion.IsGeneral() {
		label = "everyday use"
	}
	render := placeholderRenderer(product, label)

	adaptation := strings.TrimSpace(occasion.ToneAdaptations[tone.ID])
	if adaptation == "" {
		adaptation = genericToneAdaptation
	}

	b := Brief{
		ProductName:    strings.TrimSpace(product.Name),
		Brand:          strings.TrimSpace(product.Brand),
		Category:       strings.TrimSpace(product.Category),
		Features:       slices.Clone(product.Features),
		Price:          strings.TrimSpace(product.Price),
		Marketplace:    strings.TrimSpace(product.Marketplace),
		CatalogVersion: c.CatalogVersion,

		OccasionID:     occasion.ID,
		OccasionName:   occasionName,
		GeneralPurpose: occasion.IsGeneral(),
		CustomOccasion: occasion.Custom,
		ToneID:         tone.ID,
		LocaleID:       locale.ID,
		LocaleName:     locale.Name,
		Language:       locale.Language,
		Currency:       locale.CurrencySymbol,
		GiftTerm:       locale.GiftTerm,

		ToneAdaptation:     render(adaptation),
		EmotionalFramework: render(occasion.EmotionalFramework),
		GiftContext:        render(occasion.GiftContext),
		CulturalTerms:      slices.Clone(locale.CulturalTerms),

		KeywordMin:      limits.KeywordMin,
		BackendMaxBytes: limits.BackendMaxBytes,
		SectionBodyMin:  limits.SectionBodyMinRunes,
	}
	for _, trigger := range occasion.EmotionalTriggers {
		b.EmotionalTriggers = append(b.EmotionalTriggers, render(trigger))
	}

	b.Title = composeTitle(product, occasion, locale, occasionName, limits)
	b.Bullets = BulletRequirement{
		Count:       limits.BulletCount,
		MinRunes:    limits.BulletMinRunes,
		MaxRunes:    limits.BulletMaxRunes,
		LeadBenefit: b.ToneAdaptation,
		Starters:    slices.Clone(occasion.BulletStarters),
	}
	if len(b.EmotionalTriggers) > 0 {
		b.Bullets.LeadBenefit = b.EmotionalTriggers[0]
	}

	opening := render(occasion.DescriptionHook)
	if opening == "" {
		opening = b.EmotionalFramework
	}
	b.Description = DescriptionRequirement{
		MinRunes: limits.DescriptionMinRunes,
		MaxRunes: limits.DescriptionMaxRunes,
		Opening:  opening,
	}
	if !occasion.IsGeneral() {
		b.Description.MinOccasionMentions = 2
	}

	b.Keywords, b.Tiers = buildHierarchy(product, occasion, locale, occasionName)
	b.Sections = composeSections(product, occasion, locale)
	b.Constraints = Constraints{
		RequiredPhrases:  tone.PhrasesFor(locale.Language),
		FormalityMarkers: slices.Clone(locale.FormalityMarkers),
		AvoidWords:       dedupeFold(slices.Clone(tone.AvoidedWords)),
		LocaleAvoidWords: dedupeFold(slices.Clone(locale.AvoidTermsFromOtherLocales)),
		PowerWords:       slices.Clone(tone.PowerWords),
	}
	b.Cues = ConversionCues{
		Urgency:     slices.Clone(locale.UrgencyCues),
		Trust:       slices.Clone(locale.TrustCues),
		SocialProof: slices.Clone(locale.SocialProofCues),
	}
	return b
}

func composeTitle(product listing.Product, occasion catalog.OccasionProfile, locale catalog.LocaleProfile, occasionName string, limits Limits) TitleRequirement {
	render := placeholderRenderer(product, occasionName)
	t := TitleRequirement{
		Pattern:     occasion.TitlePattern,
		MinRunes:    limits.TitleMinRunes,
		MaxRunes:    limits.TitleMaxRunes,
		MustInclude: []string{strings.TrimSpace(product.Brand), strings.TrimSpace(product.Name)},
	}
	if !occasion.IsGeneral() {
		t.MustInclude = append(t.MustInclude, occasionName)
	}

	switch {
	case occasion.Custom:
		// A custom pattern is an instruction, not a template.
		t.Directive = true
		pattern := locale.TitlePattern
		if pattern == "" {
			pattern = "{brand} {product} - {occasion} " + upperFirst(locale.GiftTerm)
		}
		t.Rendered = render(pattern)
		return t
	case occasion.IsGeneral() && locale.GeneralTitlePattern != "":
		t.Pattern = locale.GeneralTitlePattern
	case !occasion.IsGeneral() && locale.TitlePattern != "":
		t.Pattern = locale.TitlePattern
	}
	t.Rendered = render(t.Pattern)
	return t
}

type sectionBlueprint struct {
	heading string
	focus   string
	shot    string
}

var blueprints = map[listing.SectionKey]sectionBlueprint{
	listing.SectionHero:         {"Why It Makes the Perfect Gift", "the occasion story and the emotional payoff of giving the product", "lifestyle hero shot"},
	listing.SectionFeatures:     {"Key Features", "the main features, each tied to a benefit for the recipient", "annotated close-up"},
	listing.SectionTrust:        {"Quality You Can Trust", "materials, certifications, warranty and build quality", "detail shot of materials and finish"},
	listing.SectionUsage:        {"How to Use It", "step-by-step use in the recipient's everyday routine", "three-step usage sequence"},
	listing.SectionComparison:   {"Why Choose Us", "honest comparison against ordinary alternatives", "side-by-side comparison chart"},
	listing.SectionTestimonials: {"Loved by Customers", "typical customer experiences and gifting moments", "collage of customer moments"},
	listing.SectionContents:     {"What's in the Box", "every item included and how it arrives gift-ready", "flat lay of the package contents"},
	listing.SectionFAQ:          {"Questions and Answers", "the questions buyers ask before gifting this product", "clean infographic with icons"},
}

func composeSections(product listing.Product, occasion catalog.OccasionProfile, locale catalog.LocaleProfile) []SectionDirective {
	hints := splitHints(occasion.ContentThemeHints)
	subject := strings.TrimSpace(strings.TrimSpace(product.Brand) + " " + strings.TrimSpace(product.Name))
	out := make([]SectionDirective, 0, len(listing.SectionKeys()))
	for i, key := range listing.SectionKeys() {
		bp := blueprints[key]
		var parts []string
		if len(hints) > 0 {
			parts = append(parts, hints[i%len(hints)])
		}
		if len(locale.ImageryCues) > 0 {
			parts = append(parts, locale.ImageryCues[i%len(locale.ImageryCues)])
		}
		theme := strings.Join(parts, "; ")
		out = append(out, SectionDirective{
			Key:            key,
			Heading:        bp.heading,
			Focus:          bp.focus,
			Theme:          theme,
			ImageDirective: fmt.Sprintf("%s of the %s, styled with %s", upperFirst(bp.shot), subject, theme),
		})
	}
	return out
}

func placeholderRenderer(product listing.Product, occasion string) func(string) string {
	r := strings.NewReplacer(
		"{brand}", strings.TrimSpace(product.Brand),
		"{product}", strings.TrimSpace(product.Name),
		"{occasion}", occasion,
	)
	return func(s string) string {
		return strings.Join(strings.Fields(r.Replace(s)), " ")
	}
}

func splitHints(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dedupeFold(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := textmatch.Fold(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
