package compose

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"occasion-listing/internal/catalog"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/textmatch"
)

func fixtures(t *testing.T, occasion, tone, locale string) (listing.Product, catalog.OccasionProfile, catalog.ToneProfile, catalog.LocaleProfile) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	product := listing.Product{
		Name:     "Kitchen Knife Sharpener",
		Brand:    "EdgeCraft",
		Category: "Knife Sharpeners",
		Features: []string{"3-stage sharpening", "diamond abrasives", "non-slip base"},
		Locale:   locale,
		Occasion: occasion,
	}
	tp, _ := cat.Tones.Lookup(tone)
	loc, err := cat.Locales.Lookup(locale)
	require.NoError(t, err)
	return product, cat.Occasions.Lookup(occasion), tp, loc
}

func TestComposeChristmasGermany(t *testing.T) {
	product, occ, tone, loc := fixtures(t, "christmas", "professional", "de")
	b := New(Limits{}, "1.3.0").Compose(product, occ, tone, loc)

	tier1 := b.TierTerms(1)
	assert.Equal(t, "Weihnachten", tier1[0])
	assert.Contains(t, tier1, "Weihnachten Geschenk")
	assert.Contains(t, tier1, "Weihnachtsgeschenk")
	assert.NotContains(t, tier1, "christmas")
	assert.NotContains(t, tier1, "gift under the tree")
	assert.NotContains(t, tier1, "festive")
	assert.Contains(t, b.CulturalTerms, "Geschenk")
	assert.Equal(t, "Geschenk", b.GiftTerm)
	assert.Equal(t, "€", b.Currency)
	assert.Equal(t, "Weihnachten", b.OccasionName)

	assert.Equal(t, "EdgeCraft Kitchen Knife Sharpener - Weihnachten Geschenk für Familie und Freunde", b.Title.Rendered)
	assert.False(t, b.Title.Directive)
	assert.Equal(t, []string{"EdgeCraft", "Kitchen Knife Sharpener", "Weihnachten"}, b.Title.MustInclude)

	assert.Equal(t, []string{"zuverlässig"}, b.Constraints.RequiredPhrases)
	assert.Equal(t, []string{"Sie", "Ihre"}, b.Constraints.FormalityMarkers)
	assert.Contains(t, b.Constraints.LocaleAvoidWords, "the")
	assert.Contains(t, b.Constraints.AvoidWords, "awesome")
	assert.NotContains(t, b.Constraints.AvoidWords, "the")
	assert.Equal(t, 2, b.Description.MinOccasionMentions)
	assert.Equal(t, "1.3.0", b.CatalogVersion)
}

func TestKeywordTiers(t *testing.T) {
	product, occ, tone, loc := fixtures(t, "christmas", "casual", "en")
	b := New(Limits{}, "").Compose(product, occ, tone, loc)

	require.Len(t, b.Tiers, 3)
	sums := map[int]float64{}
	seen := map[string]bool{}
	for _, kw := range b.Keywords {
		sums[kw.Tier] += kw.Weight
		key := strings.ToLower(kw.Term)
		assert.False(t, seen[key], "duplicate term %q", kw.Term)
		seen[key] = true
	}
	assert.InDelta(t, Tier1Weight, sums[1], 0.001)
	assert.InDelta(t, Tier2Weight, sums[2], 0.001)
	assert.InDelta(t, Tier3Weight, sums[3], 0.001)

	assert.Equal(t, product.Features, b.TierTerms(2))
	for _, kw := range b.Keywords {
		if kw.Tier == 2 {
			assert.Contains(t, kw.Framing, "Christmas")
		}
	}
	assert.Equal(t, []string{"Knife Sharpeners", "Kitchen Knife Sharpener", "Knife Sharpener", "EdgeCraft"}, b.TierTerms(3))
	assert.Equal(t, 1, b.Keywords[0].Tier)
	assert.Equal(t, "christmas", b.Keywords[0].Term)
}

func TestTierTermsSkipLocaleAvoidWords(t *testing.T) {
	for _, locale := range []string{"de", "fr", "mx", "pl", "ja", "ar"} {
		product, occ, tone, loc := fixtures(t, "christmas", "professional", locale)
		product.Features = append(product.Features, "ideal for the holidays")
		b := New(Limits{}, "").Compose(product, occ, tone, loc)

		require.NotEmpty(t, b.TierTerms(1), locale)
		for _, kw := range b.Keywords {
			if kw.Tier == 3 {
				continue
			}
			for _, avoid := range b.Constraints.LocaleAvoidWords {
				assert.False(t, textmatch.ContainsWord(kw.Term, avoid), "%s: tier %d term %q carries %q", locale, kw.Tier, kw.Term, avoid)
			}
		}
	}
}

func TestTier1FallsBackToEnglishWithoutLocalizedKeywords(t *testing.T) {
	product, occ, tone, loc := fixtures(t, "christmas", "professional", "pl")
	b := New(Limits{}, "").Compose(product, occ, tone, loc)

	tier1 := b.TierTerms(1)
	assert.Equal(t, "Christmas", tier1[0])
	assert.Contains(t, tier1, "christmas gift")
	assert.Contains(t, tier1, "Christmas prezent")
	assert.NotContains(t, tier1, "gift under the tree")
	assert.Contains(t, tier1, "festive")
}

func TestLocalizedKeywordsFollowLanguage(t *testing.T) {
	product, occ, tone, loc := fixtures(t, "christmas", "professional", "mx")
	b := New(Limits{}, "").Compose(product, occ, tone, loc)
	assert.Contains(t, b.TierTerms(1), "regalo de Navidad")
	assert.Equal(t, "Navidad", b.OccasionName)
	assert.NotEmpty(t, b.Cues.Trust)
	assert.Contains(t, b.Cues.Trust, "garantía")
}

func TestKeywordKeepsHighestTier(t *testing.T) {
	product, occ, tone, loc := fixtures(t, "christmas", "casual", "en")
	product.Features = []string{"Christmas Gift", "steel body"}
	product.Category = "steel body"
	b := New(Limits{}, "").Compose(product, occ, tone, loc)

	assert.NotContains(t, b.TierTerms(2), "Christmas Gift")
	assert.Contains(t, b.TierTerms(2), "steel body")
	assert.NotContains(t, b.TierTerms(3), "steel body")
}

func TestComposeGeneralPurpose(t *testing.T) {
	product, occ, tone, loc := fixtures(t, "", "minimal", "en")
	b := New(Limits{}, "").Compose(product, occ, tone, loc)

	assert.True(t, b.GeneralPurpose)
	assert.Empty(t, b.OccasionTerms())
	for _, kw := range b.Keywords {
		assert.NotEqual(t, KindOccasion, kw.Kind)
	}
	assert.Equal(t, 0, b.Description.MinOccasionMentions)
	assert.Equal(t, "Everyday essential. Nothing more.", b.ToneAdaptation)
	assert.Equal(t, []string{"EdgeCraft", "Kitchen Knife Sharpener"}, b.Title.MustInclude)
	assert.Equal(t, "EdgeCraft Kitchen Knife Sharpener - Versatile Everyday Essential for Home and Gifting", b.Title.Rendered)
}

func TestComposeCustomOccasion(t *testing.T) {
	product, occ, tone, loc := fixtures(t, "Diwali", "luxury", "en")
	b := New(Limits{}, "").Compose(product, occ, tone, loc)

	assert.True(t, b.CustomOccasion)
	assert.True(t, b.Title.Directive)
	assert.Equal(t, "emphasize Diwali relevance", b.Title.Pattern)
	assert.Equal(t, "EdgeCraft Kitchen Knife Sharpener - Diwali Gift", b.Title.Rendered)
	assert.Equal(t, "expertly crafted for Diwali", b.ToneAdaptation)
	assert.Contains(t, b.TierTerms(1), "Diwali")
	assert.Contains(t, b.TierTerms(1), "perfect for Diwali")
}

func TestToneAdaptationFallsBackForUnknownTone(t *testing.T) {
	product, occ, _, loc := fixtures(t, "birthday", "casual", "en")
	b := New(Limits{}, "").Compose(product, occ, catalog.ToneProfile{ID: "sarcastic"}, loc)
	assert.Equal(t, "expertly crafted for Birthday", b.ToneAdaptation)
	assert.Empty(t, b.Constraints.RequiredPhrases)
}

func TestSectionsCarryThemes(t *testing.T) {
	product, occ, tone, loc := fixtures(t, "mothers_day", "luxury", "fr")
	b := New(Limits{}, "").Compose(product, occ, tone, loc)

	require.Len(t, b.Sections, 8)
	for i, sec := range b.Sections {
		assert.Equal(t, listing.SectionKeys()[i], sec.Key)
		assert.NotEmpty(t, sec.Theme)
		assert.Contains(t, sec.ImageDirective, sec.Theme)
	}
	hero, ok := b.Section(listing.SectionHero)
	require.True(t, ok)
	assert.Contains(t, hero.Theme, "spring flowers")
	assert.Contains(t, hero.Theme, "table de fête élégante")
}

func TestComposeIsDeterministic(t *testing.T) {
	product, occ, tone, loc := fixtures(t, "valentines_day", "playful", "es")
	c := New(Limits{}, "1.0.0")
	first, err := json.Marshal(c.Compose(product, occ, tone, loc))
	require.NoError(t, err)
	second, err := json.Marshal(c.Compose(product, occ, tone, loc))
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}

func TestLimitsWithDefaults(t *testing.T) {
	l := Limits{BulletCount: 3}.WithDefaults()
	assert.Equal(t, 3, l.BulletCount)
	assert.Equal(t, 150, l.TitleMinRunes)
	assert.Equal(t, 249, l.BackendMaxBytes)
}

func TestRenderPrompt(t *testing.T) {
	product, occ, tone, loc := fixtures(t, "christmas", "professional", "de")
	b := New(Limits{}, "").Compose(product, occ, tone, loc)
	system, user := RenderPrompt(b)

	assert.Contains(t, system, `language "de"`)
	assert.Contains(t, system, "Exactly 5 bullets, each 120-280 characters")
	assert.Contains(t, system, "zuverlässig")
	assert.Contains(t, system, "Sie, Ihre")
	assert.Contains(t, system, `"enhanced_content"`)
	assert.Contains(t, user, "tier 1 (70%)")
	assert.Contains(t, user, "tier 3 (10%)")
	assert.Contains(t, user, "hero: Why It Makes the Perfect Gift")
	assert.Contains(t, user, "- 3-stage sharpening")
}

func TestOutputSchemaCompiles(t *testing.T) {
	schema, err := CompileOutputSchema()
	require.NoError(t, err)

	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &doc))
	assert.Error(t, schema.Validate(doc))
}
