package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDefault(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Default()
	require.NoError(t, err)
	return cat
}

func TestDefaultCatalogLoads(t *testing.T) {
	cat := mustDefault(t)
	assert.Equal(t, "1.4.0", cat.Version.String())
	assert.Equal(t, "1.1.0", cat.FileVersions[TonesFile])
	assert.GreaterOrEqual(t, cat.Occasions.Len(), 12)
	assert.Len(t, cat.Tones.All(), 6)
	assert.Contains(t, cat.Locales.IDs(), "de")
}

func TestLookupNormalizesOccasionIDs(t *testing.T) {
	cat := mustDefault(t)
	for _, in := range []string{"valentines_day", "Valentine's Day", "valentines-day", " VALENTINES DAY "} {
		p := cat.Occasions.Lookup(in)
		assert.Equal(t, "valentines_day", p.ID, in)
		assert.False(t, p.Custom, in)
	}
	for _, in := range []string{"Weihnachten", "navidad", "Noël", "xmas"} {
		assert.Equal(t, "christmas", cat.Occasions.Lookup(in).ID, in)
	}
}

func TestLookupEmptyReturnsGeneralPurpose(t *testing.T) {
	cat := mustDefault(t)
	for _, in := range []string{"", "   ", "general", "General"} {
		p := cat.Occasions.Lookup(in)
		assert.Equal(t, GeneralPurposeID, p.ID)
		assert.Empty(t, p.PrimaryKeywords)
		assert.Contains(t, p.EmotionalFramework, "Year-round versatility")
	}
}

func TestLookupUnknownSynthesizesCustomProfile(t *testing.T) {
	cat := mustDefault(t)
	p := cat.Occasions.Lookup("Diwali")
	assert.True(t, p.Custom)
	assert.Equal(t, []string{"Diwali", "Diwali gift", "perfect for Diwali"}, p.PrimaryKeywords)
	assert.Equal(t, "emphasize Diwali relevance", p.TitlePattern)
	assert.Contains(t, p.EmotionalFramework, "Diwali")
}

func TestLookupReturnsCopies(t *testing.T) {
	cat := mustDefault(t)
	p := cat.Occasions.Lookup("christmas")
	p.PrimaryKeywords[0] = "mutated"
	p.ToneAdaptations["luxury"] = "mutated"
	again := cat.Occasions.Lookup("christmas")
	assert.Equal(t, "christmas gift", again.PrimaryKeywords[0])
	assert.NotEqual(t, "mutated", again.ToneAdaptations["luxury"])
}

func TestKeywordsForPrefersLocaleThenLanguage(t *testing.T) {
	cat := mustDefault(t)
	p := cat.Occasions.Lookup("christmas")
	assert.Contains(t, p.KeywordsFor("de", "de"), "Weihnachtsgeschenk")
	assert.Contains(t, p.KeywordsFor("mx", "es"), "regalo de Navidad")
	assert.Empty(t, p.KeywordsFor("pl", "pl"))

	p.LocalizedKeywords["mx"] = []string{"regalo navideño mexicano"}
	assert.Equal(t, []string{"regalo navideño mexicano"}, p.KeywordsFor("mx", "es"))

	kws := p.KeywordsFor("de", "de")
	kws[0] = "mutated"
	assert.NotContains(t, cat.Occasions.Lookup("christmas").KeywordsFor("de", "de"), "mutated")
	_, leaked := cat.Occasions.Lookup("christmas").LocalizedKeywords["mx"]
	assert.False(t, leaked)
}

func TestLocalesCarryConversionCues(t *testing.T) {
	cat := mustDefault(t)
	for _, id := range cat.Locales.IDs() {
		loc, err := cat.Locales.Lookup(id)
		require.NoError(t, err)
		assert.NotEmpty(t, loc.UrgencyCues, id)
		assert.NotEmpty(t, loc.TrustCues, id)
		assert.NotEmpty(t, loc.SocialProofCues, id)
	}
	de, err := cat.Locales.Lookup("de")
	require.NoError(t, err)
	assert.Contains(t, de.TrustCues, "Garantie")
}

func TestOccasionLookupProperties(t *testing.T) {
	cat := mustDefault(t)
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("blank occasion yields the general-purpose profile", prop.ForAll(
		func(n int) bool {
			p := cat.Occasions.Lookup(strings.Repeat(" ", n))
			return p.ID == GeneralPurposeID && len(p.PrimaryKeywords) == 0
		},
		gen.IntRange(0, 8),
	))

	properties.Property("unknown occasions keep their id as a primary keyword", prop.ForAll(
		func(id string) bool {
			if cat.Occasions.Has(id) {
				return true
			}
			p := cat.Occasions.Lookup(id)
			return p.Custom && len(p.PrimaryKeywords) > 0 && p.PrimaryKeywords[0] == id
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

func TestToneLookup(t *testing.T) {
	cat := mustDefault(t)
	tone, ok := cat.Tones.Lookup("Luxury")
	require.True(t, ok)
	assert.Equal(t, []string{"exquisit"}, tone.PhrasesFor("de"))
	assert.Equal(t, []string{"exquisite"}, tone.PhrasesFor("ja"))
	assert.Contains(t, tone.AvoidedWords, "cheap")

	_, ok = cat.Tones.Lookup("sarcastic")
	assert.False(t, ok)
}

func TestLocaleLookup(t *testing.T) {
	cat := mustDefault(t)
	cases := map[string]string{
		"de":    "de",
		"de-DE": "de",
		"de_AT": "de",
		"jp":    "ja",
		"ja-JP": "ja",
		"ae":    "ar",
		"es-MX": "mx",
		"fr-CA": "fr",
	}
	for in, want := range cases {
		loc, err := cat.Locales.Lookup(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, loc.ID, in)
	}

	de, _ := cat.Locales.Lookup("de")
	assert.Equal(t, "Geschenk", de.GiftTerm)
	assert.Contains(t, de.CulturalTerms, "Geschenk")
	assert.Len(t, de.SpecialSet(), 7)
	assert.Len(t, de.ScriptTables(), 1)
}

func TestLocaleLookupUnknown(t *testing.T) {
	cat := mustDefault(t)
	_, err := cat.Locales.Lookup("xx-klingon")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownLocale))
	var unknown *UnknownLocaleError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "xx-klingon", unknown.ID)
	assert.Contains(t, unknown.Known, "en")
}

func TestNewOccasionsRejectsConflicts(t *testing.T) {
	base := OccasionProfile{ID: "a", Name: "A", PrimaryKeywords: []string{"a"}}
	_, err := NewOccasions([]OccasionProfile{base, base})
	assert.ErrorContains(t, err, "duplicate")

	other := OccasionProfile{ID: "b", Name: "B", Aliases: []string{"a"}, PrimaryKeywords: []string{"b"}}
	_, err = NewOccasions([]OccasionProfile{base, other})
	assert.ErrorContains(t, err, "already used")

	_, err = NewOccasions([]OccasionProfile{{ID: "General", Name: "x"}})
	assert.ErrorContains(t, err, "reserved")
}

func TestNewLocalesRejectsUnknownScript(t *testing.T) {
	_, err := NewLocales([]LocaleProfile{{ID: "xx", ExpectedScripts: []string{"Elvish"}}})
	assert.ErrorContains(t, err, "Elvish")
}

func TestLoadDirOverridesAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	custom := `version: 2.0.0
tones:
  - id: whimsical
    required_phrases:
      default: [delightful]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, TonesFile), []byte(custom), 0o644))

	cat, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", cat.Version.String())
	_, ok := cat.Tones.Lookup("whimsical")
	assert.True(t, ok)
	_, ok = cat.Tones.Lookup("luxury")
	assert.False(t, ok)
	assert.True(t, cat.Occasions.Has("christmas"))
}

func TestLoadDirRejectsInvalidEntries(t *testing.T) {
	dir := t.TempDir()
	bad := `version: 1.0.0
locales:
  - id: xx
    name: Missing fields
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, LocalesFile), []byte(bad), 0o644))
	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate locales.yaml")
}

func TestLoadDirRejectsBadVersion(t *testing.T) {
	dir := t.TempDir()
	bad := "version: latest\ntones:\n  - id: x\n    required_phrases:\n      default: [y]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, TonesFile), []byte(bad), 0o644))
	_, err := LoadDir(dir)
	assert.ErrorContains(t, err, "version")
}

func TestWriteDefaultsKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, OccasionsFile)
	require.NoError(t, os.WriteFile(keep, []byte("custom"), 0o644))

	require.NoError(t, WriteDefaults(dir))
	raw, err := os.ReadFile(keep)
	require.NoError(t, err)
	assert.Equal(t, "custom", string(raw))
	for _, name := range []string{TonesFile, LocalesFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
