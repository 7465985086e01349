package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"occasion-listing/internal/catalog"
	"occasion-listing/internal/compose"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/score"
)

func sampleDocument() Document {
	return Document{
		Brief: compose.Brief{
			ProductName:  "Knife Sharpener",
			Brand:        "EdgeCraft",
			OccasionName: "Christmas",
			ToneID:       "professional",
			LocaleID:     "en",
			LocaleName:   "English",
		},
		Listing: listing.Listing{
			Title:       "EdgeCraft Knife Sharpener Christmas Gift",
			Bullets:     []listing.Bullet{{Text: "Sharp in seconds"}, {Text: "Filler", Fallback: true}},
			Description: "A sharpener for the holidays.",
			Keywords:    listing.Keywords{Frontend: []string{"christmas gift", "knife sharpener"}, Backend: []string{"xmas", "whetstone"}},
			EnhancedContent: []listing.Section{
				{Key: listing.SectionHero, Title: "Hero", Body: "Hero body", ImageDirective: "Show the tree"},
				{Key: listing.SectionFAQ, Title: "FAQ", Body: "Questions", Fallback: true},
			},
			Diagnostics: []string{"/title: too short"},
		},
		Score: score.Report{
			Categories: []score.CategoryScore{
				{Category: score.CategoryTitle, Score: 9.5, Max: 10, Weight: 0.15, Passed: 5, Total: 5},
				{Category: score.CategoryEnhanced, Score: 4, Max: 10, Weight: 0.2, Passed: 2, Total: 7},
			},
			Overall:   6.2,
			Max:       10,
			Threshold: 8,
			Grade:     score.GradeNeedsWork,
			Issues:    []string{"partial section missing: bullet 2 was backfilled"},
			Strengths: []string{"title length 180 chars"},
		},
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(sampleDocument())
	for _, want := range []string{
		"# EdgeCraft Knife Sharpener Listing",
		"- Occasion: Christmas",
		"- Score: 6.20/10 needs_work, fail",
		"**Point 2** _(backfilled)_",
		"christmas gift, knife sharpener",
		"## Search Terms\nxmas whetstone",
		"### FAQ _(backfilled)_",
		"> Image: Show the tree",
		"| enhanced_content | 4.00 | 0.20 | 2/7 |",
		"## Issues\n- partial section missing: bullet 2 was backfilled",
		"## Diagnostics\n- /title: too short",
	} {
		assert.Contains(t, md, want)
	}
}

func TestRenderMarkdownOccasionLabels(t *testing.T) {
	doc := sampleDocument()
	doc.Brief.GeneralPurpose = true
	assert.Contains(t, RenderMarkdown(doc), "- Occasion: general purpose")
	doc.Brief.GeneralPurpose = false
	doc.Brief.CustomOccasion = true
	doc.Brief.OccasionName = "Graduation"
	assert.Contains(t, RenderMarkdown(doc), "- Occasion: Graduation (custom)")
}

func TestPrinterScore(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, false)
	require.NoError(t, p.Score("listing_a.json", sampleDocument().Score))
	text := out.String()
	assert.Contains(t, text, "listing_a.json")
	assert.Contains(t, text, "enhanced_content")
	assert.Contains(t, text, "overall")
	assert.Contains(t, text, "2/7")
	assert.Contains(t, text, "✗ 6.20/10 needs_work (fail, 1 issue(s))")
	assert.Contains(t, text, "  - partial section missing")
	assert.NotContains(t, text, "\x1b[")
}

func TestPrinterCatalogTables(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	var out bytes.Buffer
	p := NewPrinter(&out, false)
	require.NoError(t, p.Occasions(cat.Occasions.All()))
	require.NoError(t, p.Tones(cat.Tones.All()))
	require.NoError(t, p.Locales(cat.Locales.All()))
	text := out.String()
	for _, want := range []string{"christmas", "professional", "de"} {
		assert.True(t, strings.Contains(text, want), "missing %s", want)
	}
}
