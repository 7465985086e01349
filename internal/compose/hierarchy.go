package compose

import (
	"fmt"
	"math"
	"strings"

	"occasion-listing/internal/catalog"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/textmatch"
)

type keywordBuilder struct {
	seen  map[string]bool
	avoid []string
	tiers [3][]WeightedKeyword
}

func newKeywordBuilder(avoid []string) *keywordBuilder {
	return &keywordBuilder{seen: map[string]bool{}, avoid: avoid}
}

// add ignores blanks and terms already placed in an equal or higher tier.
// Tiers are filled in order, so a term keeps its highest tier. Occasion and
// feature terms carrying a word the locale avoids are dropped; tier 3 is the
// product's own identity and is kept as given.
func (k *keywordBuilder) add(tier int, term, kind, framing string) {
	term = strings.Join(strings.Fields(term), " ")
	if term == "" {
		return
	}
	if tier < 3 {
		if _, hit := textmatch.FirstWord(term, k.avoid); hit {
			return
		}
	}
	key := textmatch.Fold(term)
	if k.seen[key] {
		return
	}
	k.seen[key] = true
	k.tiers[tier-1] = append(k.tiers[tier-1], WeightedKeyword{Term: term, Tier: tier, Kind: kind, Framing: framing})
}

func (k *keywordBuilder) build() ([]WeightedKeyword, []TierSummary) {
	weights := [3]float64{Tier1Weight, Tier2Weight, Tier3Weight}
	var out []WeightedKeyword
	var summary []TierSummary
	for i, terms := range k.tiers {
		if len(terms) == 0 {
			continue
		}
		each := math.Round(weights[i]/float64(len(terms))*10000) / 10000
		for _, kw := range terms {
			kw.Weight = each
			out = append(out, kw)
		}
		summary = append(summary, TierSummary{Tier: i + 1, Weight: weights[i], Terms: len(terms)})
	}
	return out, summary
}

func buildHierarchy(product listing.Product, occasion catalog.OccasionProfile, locale catalog.LocaleProfile, occasionName string) ([]WeightedKeyword, []TierSummary) {
	k := newKeywordBuilder(locale.AvoidTermsFromOtherLocales)

	localized := locale.Language != "en"
	var native []string
	if localized {
		native = occasion.KeywordsFor(locale.ID, locale.Language)
	}
	if !occasion.IsGeneral() {
		if localized {
			k.add(1, occasionName, KindOccasion, "")
			k.add(1, occasionName+" "+locale.GiftTerm, KindOccasion, "")
		}
		for _, kw := range native {
			k.add(1, kw, KindOccasion, "")
		}
		if len(native) == 0 {
			id := occasion.ID
			if !occasion.Custom {
				id = strings.ReplaceAll(id, "_", " ")
			}
			k.add(1, id, KindOccasion, "")
			for _, kw := range occasion.PrimaryKeywords {
				k.add(1, kw, KindOccasion, "")
			}
		}
	}
	// English benefit words only rank for English locales or where no
	// localized terms exist.
	if len(native) == 0 {
		for _, benefit := range occasion.EmotionalBenefits {
			k.add(1, benefit, KindBenefit, "")
		}
	}

	label := occasionName
	if occasion.IsGeneral() {
		label = "everyday use"
	}
	for i, feature := range product.Features {
		benefit := "thoughtful"
		if len(occasion.EmotionalBenefits) > 0 {
			benefit = occasion.EmotionalBenefits[i%len(occasion.EmotionalBenefits)]
		}
		k.add(2, feature, KindFeature, fmt.Sprintf("%s, framed as a %s reason to choose it for %s", feature, benefit, label))
	}

	k.add(3, product.Category, KindCategory, "")
	k.add(3, product.Name, KindCategory, "")
	if words := strings.Fields(product.Name); len(words) > 1 {
		k.add(3, strings.Join(words[1:], " "), KindCategory, "")
	}
	k.add(3, product.Brand, KindCategory, "")
	return k.build()
}
