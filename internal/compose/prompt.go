package compose

import (
	"fmt"
	"slices"
	"strings"
)

// RenderPrompt turns a brief into the system and user messages for the completion call.
func RenderPrompt(b Brief) (system, user string) {
	return buildSystemPrompt(b), buildUserPrompt(b)
}

func buildSystemPrompt(b Brief) string {
	var s strings.Builder
	s.WriteString("You write marketplace product listings that sell through a purchasing occasion.\n\n")
	s.WriteString("[Hard constraints]\n")
	n := 0
	rule := func(format string, args ...any) {
		n++
		fmt.Fprintf(&s, "%d) ", n)
		fmt.Fprintf(&s, format, args...)
		s.WriteString("\n")
	}
	rule("Write every field in language %q for the %s market; currency symbol %s", b.Language, b.LocaleName, b.Currency)
	rule("Output exactly one JSON object matching the schema below; no Markdown, no code fences, no commentary")
	if b.Title.Directive {
		rule("Title: %d-%d characters; %s, for example: %s", b.Title.MinRunes, b.Title.MaxRunes, b.Title.Pattern, b.Title.Rendered)
	} else {
		rule("Title: %d-%d characters; start from this pattern: %s", b.Title.MinRunes, b.Title.MaxRunes, b.Title.Rendered)
	}
	rule("Exactly %d bullets, each %d-%d characters; bullet 1 leads with an occasion benefit, not a product feature", b.Bullets.Count, b.Bullets.MinRunes, b.Bullets.MaxRunes)
	if b.Description.MinOccasionMentions > 0 {
		rule("Description: %d-%d characters; the opening establishes the %s context before any specification; mention %s at least %d times",
			b.Description.MinRunes, b.Description.MaxRunes, b.OccasionName, b.OccasionName, b.Description.MinOccasionMentions)
	} else {
		rule("Description: %d-%d characters; open with year-round use before any specification", b.Description.MinRunes, b.Description.MaxRunes)
	}
	if len(b.Constraints.RequiredPhrases) > 0 {
		rule("Title, every bullet, the description and every enhanced-content body contain at least one of: %s", strings.Join(b.Constraints.RequiredPhrases, ", "))
	}
	if len(b.Constraints.FormalityMarkers) > 0 {
		rule("Address the customer formally using: %s", strings.Join(b.Constraints.FormalityMarkers, ", "))
	}
	if avoid := dedupeFold(append(slices.Clone(b.Constraints.AvoidWords), b.Constraints.LocaleAvoidWords...)); len(avoid) > 0 {
		rule("Never use these words: %s", strings.Join(avoid, ", "))
	}
	rule("At least %d keywords in total; backend keywords together stay within %d bytes", b.KeywordMin, b.BackendMaxBytes)
	rule("Enhanced content has all 8 sections; each body is at least %d characters and each image_directive follows the section theme", b.SectionBodyMin)
	s.WriteString("\n[Output schema]\n")
	s.WriteString(OutputSchema)
	s.WriteString("\n")
	return s.String()
}

func buildUserPrompt(b Brief) string {
	var s strings.Builder
	s.WriteString("[Product]\n")
	fmt.Fprintf(&s, "name: %s\nbrand: %s\n", b.ProductName, b.Brand)
	if b.Category != "" {
		fmt.Fprintf(&s, "category: %s\n", b.Category)
	}
	if b.Price != "" {
		fmt.Fprintf(&s, "price: %s %s\n", b.Price, b.Currency)
	}
	if len(b.Features) > 0 {
		s.WriteString("features:\n")
		for _, f := range b.Features {
			fmt.Fprintf(&s, "- %s\n", f)
		}
	}

	s.WriteString("\n[Occasion]\n")
	fmt.Fprintf(&s, "occasion: %s\n", b.OccasionName)
	fmt.Fprintf(&s, "emotional framework: %s\n", b.EmotionalFramework)
	if b.GiftContext != "" {
		fmt.Fprintf(&s, "gift context: %s\n", b.GiftContext)
	}
	fmt.Fprintf(&s, "tone (%s): %s\n", b.ToneID, b.ToneAdaptation)
	if len(b.EmotionalTriggers) > 0 {
		s.WriteString("emotional triggers:\n")
		for _, t := range b.EmotionalTriggers {
			fmt.Fprintf(&s, "- %s\n", t)
		}
	}
	fmt.Fprintf(&s, "first bullet lead: %s\n", b.Bullets.LeadBenefit)
	if len(b.Bullets.Starters) > 0 {
		fmt.Fprintf(&s, "bullet labels (translate when needed): %s\n", strings.Join(b.Bullets.Starters, " | "))
	}
	fmt.Fprintf(&s, "description opening: %s\n", b.Description.Opening)
	if len(b.CulturalTerms) > 0 {
		fmt.Fprintf(&s, "cultural vocabulary: %s\n", strings.Join(b.CulturalTerms, ", "))
	}
	if len(b.Constraints.PowerWords) > 0 {
		fmt.Fprintf(&s, "power words (or their %s equivalents): %s\n", b.Language, strings.Join(b.Constraints.PowerWords, ", "))
	}
	if len(b.Cues.Trust) > 0 {
		fmt.Fprintf(&s, "trust signals: %s\n", strings.Join(b.Cues.Trust, ", "))
	}

	s.WriteString("\n[Keyword hierarchy]\n")
	for _, tier := range b.Tiers {
		fmt.Fprintf(&s, "tier %d (%.0f%%):\n", tier.Tier, tier.Weight*100)
		for _, kw := range b.Keywords {
			if kw.Tier != tier.Tier {
				continue
			}
			if kw.Framing != "" {
				fmt.Fprintf(&s, "- %s (%.4f) -> %s\n", kw.Term, kw.Weight, kw.Framing)
			} else {
				fmt.Fprintf(&s, "- %s (%.4f)\n", kw.Term, kw.Weight)
			}
		}
	}

	s.WriteString("\n[Enhanced content]\n")
	for _, sec := range b.Sections {
		fmt.Fprintf(&s, "%s: %s | focus: %s | theme: %s | image: %s\n", sec.Key, sec.Heading, sec.Focus, sec.Theme, sec.ImageDirective)
	}
	return s.String()
}
