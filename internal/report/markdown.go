// Package report renders an assembled listing and its scores for people:
// a Markdown document for the output directory and tables for the terminal.
package report

import (
	"fmt"
	"strings"

	"occasion-listing/internal/compose"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/localization"
	"occasion-listing/internal/score"
)

// Document is everything one pipeline run produced for a product.
type Document struct {
	Brief        compose.Brief       `json:"brief"`
	Listing      listing.Listing     `json:"listing"`
	Localization localization.Report `json:"localization"`
	Score        score.Report        `json:"score"`
}

func RenderMarkdown(doc Document) string {
	b, l, r := doc.Brief, doc.Listing, doc.Score
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s %s Listing\n\n", strings.TrimSpace(b.Brand), strings.TrimSpace(b.ProductName))
	fmt.Fprintf(&sb, "- Occasion: %s\n", occasionLabel(b))
	fmt.Fprintf(&sb, "- Tone: %s\n", b.ToneID)
	fmt.Fprintf(&sb, "- Locale: %s (%s)\n", b.LocaleID, b.LocaleName)
	fmt.Fprintf(&sb, "- Score: %.2f/%.0f %s\n\n", r.Overall, r.Max, verdict(r))

	sb.WriteString("## Title\n")
	sb.WriteString(l.Title)
	sb.WriteString("\n\n## Bullet Points\n")
	for i, bp := range l.Bullets {
		fmt.Fprintf(&sb, "**Point %d**", i+1)
		if bp.Fallback {
			sb.WriteString(" _(backfilled)_")
		}
		sb.WriteString("\n")
		sb.WriteString(bp.Text)
		sb.WriteString("\n\n")
	}
	sb.WriteString("## Product Description\n")
	sb.WriteString(l.Description)
	sb.WriteString("\n\n## Keywords\n")
	sb.WriteString(strings.Join(l.Keywords.Frontend, ", "))
	sb.WriteString("\n\n## Search Terms\n")
	sb.WriteString(strings.Join(l.Keywords.Backend, " "))
	sb.WriteString("\n\n## Enhanced Content\n")
	for _, s := range l.EnhancedContent {
		fmt.Fprintf(&sb, "### %s", s.Title)
		if s.Fallback {
			sb.WriteString(" _(backfilled)_")
		}
		sb.WriteString("\n")
		sb.WriteString(s.Body)
		sb.WriteString("\n")
		if s.ImageDirective != "" {
			fmt.Fprintf(&sb, "\n> Image: %s\n", s.ImageDirective)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Scores\n")
	sb.WriteString("| Category | Score | Weight | Rules passed |\n|---|---|---|---|\n")
	for _, c := range r.Categories {
		fmt.Fprintf(&sb, "| %s | %.2f | %.2f | %d/%d |\n", c.Category, c.Score, c.Weight, c.Passed, c.Total)
	}
	fmt.Fprintf(&sb, "| overall | %.2f | | |\n", r.Overall)
	writeList(&sb, "Issues", r.Issues)
	writeList(&sb, "Strengths", r.Strengths)
	writeList(&sb, "Diagnostics", l.Diagnostics)
	return sb.String()
}

func writeList(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n## %s\n", heading)
	for _, it := range items {
		fmt.Fprintf(sb, "- %s\n", it)
	}
}

func occasionLabel(b compose.Brief) string {
	switch {
	case b.GeneralPurpose:
		return "general purpose"
	case b.CustomOccasion:
		return b.OccasionName + " (custom)"
	default:
		return b.OccasionName
	}
}

func verdict(r score.Report) string {
	if r.Pass {
		return r.Grade + ", pass"
	}
	return r.Grade + ", fail"
}
