package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"occasion-listing/internal/catalog"
	"occasion-listing/internal/score"
)

// Printer writes tables and verdict lines to a terminal.
type Printer struct {
	out       io.Writer
	useColors bool
}

func NewPrinter(out io.Writer, useColors bool) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{out: out, useColors: useColors}
}

// ColorsEnabled honours NO_COLOR and dumb terminals.
func ColorsEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb" && !color.NoColor
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
}

func (p *Printer) render(header []string, rows [][]string) error {
	t := newTable(p.out)
	t.Header(header)
	if err := t.Bulk(rows); err != nil {
		return err
	}
	return t.Render()
}

// Score prints the category table, the verdict and the issue list.
func (p *Printer) Score(name string, r score.Report) error {
	if name != "" {
		p.heading(name)
	}
	rows := make([][]string, 0, len(r.Categories)+1)
	for _, c := range r.Categories {
		rows = append(rows, []string{
			string(c.Category),
			p.colorScore(c.Score, c.Max),
			fmt.Sprintf("%.2f", c.Weight),
			fmt.Sprintf("%d/%d", c.Passed, c.Total),
		})
	}
	rows = append(rows, []string{"overall", p.colorScore(r.Overall, r.Max), "", ""})
	if err := p.render([]string{"category", "score", "weight", "rules"}, rows); err != nil {
		return err
	}
	p.verdict(r)
	for _, issue := range r.Issues {
		p.line(color.FgYellow, "  - %s", issue)
	}
	return nil
}

func (p *Printer) Occasions(list []catalog.OccasionProfile) error {
	rows := make([][]string, 0, len(list))
	for _, o := range list {
		rows = append(rows, []string{o.ID, o.Name, strings.Join(o.Aliases, ", "), strings.Join(o.PrimaryKeywords, ", ")})
	}
	return p.render([]string{"id", "name", "aliases", "primary keywords"}, rows)
}

func (p *Printer) Tones(list []catalog.ToneProfile) error {
	rows := make([][]string, 0, len(list))
	for _, t := range list {
		rows = append(rows, []string{t.ID, t.Description, strings.Join(t.PowerWords, ", "), strings.Join(t.AvoidedWords, ", ")})
	}
	return p.render([]string{"id", "description", "power words", "avoided words"}, rows)
}

func (p *Printer) Locales(list []catalog.LocaleProfile) error {
	rows := make([][]string, 0, len(list))
	for _, l := range list {
		rows = append(rows, []string{l.ID, l.Name, l.Language, strings.Join(l.ExpectedScripts, ", "), l.CurrencySymbol})
	}
	return p.render([]string{"id", "name", "language", "scripts", "currency"}, rows)
}

func (p *Printer) heading(title string) {
	if p.useColors {
		color.New(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		return
	}
	fmt.Fprintf(p.out, "\n%s\n", title)
}

func (p *Printer) verdict(r score.Report) {
	if r.Pass {
		p.line(color.FgGreen, "✓ %s", r.Summary())
		return
	}
	p.line(color.FgRed, "✗ %s", r.Summary())
}

func (p *Printer) line(attr color.Attribute, format string, args ...any) {
	if p.useColors {
		color.New(attr).Fprintf(p.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) colorScore(v, top float64) string {
	s := fmt.Sprintf("%.2f", v)
	if !p.useColors {
		return s
	}
	switch score.Grade(v, top) {
	case score.GradeExcellent, score.GradeCompetitive:
		return color.GreenString(s)
	case score.GradeNeedsWork:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}
