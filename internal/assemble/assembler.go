// Package assemble maps an untrusted completion onto the canonical listing
// shape, backfilling whatever is missing from the brief.
package assemble

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"occasion-listing/internal/compose"
	"occasion-listing/internal/listing"
)

// Assembler is safe for concurrent use.
type Assembler struct {
	schema *jsonschema.Schema
	policy *bluemonday.Policy
}

func New() (*Assembler, error) {
	schema, err := compose.CompileOutputSchema()
	if err != nil {
		return nil, err
	}
	return &Assembler{schema: schema, policy: bluemonday.StrictPolicy()}, nil
}

// Assemble fails only when raw holds no usable text. Every other defect is
// repaired from the brief and recorded in Backfilled or Diagnostics.
func (a *Assembler) Assemble(raw string, brief compose.Brief) (listing.Listing, error) {
	if err := checkText(raw); err != nil {
		return listing.Listing{}, err
	}
	text := normalizeModelText(raw)

	var diags []string
	var fields rawFields
	if obj, ok := extractJSON(text); ok {
		diags = append(diags, a.schemaDiagnostics(obj)...)
		fields = fieldsFromJSON(obj)
		if fields.empty() {
			return listing.Listing{}, malformed("JSON object has no listing fields")
		}
	} else {
		var labelled bool
		fields, labelled = fieldsFromText(text)
		if labelled {
			diags = append(diags, "completion is not JSON; parsed labelled text")
		} else {
			diags = append(diags, "completion is not JSON; used the whole text as description")
		}
		if fields.empty() {
			return listing.Listing{}, malformed("no listing fields in text")
		}
	}

	b := &builder{brief: brief, clean: a.clean}
	out := listing.Listing{
		Title:           b.title(fields.title),
		Bullets:         b.bullets(fields.bullets),
		Description:     b.description(fields.description),
		Keywords:        b.keywords(fields.frontend, fields.backend),
		EnhancedContent: b.sections(fields.sections),
	}
	out.Backfilled = b.backfilled
	out.Diagnostics = sortedUnique(append(diags, b.diags...))
	return out, nil
}

func (a *Assembler) schemaDiagnostics(obj map[string]any) []string {
	err := a.schema.Validate(obj)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{"schema: " + err.Error()}
	}
	var out []string
	for _, e := range verr.BasicOutput().Errors {
		if strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out = append(out, fmt.Sprintf("schema %s: %s", loc, e.Error))
	}
	return out
}

// clean strips markup and normalizes whitespace. Line breaks survive only
// when multiline is set.
func (a *Assembler) clean(s string, multiline bool) (string, bool) {
	s = strings.TrimSpace(s)
	stripped := false
	if strings.ContainsAny(s, "<>") {
		sanitized := html.UnescapeString(a.policy.Sanitize(s))
		stripped = sanitized != s
		s = sanitized
	}
	if !multiline {
		return strings.Join(strings.Fields(s), " "), stripped
	}
	paras := splitByBlankLines(s)
	return strings.Join(paras, "\n\n"), stripped
}

func checkText(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return malformed("empty completion")
	}
	if !utf8.ValidString(raw) {
		return malformed("completion is not valid UTF-8 text")
	}
	if strings.ContainsRune(raw, 0) {
		return malformed("completion contains NUL bytes")
	}
	total, control := 0, 0
	for _, r := range raw {
		total++
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			control++
		}
	}
	if control*10 > total {
		return malformed("completion is mostly control characters")
	}
	return nil
}

func normalizeModelText(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```")
		t = strings.TrimSpace(t)
		for _, lang := range []string{"json", "text", "markdown"} {
			if strings.HasPrefix(strings.ToLower(t), lang) {
				t = strings.TrimSpace(t[len(lang):])
				break
			}
		}
		if i := strings.LastIndex(t, "```"); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
	}
	return t
}

var blankLineRe = regexp.MustCompile(`\n\s*\n`)

func splitByBlankLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, chunk := range blankLineRe.Split(text, -1) {
		if chunk = strings.Join(strings.Fields(chunk), " "); chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:0]
	for i, s := range in {
		if i == 0 || s != in[i-1] {
			out = append(out, s)
		}
	}
	return out
}
