package assemble

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"occasion-listing/internal/compose"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/textmatch"
)

// builder adopts parsed fields verbatim and synthesizes deterministic
// fallbacks from the brief for anything absent.
type builder struct {
	brief      compose.Brief
	clean      func(s string, multiline bool) (string, bool)
	backfilled []string
	diags      []string
}

func (b *builder) fill(path string) {
	b.backfilled = append(b.backfilled, path)
}

func (b *builder) adopt(path, s string, multiline bool) string {
	out, stripped := b.clean(s, multiline)
	if stripped {
		b.diags = append(b.diags, path+": markup removed")
	}
	return out
}

var titleLabelRe = regexp.MustCompile(`(?i)^\s*(title|标题)\s*[:：]\s*`)

func (b *builder) title(raw string) string {
	raw = titleLabelRe.ReplaceAllString(raw, "")
	if t := b.adopt("title", raw, false); t != "" {
		return t
	}
	b.fill("title")
	return fallbackTitle(b.brief)
}

func (b *builder) bullets(raw []string) []listing.Bullet {
	want := b.brief.Bullets.Count
	if want <= 0 {
		want = compose.DefaultLimits().BulletCount
	}
	out := make([]listing.Bullet, 0, want)
	for i, text := range raw {
		if t := b.adopt(fmt.Sprintf("bullets[%d]", i), text, false); t != "" {
			out = append(out, listing.Bullet{Text: t})
		}
	}
	if len(out) > want {
		b.diags = append(b.diags, fmt.Sprintf("bullets: %d provided, truncated to %d", len(out), want))
		out = out[:want]
	}
	for i := len(out); i < want; i++ {
		b.fill(fmt.Sprintf("bullets[%d]", i))
		out = append(out, listing.Bullet{Text: fallbackBullet(b.brief, i), Fallback: true})
	}
	return out
}

func (b *builder) description(raw string) string {
	if d := b.adopt("description", raw, true); d != "" {
		return d
	}
	b.fill("description")
	return fallbackDescription(b.brief)
}

func (b *builder) keywords(frontend, backend []string) listing.Keywords {
	kw := listing.Keywords{
		Frontend: b.cleanList("keywords.frontend", frontend),
		Backend:  b.cleanList("keywords.backend", backend),
	}
	if len(kw.Frontend) == 0 {
		b.fill("keywords.frontend")
		for _, k := range b.brief.Keywords {
			if k.Tier <= 2 {
				kw.Frontend = append(kw.Frontend, k.Term)
			}
		}
	}
	if len(kw.Backend) == 0 {
		b.fill("keywords.backend")
		kw.Backend = fallbackBackend(b.brief, kw.Frontend)
	}
	return kw
}

func (b *builder) cleanList(path string, in []string) []string {
	var out []string
	for _, s := range in {
		if t := b.adopt(path, s, false); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (b *builder) sections(raw map[listing.SectionKey]rawSection) []listing.Section {
	out := make([]listing.Section, 0, len(listing.SectionKeys()))
	for _, key := range listing.SectionKeys() {
		directive, _ := b.brief.Section(key)
		path := "enhanced_content." + string(key)
		r, ok := raw[key]
		body := ""
		if ok {
			body = b.adopt(path+".body", r.body, true)
		}
		if body == "" {
			b.fill(path)
			out = append(out, fallbackSection(b.brief, key, directive))
			continue
		}
		sec := listing.Section{
			Key:            key,
			Title:          b.adopt(path+".title", r.title, false),
			Body:           body,
			Keywords:       b.cleanList(path+".keywords", r.keywords),
			ImageDirective: b.adopt(path+".image_directive", r.imageDirective, false),
		}
		if sec.Title == "" {
			b.fill(path + ".title")
			sec.Title = firstNonEmpty(directive.Heading, upperFirst(strings.ReplaceAll(string(key), "_", " ")))
		}
		if len(sec.Keywords) == 0 {
			b.fill(path + ".keywords")
			sec.Keywords = sectionKeywords(b.brief)
		}
		if sec.ImageDirective == "" {
			b.fill(path + ".image_directive")
			sec.ImageDirective = directive.ImageDirective
		}
		out = append(out, sec)
	}
	return out
}

func fallbackTitle(brief compose.Brief) string {
	title := brief.Title.Rendered
	if title == "" {
		title = strings.TrimSpace(brief.Brand + " " + brief.ProductName)
	}
	max := brief.Title.MaxRunes
	for i, feature := range brief.Features {
		if textmatch.RuneLen(title) >= brief.Title.MinRunes {
			break
		}
		sep := ", "
		if i == 0 {
			sep = " - "
		}
		next := title + sep + feature
		if max > 0 && textmatch.RuneLen(next) > max {
			break
		}
		title = next
	}
	return title
}

func fallbackBullet(brief compose.Brief, i int) string {
	starter := "GIFT IDEA"
	if n := len(brief.Bullets.Starters); n > 0 {
		starter = brief.Bullets.Starters[i%n]
	}
	lead := brief.ToneAdaptation
	if n := len(brief.EmotionalTriggers); n > 0 {
		lead = brief.EmotionalTriggers[i%n]
	}
	var tail string
	features := brief.TierTerms(2)
	if n := len(features); n > 0 {
		tail = fmt.Sprintf("%s, so the %s %s earns its place every day.", upperFirst(features[i%n]), brief.Brand, brief.ProductName)
	} else {
		tail = fmt.Sprintf("The %s %s is made to be used, not just unwrapped.", brief.Brand, brief.ProductName)
	}
	text := fmt.Sprintf("%s: %s. %s", starter, strings.TrimRight(lead, ".!"), tail)
	if textmatch.RuneLen(text) < brief.Bullets.MinRunes && brief.GiftContext != "" {
		text += " " + brief.GiftContext
	}
	if brief.Bullets.MaxRunes > 0 {
		text = textmatch.Truncate(text, brief.Bullets.MaxRunes)
	}
	return text
}

func fallbackDescription(brief compose.Brief) string {
	paras := []string{brief.Description.Opening}
	intro := fmt.Sprintf("The %s %s is %s.", brief.Brand, brief.ProductName, lowerFirst(strings.TrimRight(brief.ToneAdaptation, ".")))
	paras = append(paras, strings.Join(strings.Fields(intro+" "+brief.EmotionalFramework), " "))
	var framings []string
	for _, kw := range brief.Keywords {
		if kw.Tier == 2 && kw.Framing != "" {
			framings = append(framings, upperFirst(kw.Framing)+".")
		}
	}
	if len(framings) > 0 {
		paras = append(paras, strings.Join(framings, " "))
	}
	if brief.GiftContext != "" {
		paras = append(paras, brief.GiftContext)
	}
	var kept []string
	for _, p := range paras {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

func fallbackBackend(brief compose.Brief, frontend []string) []string {
	used := map[string]bool{}
	for _, f := range frontend {
		used[textmatch.Fold(f)] = true
	}
	limit := brief.BackendMaxBytes
	var out []string
	size := 0
	for _, kw := range brief.Keywords {
		if used[textmatch.Fold(kw.Term)] {
			continue
		}
		add := len(kw.Term)
		if size > 0 {
			add++
		}
		if limit > 0 && size+add > limit {
			continue
		}
		size += add
		out = append(out, kw.Term)
	}
	return out
}

func fallbackSection(brief compose.Brief, key listing.SectionKey, d compose.SectionDirective) listing.Section {
	heading := d.Heading
	if heading == "" {
		heading = upperFirst(strings.ReplaceAll(string(key), "_", " "))
	}
	body := fmt.Sprintf("%s %s %s: %s. %s",
		brief.Brand, brief.ProductName, strings.ToLower(heading), upperFirst(d.Focus), brief.ToneAdaptation)
	if brief.EmotionalFramework != "" {
		body += " " + brief.EmotionalFramework
	}
	return listing.Section{
		Key:            key,
		Title:          heading,
		Body:           strings.Join(strings.Fields(body), " "),
		Keywords:       sectionKeywords(brief),
		ImageDirective: d.ImageDirective,
		Fallback:       true,
	}
}

func sectionKeywords(brief compose.Brief) []string {
	terms := brief.TierTerms(1)
	if len(terms) > 3 {
		terms = terms[:3]
	}
	return terms
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
