package score

import (
	"fmt"
	"strings"

	"occasion-listing/internal/compose"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/localization"
	"occasion-listing/internal/textmatch"
)

// Input is everything a rule may read. Rules never modify it.
type Input struct {
	Listing      listing.Listing
	Brief        compose.Brief
	Localization localization.Report
}

// Result is the outcome of one rule. Score is the earned fraction in [0, 1].
type Result struct {
	Score    float64
	Issues   []string
	Strength string
}

type Check func(Input) Result

type Rule struct {
	ID       string
	Category Category
	Points   float64
	// Requires names a listing path. A backfilled path earns the rule nothing.
	Requires string
	Check    Check
}

func pass(format string, args ...any) Result {
	return Result{Score: 1, Strength: fmt.Sprintf(format, args...)}
}

// quiet passes without a strength worth surfacing.
func quiet() Result {
	return Result{Score: 1}
}

func fail(format string, args ...any) Result {
	return Result{Issues: []string{fmt.Sprintf(format, args...)}}
}

func fraction(ok, total int, issues []string, strength string) Result {
	if total == 0 {
		return quiet()
	}
	r := Result{Score: float64(ok) / float64(total), Issues: issues}
	if ok == total {
		r.Strength = strength
	}
	return r
}

// The conversion lists back locales that define no cues of their own.
var (
	urgencyCues = []string{"limited", "today", "order now", "don't miss", "last chance", "while supplies last", "exclusive"}
	trustCues   = []string{"warranty", "guarantee", "guaranteed", "certified", "tested", "money-back", "satisfaction", "proven"}
	socialCues  = []string{"customers", "reviews", "rated", "bestseller", "best-selling", "loved by", "trusted by", "thousands"}
	roboticCues = []string{"in conclusion", "furthermore", "moreover", "it is important to note", "as an ai", "delve", "in today's fast-paced world", "look no further"}
)

// DefaultRules is the built-in rule set in report order.
func DefaultRules() []Rule {
	return []Rule{
		{ID: "title.length", Category: CategoryTitle, Points: 3, Requires: "title", Check: titleLength},
		{ID: "title.tier1_keyword", Category: CategoryTitle, Points: 3, Requires: "title", Check: titleTier1},
		{ID: "title.must_include", Category: CategoryTitle, Points: 2, Requires: "title", Check: titleMustInclude},
		{ID: "title.required_phrase", Category: CategoryTitle, Points: 1, Requires: "title", Check: titlePhrase},
		{ID: "title.avoided_words", Category: CategoryTitle, Points: 1, Requires: "title", Check: titleAvoided},

		{ID: "bullets.count", Category: CategoryBullets, Points: 3, Check: bulletCount},
		{ID: "bullets.authored", Category: CategoryBullets, Points: 2, Check: bulletsAuthored},
		{ID: "bullets.length", Category: CategoryBullets, Points: 3, Check: bulletLength},
		{ID: "bullets.lead_benefit", Category: CategoryBullets, Points: 2, Requires: "bullets[0]", Check: bulletLead},
		{ID: "bullets.required_phrase", Category: CategoryBullets, Points: 2, Check: bulletPhrase},
		{ID: "bullets.formality", Category: CategoryBullets, Points: 1, Check: bulletFormality},

		{ID: "description.length", Category: CategoryDescription, Points: 3, Requires: "description", Check: descriptionLength},
		{ID: "description.occasion_opening", Category: CategoryDescription, Points: 2, Requires: "description", Check: descriptionOpening},
		{ID: "description.occasion_mentions", Category: CategoryDescription, Points: 2, Requires: "description", Check: descriptionMentions},
		{ID: "description.required_phrase", Category: CategoryDescription, Points: 1, Requires: "description", Check: descriptionPhrase},
		{ID: "description.formality", Category: CategoryDescription, Points: 1, Requires: "description", Check: descriptionFormality},
		{ID: "description.avoided_words", Category: CategoryDescription, Points: 1, Requires: "description", Check: descriptionAvoided},

		{ID: "keywords.count", Category: CategoryKeywords, Points: 2, Requires: "keywords.frontend", Check: keywordCount},
		{ID: "keywords.tier_coverage", Category: CategoryKeywords, Points: 3, Requires: "keywords.frontend", Check: keywordTiers},
		{ID: "keywords.unique", Category: CategoryKeywords, Points: 1, Check: keywordsUnique},
		{ID: "keywords.backend_bytes", Category: CategoryKeywords, Points: 2, Requires: "keywords.backend", Check: keywordBackend},

		{ID: "enhanced.sections_present", Category: CategoryEnhanced, Points: 3, Check: sectionsPresent},
		{ID: "enhanced.authored", Category: CategoryEnhanced, Points: 2, Check: sectionsAuthored},
		{ID: "enhanced.body_length", Category: CategoryEnhanced, Points: 2, Check: sectionBodies},
		{ID: "enhanced.image_directive", Category: CategoryEnhanced, Points: 2, Check: sectionImages},
		{ID: "enhanced.keywords", Category: CategoryEnhanced, Points: 1, Check: sectionKeywords},
		{ID: "enhanced.required_phrase", Category: CategoryEnhanced, Points: 1, Check: sectionPhrase},
		{ID: "enhanced.hero_occasion", Category: CategoryEnhanced, Points: 1, Requires: "enhanced_content.hero", Check: heroOccasion},

		{ID: "conversion.urgency", Category: CategoryConversion, Points: 1, Check: cueRule("urgency", urgencyOf, urgencyCues)},
		{ID: "conversion.trust", Category: CategoryConversion, Points: 1, Check: cueRule("trust", trustOf, trustCues)},
		{ID: "conversion.social_proof", Category: CategoryConversion, Points: 1, Check: cueRule("social proof", socialOf, socialCues)},
		{ID: "conversion.natural_voice", Category: CategoryConversion, Points: 1, Check: naturalVoice},
		{ID: "conversion.power_words", Category: CategoryConversion, Points: 1, Check: powerWords},
	}
}

func titleLength(in Input) Result {
	t := in.Brief.Title
	n := textmatch.RuneLen(in.Listing.Title)
	if n < t.MinRunes || n > t.MaxRunes {
		return fail("title length %d chars, expected %d–%d", n, t.MinRunes, t.MaxRunes)
	}
	return pass("title length %d chars within %d–%d", n, t.MinRunes, t.MaxRunes)
}

func titleTier1(in Input) Result {
	terms := in.Brief.TierTerms(1)
	if len(terms) == 0 {
		return quiet()
	}
	for _, term := range terms {
		if textmatch.ContainsFold(in.Listing.Title, term) {
			return pass("title carries tier-1 keyword %q", term)
		}
	}
	return fail("title has no tier-1 keyword (expected one of: %s)", listHead(terms, 5))
}

func titleMustInclude(in Input) Result {
	var missing []string
	for _, term := range in.Brief.Title.MustInclude {
		if !textmatch.ContainsFold(in.Listing.Title, term) {
			missing = append(missing, term)
		}
	}
	if len(missing) > 0 {
		return fail("title missing required term(s): %s", strings.Join(missing, ", "))
	}
	return quiet()
}

func titlePhrase(in Input) Result {
	phrases := in.Brief.Constraints.RequiredPhrases
	if len(phrases) == 0 {
		return quiet()
	}
	if _, ok := textmatch.FirstWordPrefix(in.Listing.Title, phrases); !ok {
		return fail("title lacks required tone phrase (one of: %s)", strings.Join(phrases, ", "))
	}
	return quiet()
}

func titleAvoided(in Input) Result {
	return avoided("title", in.Listing.Title, in.Brief.Constraints.AvoidWords)
}

func bulletCount(in Input) Result {
	n, want := len(in.Listing.Bullets), in.Brief.Bullets.Count
	if n != want {
		return fail("bullet count %d, expected %d", n, want)
	}
	return quiet()
}

func bulletsAuthored(in Input) Result {
	var issues []string
	ok := 0
	for i, b := range in.Listing.Bullets {
		if b.Fallback {
			issues = append(issues, fmt.Sprintf("partial section missing: bullet %d was backfilled", i+1))
			continue
		}
		ok++
	}
	return fraction(ok, len(in.Listing.Bullets), issues, "every bullet was written for this product")
}

func bulletLength(in Input) Result {
	req := in.Brief.Bullets
	var issues []string
	ok := 0
	for i, b := range in.Listing.Bullets {
		if b.Fallback {
			continue
		}
		n := textmatch.RuneLen(strings.TrimSpace(b.Text))
		if n < req.MinRunes || n > req.MaxRunes {
			issues = append(issues, fmt.Sprintf("bullet %d length %d chars, expected %d–%d", i+1, n, req.MinRunes, req.MaxRunes))
			continue
		}
		ok++
	}
	return fraction(ok, len(in.Listing.Bullets), issues, fmt.Sprintf("every bullet within %d–%d chars", req.MinRunes, req.MaxRunes))
}

func bulletLead(in Input) Result {
	if len(in.Listing.Bullets) == 0 {
		return fail("no first bullet to lead with a benefit")
	}
	first := in.Listing.Bullets[0].Text
	if in.Brief.GeneralPurpose {
		for _, feature := range in.Brief.TierTerms(2) {
			if strings.HasPrefix(textmatch.Fold(strings.TrimSpace(first)), textmatch.Fold(feature)) {
				return fail("first bullet opens with product feature %q instead of a benefit", feature)
			}
		}
		return quiet()
	}
	terms := in.Brief.OccasionTerms()
	for _, term := range terms {
		if textmatch.ContainsFold(first, term) {
			return pass("first bullet leads with the %s benefit", in.Brief.OccasionName)
		}
	}
	return fail("first bullet does not lead with an occasion benefit (mention one of: %s)", listHead(terms, 4))
}

func bulletPhrase(in Input) Result {
	phrases := in.Brief.Constraints.RequiredPhrases
	if len(phrases) == 0 {
		return quiet()
	}
	var issues []string
	ok := 0
	for i, b := range in.Listing.Bullets {
		if b.Fallback {
			continue
		}
		if _, found := textmatch.FirstWordPrefix(b.Text, phrases); !found {
			issues = append(issues, fmt.Sprintf("bullet %d lacks required tone phrase (one of: %s)", i+1, strings.Join(phrases, ", ")))
			continue
		}
		ok++
	}
	return fraction(ok, len(in.Listing.Bullets), issues, "every bullet carries the tone phrase")
}

func bulletFormality(in Input) Result {
	markers := in.Brief.Constraints.FormalityMarkers
	if len(markers) == 0 {
		return quiet()
	}
	for _, b := range in.Listing.Bullets {
		if b.Fallback {
			continue
		}
		if _, ok := textmatch.FirstWord(b.Text, markers); ok {
			return quiet()
		}
	}
	return fail("bullets never address the customer with %s", strings.Join(markers, "/"))
}

func descriptionLength(in Input) Result {
	req := in.Brief.Description
	n := textmatch.RuneLen(in.Listing.Description)
	if n < req.MinRunes || n > req.MaxRunes {
		return fail("description length %d chars, expected %d–%d", n, req.MinRunes, req.MaxRunes)
	}
	return pass("description length %d chars within %d–%d", n, req.MinRunes, req.MaxRunes)
}

func descriptionOpening(in Input) Result {
	if in.Brief.GeneralPurpose {
		return quiet()
	}
	opening := openingOf(in.Listing.Description)
	for _, term := range in.Brief.OccasionTerms() {
		if textmatch.ContainsFold(opening, term) {
			return pass("description opens in the %s context", in.Brief.OccasionName)
		}
	}
	return fail("description opening does not establish the %s context", in.Brief.OccasionName)
}

func descriptionMentions(in Input) Result {
	want := in.Brief.Description.MinOccasionMentions
	if in.Brief.GeneralPurpose || want <= 0 {
		return quiet()
	}
	n := 0
	for _, term := range in.Brief.OccasionTerms() {
		n = max(n, textmatch.CountWord(in.Listing.Description, term))
	}
	if n < want {
		return fail("description mentions %s %d time(s), expected at least %d", in.Brief.OccasionName, n, want)
	}
	return quiet()
}

func descriptionPhrase(in Input) Result {
	phrases := in.Brief.Constraints.RequiredPhrases
	if len(phrases) == 0 {
		return quiet()
	}
	if _, ok := textmatch.FirstWordPrefix(in.Listing.Description, phrases); !ok {
		return fail("description lacks required tone phrase (one of: %s)", strings.Join(phrases, ", "))
	}
	return quiet()
}

func descriptionFormality(in Input) Result {
	markers := in.Brief.Constraints.FormalityMarkers
	if len(markers) == 0 {
		return quiet()
	}
	if _, ok := textmatch.FirstWord(in.Listing.Description, markers); !ok {
		return fail("description never addresses the customer with %s", strings.Join(markers, "/"))
	}
	return quiet()
}

func descriptionAvoided(in Input) Result {
	text := strings.Join(append(in.Listing.BulletTexts(), in.Listing.Description), "\n")
	return avoided("bullets and description", text, in.Brief.Constraints.AvoidWords)
}

func keywordCount(in Input) Result {
	n := len(in.Listing.AllKeywords())
	if n < in.Brief.KeywordMin {
		return fail("keyword count %d, expected at least %d", n, in.Brief.KeywordMin)
	}
	return pass("%d keywords", n)
}

func keywordTiers(in Input) Result {
	joined := strings.Join(in.Listing.AllKeywords(), "\n")
	var issues []string
	ok, total := 0, 0
	for _, tier := range in.Brief.Tiers {
		terms := in.Brief.TierTerms(tier.Tier)
		if len(terms) == 0 {
			continue
		}
		total++
		covered := false
		for _, term := range terms {
			if textmatch.ContainsFold(joined, term) {
				covered = true
				break
			}
		}
		if !covered {
			issues = append(issues, fmt.Sprintf("keywords miss tier %d terms (e.g. %s)", tier.Tier, listHead(terms, 3)))
			continue
		}
		ok++
	}
	return fraction(ok, total, issues, "keywords cover every tier of the hierarchy")
}

func keywordsUnique(in Input) Result {
	seen := map[string]bool{}
	var issues []string
	for _, kw := range in.Listing.AllKeywords() {
		key := textmatch.Fold(strings.TrimSpace(kw))
		if seen[key] {
			issues = append(issues, fmt.Sprintf("duplicate keyword %q", kw))
			continue
		}
		seen[key] = true
	}
	if len(issues) > 0 {
		return Result{Issues: issues}
	}
	return quiet()
}

func keywordBackend(in Input) Result {
	limit := in.Brief.BackendMaxBytes
	n := len(strings.Join(in.Listing.Keywords.Backend, " "))
	if limit > 0 && n > limit {
		return fail("backend keywords %d bytes, limit %d", n, limit)
	}
	return pass("backend keywords %d bytes within %d", n, limit)
}

func sectionsPresent(in Input) Result {
	var issues []string
	ok := 0
	for _, key := range listing.SectionKeys() {
		if _, found := in.Listing.Section(key); !found {
			issues = append(issues, fmt.Sprintf("enhanced content missing section %s", key))
			continue
		}
		ok++
	}
	return fraction(ok, len(listing.SectionKeys()), issues, fmt.Sprintf("all %d enhanced-content sections present", ok))
}

func sectionsAuthored(in Input) Result {
	var issues []string
	ok := 0
	for _, key := range listing.SectionKeys() {
		prefix := "enhanced_content." + string(key)
		complete := true
		for _, path := range in.Listing.Backfilled {
			if path == prefix || strings.HasPrefix(path, prefix+".") {
				issues = append(issues, fmt.Sprintf("partial section missing: %s was backfilled", path))
				complete = false
			}
		}
		if complete {
			ok++
		}
	}
	return fraction(ok, len(listing.SectionKeys()), issues, "every enhanced-content section was written for this product")
}

// authoredSections walks sections that were not wholly synthesized.
func authoredSections(l listing.Listing, fn func(s listing.Section, path string)) {
	for _, key := range listing.SectionKeys() {
		s, ok := l.Section(key)
		if !ok || s.Fallback {
			continue
		}
		fn(s, "enhanced_content."+string(key))
	}
}

func sectionBodies(in Input) Result {
	want := in.Brief.SectionBodyMin
	var issues []string
	ok := 0
	authoredSections(in.Listing, func(s listing.Section, _ string) {
		if n := textmatch.RuneLen(s.Body); n < want {
			issues = append(issues, fmt.Sprintf("section %s body %d chars, expected at least %d", s.Key, n, want))
			return
		}
		ok++
	})
	return fraction(ok, len(listing.SectionKeys()), issues, fmt.Sprintf("every section body has at least %d chars", want))
}

func sectionImages(in Input) Result {
	var issues []string
	ok := 0
	authoredSections(in.Listing, func(s listing.Section, path string) {
		if in.Listing.IsBackfilled(path+".image_directive") || strings.TrimSpace(s.ImageDirective) == "" {
			issues = append(issues, fmt.Sprintf("section %s has no image directive of its own", s.Key))
			return
		}
		ok++
	})
	return fraction(ok, len(listing.SectionKeys()), issues, "every section carries an image directive")
}

func sectionKeywords(in Input) Result {
	var issues []string
	ok := 0
	authoredSections(in.Listing, func(s listing.Section, path string) {
		if in.Listing.IsBackfilled(path+".keywords") || len(s.Keywords) == 0 {
			issues = append(issues, fmt.Sprintf("section %s has no keywords of its own", s.Key))
			return
		}
		ok++
	})
	return fraction(ok, len(listing.SectionKeys()), issues, "every section carries keywords")
}

func sectionPhrase(in Input) Result {
	phrases := in.Brief.Constraints.RequiredPhrases
	if len(phrases) == 0 {
		return quiet()
	}
	var issues []string
	ok := 0
	authoredSections(in.Listing, func(s listing.Section, _ string) {
		if _, found := textmatch.FirstWordPrefix(s.Body, phrases); !found {
			issues = append(issues, fmt.Sprintf("section %s lacks required tone phrase (one of: %s)", s.Key, strings.Join(phrases, ", ")))
			return
		}
		ok++
	})
	return fraction(ok, len(listing.SectionKeys()), issues, "every section carries the tone phrase")
}

func heroOccasion(in Input) Result {
	if in.Brief.GeneralPurpose {
		return quiet()
	}
	hero, ok := in.Listing.Section(listing.SectionHero)
	if !ok {
		return fail("hero section does not mention %s", in.Brief.OccasionName)
	}
	for _, term := range in.Brief.OccasionTerms() {
		if textmatch.ContainsFold(hero.Title+"\n"+hero.Body, term) {
			return pass("hero section is framed around %s", in.Brief.OccasionName)
		}
	}
	return fail("hero section does not mention %s", in.Brief.OccasionName)
}

func cueRule(name string, pick func(compose.ConversionCues) []string, fallback []string) Check {
	return func(in Input) Result {
		cues := pick(in.Brief.Cues)
		if len(cues) == 0 {
			cues = fallback
		}
		text := in.Listing.CopyText() + "\n" + in.Listing.SectionText()
		if cue, ok := textmatch.FirstWord(text, cues); ok {
			return pass("%s signal present (%q)", name, cue)
		}
		return fail("no %s signal (e.g. %s)", name, listHead(cues, 3))
	}
}

func urgencyOf(c compose.ConversionCues) []string { return c.Urgency }
func trustOf(c compose.ConversionCues) []string { return c.Trust }
func socialOf(c compose.ConversionCues) []string { return c.SocialProof }

func naturalVoice(in Input) Result {
	text := in.Listing.CopyText() + "\n" + in.Listing.SectionText()
	var issues []string
	for _, cue := range roboticCues {
		if n := textmatch.CountWord(text, cue); n > 0 {
			issues = append(issues, fmt.Sprintf("robotic phrase %q appears %d time(s)", cue, n))
		}
	}
	if len(issues) > 0 {
		return Result{Issues: issues}
	}
	return quiet()
}

func powerWords(in Input) Result {
	words := in.Brief.Constraints.PowerWords
	if len(words) == 0 {
		return quiet()
	}
	text := in.Listing.CopyText() + "\n" + in.Listing.SectionText()
	if w, ok := textmatch.FirstWord(text, words); ok {
		return pass("tone power word %q used", w)
	}
	return fail("no tone power word used (e.g. %s)", listHead(words, 3))
}

func avoided(where, text string, words []string) Result {
	var issues []string
	for _, w := range words {
		if n := textmatch.CountWord(text, w); n > 0 {
			issues = append(issues, fmt.Sprintf("avoided word %q appears %d time(s) in %s", w, n, where))
		}
	}
	if len(issues) > 0 {
		return Result{Issues: issues}
	}
	return quiet()
}

// openingOf is the first paragraph, capped at 300 characters.
func openingOf(description string) string {
	first := strings.TrimSpace(description)
	if i := strings.Index(first, "\n\n"); i >= 0 {
		first = first[:i]
	}
	if r := []rune(first); len(r) > 300 {
		first = string(r[:300])
	}
	return first
}

func listHead(items []string, n int) string {
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}
