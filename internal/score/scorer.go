// Package score grades an assembled listing against a weighted rubric of
// independent rules.
package score

import (
	"fmt"
	"math"
	"slices"

	"github.com/Masterminds/semver/v3"

	"occasion-listing/internal/compose"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/localization"
)

type CategoryScore struct {
	Category Category `json:"category"`
	Score    float64  `json:"score"`
	Max      float64  `json:"max"`
	Weight   float64  `json:"weight"`
	Passed   int      `json:"passed"`
	Total    int      `json:"total"`
}

type Report struct {
	RubricVersion string          `json:"rubric_version"`
	Categories    []CategoryScore `json:"categories"`
	Overall       float64         `json:"overall"`
	Max           float64         `json:"max"`
	Threshold     float64         `json:"threshold"`
	Grade         string          `json:"grade"`
	Pass          bool            `json:"pass"`
	Issues        []string        `json:"issues"`
	Strengths     []string        `json:"strengths"`
}

// Flat maps each category, plus "overall", to its score.
func (r Report) Flat() map[string]float64 {
	out := make(map[string]float64, len(r.Categories)+1)
	for _, c := range r.Categories {
		out[string(c.Category)] = c.Score
	}
	out["overall"] = r.Overall
	return out
}

func (r Report) Category(c Category) (CategoryScore, bool) {
	for _, cs := range r.Categories {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// Scorer holds no mutable state after New and may be shared across goroutines.
type Scorer struct {
	rubric  Rubric
	version *semver.Version
	rules   []Rule
}

func New(rubric Rubric, custom ...CustomRule) (*Scorer, error) {
	rubric = rubric.withDefaults()
	version, err := rubric.validate()
	if err != nil {
		return nil, err
	}
	rules := DefaultRules()
	if len(custom) > 0 {
		extra, err := compileCustomRules(custom)
		if err != nil {
			return nil, err
		}
		rules = append(rules, extra...)
	}
	return &Scorer{rubric: rubric, version: version, rules: rules}, nil
}

func (s *Scorer) Rubric() Rubric {
	return s.rubric
}

func (s *Scorer) Rules() []Rule {
	return slices.Clone(s.rules)
}

type tally struct {
	earned, possible float64
	passed, total    int
	issues           []string
	strengths        []string
}

func (s *Scorer) Score(l listing.Listing, b compose.Brief, loc localization.Report) Report {
	in := Input{Listing: l, Brief: b, Localization: loc}
	tallies := map[Category]*tally{}
	for _, c := range Categories() {
		tallies[c] = &tally{}
	}
	for _, rule := range s.rules {
		res := runRule(rule, in)
		t := tallies[rule.Category]
		t.earned += rule.Points * res.Score
		t.possible += rule.Points
		t.total++
		if res.Score >= 1 {
			t.passed++
		}
		t.issues = append(t.issues, res.Issues...)
		if res.Strength != "" {
			t.strengths = append(t.strengths, res.Strength)
		}
	}

	top := s.rubric.Max
	r := Report{
		RubricVersion: s.version.String(),
		Max:           top,
		Threshold:     s.rubric.PassThreshold,
	}
	weighted, weights := 0.0, 0.0
	for _, c := range Categories() {
		t := tallies[c]
		cs := CategoryScore{Category: c, Max: top, Weight: s.rubric.Weights[c], Passed: t.passed, Total: t.total}
		var value float64
		if c == CategoryLocalization {
			value = clamp(loc.Compliance, 0, 1) * top
			cs.Total = 1
			if !loc.Critical() && len(loc.ContaminationIssues) == 0 {
				cs.Passed = 1
			}
			r.Issues = append(r.Issues, loc.Issues...)
			r.Strengths = append(r.Strengths, loc.Strengths...)
		} else {
			value = top
			if t.possible > 0 {
				value = t.earned / t.possible * top
			}
			r.Issues = append(r.Issues, t.issues...)
			r.Strengths = append(r.Strengths, t.strengths...)
		}
		cs.Score = round2(value)
		r.Categories = append(r.Categories, cs)
		if cs.Weight > 0 {
			weighted += cs.Weight * value
			weights += cs.Weight
		}
	}
	if weights > 0 {
		r.Overall = round2(clamp(weighted/weights, 0, top))
	}
	r.Pass = r.Overall >= s.rubric.PassThreshold
	r.Grade = Grade(r.Overall, top)
	return r
}

func runRule(rule Rule, in Input) Result {
	if rule.Requires != "" && in.Listing.IsBackfilled(rule.Requires) {
		return fail("partial section missing: %s was backfilled, so %s earns no credit", rule.Requires, rule.ID)
	}
	res := rule.Check(in)
	res.Score = clamp(res.Score, 0, 1)
	if math.IsNaN(res.Score) {
		res.Score = 0
	}
	return res
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summary is a one-line verdict for logs.
func (r Report) Summary() string {
	verdict := "fail"
	if r.Pass {
		verdict = "pass"
	}
	return fmt.Sprintf("%.2f/%.0f %s (%s, %d issue(s))", r.Overall, r.Max, r.Grade, verdict, len(r.Issues))
}
