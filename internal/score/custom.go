package score

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// CustomRule is a rubric extension written as a CEL expression over the
// "input" map built by celInput. It must evaluate to a bool.
type CustomRule struct {
	ID       string  `yaml:"id" json:"id"`
	Category string  `yaml:"category" json:"category"`
	Points   float64 `yaml:"points" json:"points"`
	Expr     string  `yaml:"expr" json:"expr"`
	Message  string  `yaml:"message" json:"message"`
}

func newCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("input", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return env, nil
}

// compileCustomRules compiles every expression once; the programs are safe
// for concurrent evaluation.
func compileCustomRules(defs []CustomRule) ([]Rule, error) {
	env, err := newCELEnv()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	rules := make([]Rule, 0, len(defs))
	for _, def := range defs {
		id := strings.TrimPrefix(strings.TrimSpace(def.ID), "custom.")
		if id == "" {
			return nil, fmt.Errorf("custom rule without id")
		}
		if seen[id] {
			return nil, fmt.Errorf("custom rule %s defined twice", id)
		}
		seen[id] = true

		category, err := ParseCategory(def.Category)
		if err != nil {
			return nil, fmt.Errorf("custom rule %s: %w", id, err)
		}
		if category == CategoryLocalization {
			return nil, fmt.Errorf("custom rule %s: localization scores come from the localization validator", id)
		}
		points := def.Points
		if points == 0 {
			points = 1
		}
		if points < 0 {
			return nil, fmt.Errorf("custom rule %s: points must be positive", id)
		}

		ast, issues := env.Compile(def.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("custom rule %s: CEL compile error: %w", id, issues.Err())
		}
		if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
			return nil, fmt.Errorf("custom rule %s: expression must return bool, got %s", id, out)
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("custom rule %s: CEL program error: %w", id, err)
		}
		rules = append(rules, Rule{
			ID:       "custom." + id,
			Category: category,
			Points:   points,
			Check:    celCheck(prg, id, def.Message),
		})
	}
	return rules, nil
}

func celCheck(prg cel.Program, id, message string) Check {
	if strings.TrimSpace(message) == "" {
		message = "expression evaluated to false"
	}
	return func(in Input) Result {
		out, _, err := prg.Eval(map[string]any{"input": celInput(in)})
		if err != nil {
			return fail("custom rule %s: CEL eval error: %v", id, err)
		}
		ok, isBool := out.Value().(bool)
		if !isBool {
			return fail("custom rule %s: result not boolean", id)
		}
		if !ok {
			return fail("custom rule %s: %s", id, message)
		}
		return pass("custom rule %s satisfied", id)
	}
}

func celInput(in Input) map[string]any {
	l, b := in.Listing, in.Brief
	sections := make(map[string]any, len(l.EnhancedContent))
	for _, s := range l.EnhancedContent {
		sections[string(s.Key)] = map[string]any{
			"title":           s.Title,
			"body":            s.Body,
			"image_directive": s.ImageDirective,
			"keywords":        orEmpty(s.Keywords),
			"fallback":        s.Fallback,
		}
	}
	return map[string]any{
		"title":       l.Title,
		"bullets":     orEmpty(l.BulletTexts()),
		"description": l.Description,
		"keywords": map[string]any{
			"frontend": orEmpty(l.Keywords.Frontend),
			"backend":  orEmpty(l.Keywords.Backend),
		},
		"sections":   sections,
		"backfilled": orEmpty(l.Backfilled),
		"brand":      b.Brand,
		"product":    b.ProductName,
		"occasion": map[string]any{
			"id":      b.OccasionID,
			"name":    b.OccasionName,
			"general": b.GeneralPurpose,
			"custom":  b.CustomOccasion,
		},
		"tone":     b.ToneID,
		"locale":   b.LocaleID,
		"language": b.Language,
		"localization": map[string]any{
			"compliance":     in.Localization.Compliance,
			"script_score":   in.Localization.ScriptScore,
			"cultural_score": in.Localization.CulturalScore,
			"contamination":  len(in.Localization.ContaminationIssues),
		},
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
