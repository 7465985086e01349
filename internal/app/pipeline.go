package app

import (
	"fmt"
	"strings"

	"occasion-listing/internal/assemble"
	"occasion-listing/internal/catalog"
	"occasion-listing/internal/compose"
	"occasion-listing/internal/config"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/localization"
	"occasion-listing/internal/report"
	"occasion-listing/internal/score"
)

// Pipeline wires the core stages for one catalog and config. It is safe to
// share between goroutines.
type Pipeline struct {
	catalog     *catalog.Catalog
	composer    compose.Composer
	assembler   *assemble.Assembler
	validator   localization.Validator
	scorer      *score.Scorer
	defaultTone string
}

// Prepared is a product that passed validation, with its brief composed.
type Prepared struct {
	Product  listing.Product
	Brief    compose.Brief
	Locale   catalog.LocaleProfile
	Warnings []string
}

func NewPipeline(cfg *config.Config, cat *catalog.Catalog) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置为空")
	}
	if cat == nil {
		return nil, fmt.Errorf("目录为空")
	}
	asm, err := assemble.New()
	if err != nil {
		return nil, fmt.Errorf("初始化输出结构校验失败：%w", err)
	}
	scorer, err := score.New(cfg.Rubric.Rubric, cfg.Rubric.CustomRules...)
	if err != nil {
		return nil, fmt.Errorf("评分规则配置错误：%w", err)
	}
	version := ""
	if cat.Version != nil {
		version = cat.Version.String()
	}
	return &Pipeline{
		catalog:     cat,
		composer:    compose.New(cfg.Limits, version),
		assembler:   asm,
		validator:   localization.New(cfg.Localization),
		scorer:      scorer,
		defaultTone: cfg.DefaultTone,
	}, nil
}

// Prepare validates product and composes its brief. An unknown locale fails;
// an unknown tone falls back to the configured default with a warning.
func (p *Pipeline) Prepare(product listing.Product) (Prepared, error) {
	if err := product.Validate(); err != nil {
		return Prepared{}, fmt.Errorf("产品简报不完整：%w", err)
	}
	locale, err := p.catalog.Locales.Lookup(product.Locale)
	if err != nil {
		return Prepared{}, err
	}
	var warnings []string
	toneID := strings.TrimSpace(product.BrandTone)
	if toneID == "" {
		toneID = p.defaultTone
	}
	tone, ok := p.catalog.Tones.Lookup(toneID)
	if !ok {
		tone, ok = p.catalog.Tones.Lookup(p.defaultTone)
		if !ok {
			return Prepared{}, fmt.Errorf("默认语气不存在：%s", p.defaultTone)
		}
		warnings = append(warnings, fmt.Sprintf("unknown brand tone %q, using %s", toneID, tone.ID))
	}
	occasion := p.catalog.Occasions.Lookup(product.Occasion)
	if occasion.ID != catalog.GeneralPurposeID && !p.catalog.Occasions.Has(product.Occasion) {
		warnings = append(warnings, fmt.Sprintf("occasion %q is not in the catalog, composing a custom profile", strings.TrimSpace(product.Occasion)))
	}
	brief := p.composer.Compose(product, occasion, tone, locale)
	return Prepared{Product: product, Brief: brief, Locale: locale, Warnings: warnings}, nil
}

// Evaluate assembles raw against the prepared brief and scores the result.
// Only a malformed completion is an error.
func (p *Pipeline) Evaluate(prep Prepared, raw string) (report.Document, error) {
	l, err := p.assembler.Assemble(raw, prep.Brief)
	if err != nil {
		return report.Document{}, err
	}
	loc := p.validator.Validate(l, prep.Locale)
	return report.Document{
		Brief:        prep.Brief,
		Listing:      l,
		Localization: loc,
		Score:        p.scorer.Score(l, prep.Brief, loc),
	}, nil
}

// Prompts renders the system and user prompts for prep. feedback, when set,
// is appended so a retry can correct the previous attempt.
func (p *Pipeline) Prompts(prep Prepared, feedback string) (string, string) {
	system, user := compose.RenderPrompt(prep.Brief)
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return system, user
	}
	return system, user + "\n[Previous attempt]\n" + feedback + "\nReturn the complete JSON object again and fix the problem above.\n"
}
