package catalog

import (
	"fmt"
	"slices"
	"strings"
)

type Occasions struct {
	profiles map[string]OccasionProfile
	index    map[string]string
	order    []string
}

func NewOccasions(profiles []OccasionProfile) (*Occasions, error) {
	o := &Occasions{
		profiles: make(map[string]OccasionProfile, len(profiles)),
		index:    make(map[string]string, len(profiles)*4),
	}
	for _, p := range profiles {
		id := NormalizeID(p.ID)
		if id == "" {
			return nil, fmt.Errorf("occasion %q: empty id", p.ID)
		}
		if id == GeneralPurposeID {
			return nil, fmt.Errorf("occasion %q: id is reserved", p.ID)
		}
		if _, dup := o.profiles[id]; dup {
			return nil, fmt.Errorf("occasion %q: duplicate id", p.ID)
		}
		p.ID = id
		p.Custom = false
		o.profiles[id] = p.clone()
		o.order = append(o.order, id)
		if err := o.addKey(id, id); err != nil {
			return nil, err
		}
		if err := o.addKey(NormalizeID(p.Name), id); err != nil {
			return nil, err
		}
		for _, alias := range p.Aliases {
			if err := o.addKey(NormalizeID(alias), id); err != nil {
				return nil, err
			}
		}
		for _, name := range p.LocalizedNames {
			if err := o.addKey(NormalizeID(name), id); err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}

func (o *Occasions) addKey(key, id string) error {
	if key == "" {
		return nil
	}
	if owner, ok := o.index[key]; ok && owner != id {
		return fmt.Errorf("occasion %q: alias %q already used by %q", id, key, owner)
	}
	o.index[key] = id
	return nil
}

// Lookup never fails. An empty id yields the general-purpose profile and an
// unknown id yields a profile synthesized from the id itself.
func (o *Occasions) Lookup(id string) OccasionProfile {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return GeneralPurpose()
	}
	if p, ok := o.Resolve(raw); ok {
		return p
	}
	return CustomOccasion(raw)
}

// Resolve finds a catalog entry by id, name or alias.
func (o *Occasions) Resolve(id string) (OccasionProfile, bool) {
	key := NormalizeID(id)
	if key == GeneralPurposeID {
		return GeneralPurpose(), true
	}
	if o == nil {
		return OccasionProfile{}, false
	}
	canonical, ok := o.index[key]
	if !ok {
		return OccasionProfile{}, false
	}
	return o.profiles[canonical].clone(), true
}

func (o *Occasions) Has(id string) bool {
	_, ok := o.Resolve(id)
	return ok
}

// All lists catalog entries in file order, without the general-purpose profile.
func (o *Occasions) All() []OccasionProfile {
	out := make([]OccasionProfile, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, o.profiles[id].clone())
	}
	return out
}

func (o *Occasions) Len() int {
	return len(o.order)
}

// GeneralPurpose is the profile used when a product names no occasion.
func GeneralPurpose() OccasionProfile {
	return OccasionProfile{
		ID:                 GeneralPurposeID,
		Name:               "Everyday",
		EmotionalFramework: "Year-round versatility: a dependable everyday choice that works for self-purchase and for gifting in any season.",
		EmotionalBenefits:  []string{"versatile", "dependable", "everyday"},
		GiftContext:        "Bought for everyday use, or as a practical gift with no specific date attached.",
		EmotionalTriggers: []string{
			"Upgrade your everyday routine with {product}",
			"The dependable choice you will reach for all year",
			"Made for real life, every single day",
		},
		ToneAdaptations: map[string]string{
			"professional": "A reliable everyday tool engineered for consistent results.",
			"casual":       "The easy everyday upgrade you will wonder how you lived without.",
			"luxury":       "Refined everyday quality, crafted to be enjoyed for years.",
			"playful":      "Makes every ordinary day a little more fun.",
			"minimal":      "Everyday essential. Nothing more.",
			"bold":         "Raise the bar for every single day.",
		},
		TitlePattern:      "{brand} {product} - Versatile Everyday Essential for Home and Gifting",
		ContentThemeHints: "real homes across the seasons, natural daylight, everyday use by different people",
		BulletStarters:    []string{"EVERYDAY ESSENTIAL", "BUILT TO LAST", "EASY TO USE", "VERSATILE DESIGN", "GREAT GIFT IDEA"},
		DescriptionHook:   "Some products earn a permanent place in your routine.",
	}
}

// CustomOccasion synthesizes a profile for an occasion the catalog does not know.
func CustomOccasion(occasion string) OccasionProfile {
	name := strings.TrimSpace(occasion)
	upper := strings.ToUpper(name)
	return OccasionProfile{
		ID:                 name,
		Name:               name,
		EmotionalFramework: fmt.Sprintf("Celebration, joy and togetherness around %s: make the moment feel special and worth remembering.", name),
		PrimaryKeywords:    []string{name, name + " gift", "perfect for " + name},
		EmotionalBenefits:  []string{"memorable", "celebratory", "thoughtful"},
		GiftContext:        fmt.Sprintf("A thoughtful gift chosen for %s.", name),
		EmotionalTriggers: []string{
			"Make {occasion} unforgettable with {product}",
			"The perfect way to celebrate {occasion}",
			"A {occasion} gift they will keep using",
		},
		TitlePattern:      fmt.Sprintf("emphasize %s relevance", name),
		ContentThemeHints: fmt.Sprintf("celebratory %s setting, festive details, people enjoying the moment together", name),
		BulletStarters: []string{
			upper + " READY",
			"CELEBRATION ESSENTIAL",
			"THOUGHTFUL GIFT",
			"MADE TO BE ENJOYED",
			"EASY TO GIVE",
		},
		DescriptionHook: fmt.Sprintf("%s is a moment worth celebrating properly.", name),
		Custom:          true,
	}
}

func (o *Occasions) IDs() []string {
	return slices.Clone(o.order)
}
