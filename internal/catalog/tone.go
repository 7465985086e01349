package catalog

import (
	"fmt"
	"slices"
)

type Tones struct {
	byID  map[string]ToneProfile
	order []string
}

func NewTones(profiles []ToneProfile) (*Tones, error) {
	t := &Tones{byID: make(map[string]ToneProfile, len(profiles))}
	for _, p := range profiles {
		id := NormalizeID(p.ID)
		if id == "" {
			return nil, fmt.Errorf("tone %q: empty id", p.ID)
		}
		if _, dup := t.byID[id]; dup {
			return nil, fmt.Errorf("tone %q: duplicate id", p.ID)
		}
		if len(p.RequiredPhrases[DefaultPhraseKey]) == 0 {
			return nil, fmt.Errorf("tone %q: required_phrases.%s is empty", p.ID, DefaultPhraseKey)
		}
		p.ID = id
		t.byID[id] = p.clone()
		t.order = append(t.order, id)
	}
	return t, nil
}

// Lookup reports false for unknown tones; callers choose their own default.
func (t *Tones) Lookup(id string) (ToneProfile, bool) {
	if t == nil {
		return ToneProfile{}, false
	}
	p, ok := t.byID[NormalizeID(id)]
	if !ok {
		return ToneProfile{}, false
	}
	return p.clone(), true
}

func (t *Tones) All() []ToneProfile {
	out := make([]ToneProfile, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id].clone())
	}
	return out
}

func (t *Tones) IDs() []string {
	return slices.Clone(t.order)
}
