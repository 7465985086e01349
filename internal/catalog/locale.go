package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

var ErrUnknownLocale = errors.New("unknown locale")

type UnknownLocaleError struct {
	ID    string
	Known []string
}

func (e *UnknownLocaleError) Error() string {
	return fmt.Sprintf("unknown locale %q (known: %s)", e.ID, strings.Join(e.Known, ", "))
}

func (e *UnknownLocaleError) Is(target error) bool {
	return target == ErrUnknownLocale
}

type Locales struct {
	byID  map[string]LocaleProfile
	index map[string]string
	order []string
}

func NewLocales(profiles []LocaleProfile) (*Locales, error) {
	l := &Locales{
		byID:  make(map[string]LocaleProfile, len(profiles)),
		index: make(map[string]string, len(profiles)*3),
	}
	for _, p := range profiles {
		id := NormalizeID(p.ID)
		if id == "" {
			return nil, fmt.Errorf("locale %q: empty id", p.ID)
		}
		if _, dup := l.byID[id]; dup {
			return nil, fmt.Errorf("locale %q: duplicate id", p.ID)
		}
		for _, script := range p.ExpectedScripts {
			if _, ok := unicode.Scripts[script]; !ok {
				return nil, fmt.Errorf("locale %q: unknown script %q", p.ID, script)
			}
		}
		p.ID = id
		l.byID[id] = p.clone()
		l.order = append(l.order, id)
		l.index[id] = id
		for _, alias := range p.Aliases {
			key := NormalizeID(alias)
			if owner, ok := l.index[key]; ok && owner != id {
				return nil, fmt.Errorf("locale %q: alias %q already used by %q", p.ID, alias, owner)
			}
			l.index[key] = id
		}
	}
	return l, nil
}

// Lookup resolves an exact id, then an alias, then the base language of a
// BCP 47 tag, so "de-DE" finds "de".
func (l *Locales) Lookup(id string) (LocaleProfile, error) {
	if l != nil {
		if canonical, ok := l.index[NormalizeID(id)]; ok {
			return l.byID[canonical].clone(), nil
		}
		if tag, err := language.Parse(strings.TrimSpace(id)); err == nil {
			base, _ := tag.Base()
			if canonical, ok := l.index[base.String()]; ok {
				return l.byID[canonical].clone(), nil
			}
		}
	}
	return LocaleProfile{}, &UnknownLocaleError{ID: id, Known: l.IDs()}
}

func (l *Locales) All() []LocaleProfile {
	out := make([]LocaleProfile, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id].clone())
	}
	return out
}

func (l *Locales) IDs() []string {
	if l == nil {
		return nil
	}
	return slices.Clone(l.order)
}

// ScriptTables maps ExpectedScripts onto unicode range tables.
func (p LocaleProfile) ScriptTables() []*unicode.RangeTable {
	tables := make([]*unicode.RangeTable, 0, len(p.ExpectedScripts))
	for _, name := range p.ExpectedScripts {
		if table, ok := unicode.Scripts[name]; ok {
			tables = append(tables, table)
		}
	}
	return tables
}
