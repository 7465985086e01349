package listing

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Product struct {
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Brand       string   `json:"brand" yaml:"brand" validate:"required"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Features    []string `json:"features,omitempty" yaml:"features,omitempty" validate:"dive,required"`
	Price       string   `json:"price,omitempty" yaml:"price,omitempty"`
	Marketplace string   `json:"marketplace,omitempty" yaml:"marketplace,omitempty"`
	Locale      string   `json:"locale" yaml:"locale" validate:"required"`
	BrandTone   string   `json:"brand_tone,omitempty" yaml:"brand_tone,omitempty"`
	Occasion    string   `json:"occasion,omitempty" yaml:"occasion,omitempty"`
	SourcePath  string   `json:"-" yaml:"-"`
	Warnings    []string `json:"-" yaml:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// MissingFields lists the json names of required fields that are empty.
func (p Product) MissingFields() []string {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, strings.ToLower(fe.Field()))
	}
	return out
}

func (p Product) Validate() error {
	missing := p.MissingFields()
	if len(missing) == 0 {
		return nil
	}
	return errors.New("missing " + strings.Join(missing, ", "))
}
