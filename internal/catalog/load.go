package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	OccasionsFile = "occasions.yaml"
	TonesFile     = "tones.yaml"
	LocalesFile   = "locales.yaml"
)

//go:embed defaults/*.yaml
var defaultFiles embed.FS

var validate = validator.New(validator.WithRequiredStructEnabled())

// Catalog bundles the three registries. It is read-only once loaded and safe
// to share between goroutines.
type Catalog struct {
	Version      *semver.Version
	FileVersions map[string]string
	Occasions    *Occasions
	Tones        *Tones
	Locales      *Locales
}

type occasionFile struct {
	Version   string            `yaml:"version" validate:"required"`
	Occasions []OccasionProfile `yaml:"occasions" validate:"required,min=1,dive"`
}

type toneFile struct {
	Version string        `yaml:"version" validate:"required"`
	Tones   []ToneProfile `yaml:"tones" validate:"required,min=1,dive"`
}

type localeFile struct {
	Version string          `yaml:"version" validate:"required"`
	Locales []LocaleProfile `yaml:"locales" validate:"required,min=1,dive"`
}

func RequiredFiles() []string {
	return []string{OccasionsFile, TonesFile, LocalesFile}
}

// Default loads the catalogs compiled into the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(defaultFiles, "defaults")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir reads catalog files from dir. Files missing from dir fall back to
// the embedded defaults.
func LoadDir(dir string) (*Catalog, error) {
	return Load(overlayFS{primary: os.DirFS(dir)})
}

func Load(fsys fs.FS) (*Catalog, error) {
	var occ occasionFile
	var tones toneFile
	var locales localeFile
	versions := map[string]string{}
	if err := decodeFile(fsys, OccasionsFile, &occ, &occ.Version, versions); err != nil {
		return nil, err
	}
	if err := decodeFile(fsys, TonesFile, &tones, &tones.Version, versions); err != nil {
		return nil, err
	}
	if err := decodeFile(fsys, LocalesFile, &locales, &locales.Version, versions); err != nil {
		return nil, err
	}

	cat := &Catalog{FileVersions: versions}
	var err error
	if cat.Occasions, err = NewOccasions(occ.Occasions); err != nil {
		return nil, fmt.Errorf("%s: %w", OccasionsFile, err)
	}
	if cat.Tones, err = NewTones(tones.Tones); err != nil {
		return nil, fmt.Errorf("%s: %w", TonesFile, err)
	}
	if cat.Locales, err = NewLocales(locales.Locales); err != nil {
		return nil, fmt.Errorf("%s: %w", LocalesFile, err)
	}
	for _, name := range RequiredFiles() {
		v, _ := semver.NewVersion(versions[name])
		if cat.Version == nil || v.GreaterThan(cat.Version) {
			cat.Version = v
		}
	}
	return cat, nil
}

func decodeFile(fsys fs.FS, name string, out any, version *string, versions map[string]string) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	v, err := semver.NewVersion(*version)
	if err != nil {
		return fmt.Errorf("%s: version %q: %w", name, *version, err)
	}
	versions[name] = v.String()
	return nil
}

// WriteDefaults writes any missing catalog file into dir.
func WriteDefaults(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range RequiredFiles() {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		raw, err := defaultFiles.ReadFile("defaults/" + name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return err
		}
	}
	return nil
}

type overlayFS struct {
	primary fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return f, err
	}
	return defaultFiles.Open("defaults/" + name)
}
