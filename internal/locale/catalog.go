// Package locale loads the spoken strings of askhub per language.
package locale

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

//go:embed strings.yaml
var embeddedStrings []byte

// Key names one spoken string.
type Key string

const (
	Okay            Key = "OKAY"
	HelpMessage     Key = "HELP_MESSAGE"
	StopMessage     Key = "STOP_MESSAGE"
	FallbackMessage Key = "FALLBACK_MESSAGE"

	Error400     Key = "ERROR_400"
	Error401     Key = "ERROR_401"
	Error404     Key = "ERROR_404"
	ErrorNetwork Key = "ERROR_NETWORK"
	ErrorGeneral Key = "ERROR_GENERAL"
	ErrorParse   Key = "ERROR_PARSE"
	ErrorConfig  Key = "ERROR_CONFIG"

	ErrorAcoustic        Key = "ERROR_ACOUSTIC"
	ErrorMissingData     Key = "ERROR_MISSING_DATA"
	ErrorMissingSlots    Key = "ERROR_MISSING_SLOTS"
	ErrorMissingScenario Key = "ERROR_MISSING_SCENARIO"
	ErrorInvalidValue    Key = "ERROR_INVALID_VALUE"
	ErrorNoNumber        Key = "ERROR_NO_NUMBER"
	ErrorNoString        Key = "ERROR_NO_STRING"
	ErrorNoSelection     Key = "ERROR_NO_SELECTION"
	ErrorNoDuration      Key = "ERROR_NO_DURATION"
	ErrorInvalidDuration Key = "ERROR_INVALID_DURATION"
	ErrorNoDateTime      Key = "ERROR_NO_DATETIME"
	Selected             Key = "SELECTED"
	DeviceControlSuccess Key = "DEVICE_CONTROL_SUCCESS"
	SetValueSuccess      Key = "SET_VALUE_SUCCESS"
	ScenarioActivated    Key = "SCENARIO_ACTIVATED"
)

// Catalog holds the strings of every language, keyed by locale
// ("en", "fr", "fr-CA").
type Catalog struct {
	langs    map[string]map[string]string
	fallback string
}

// Default returns the catalog compiled into the binary.
func Default(fallback string) (*Catalog, error) {
	return Parse(embeddedStrings, fallback)
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path, fallback string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locale file: %w", err)
	}
	return Parse(data, fallback)
}

// Parse decodes a YAML catalog.
func Parse(data []byte, fallback string) (*Catalog, error) {
	var langs map[string]map[string]string
	if err := yaml.Unmarshal(data, &langs); err != nil {
		return nil, fmt.Errorf("failed to parse locale file: %w", err)
	}
	if fallback == "" {
		fallback = "en"
	}
	if _, ok := langs[fallback]; !ok {
		return nil, fmt.Errorf("locale file has no %q section", fallback)
	}
	return &Catalog{langs: langs, fallback: fallback}, nil
}

// For resolves the strings of locale. Lookups fall through the exact
// locale, its base language, then the fallback language.
func (c *Catalog) For(locale string) Strings {
	out := make(Strings)
	merge := func(lang string) {
		for k, v := range c.langs[lang] {
			out[Key(k)] = v
		}
	}

	merge(c.fallback)
	base, _, _ := strings.Cut(locale, "-")
	if base != "" && base != c.fallback {
		merge(base)
	}
	if locale != base {
		merge(locale)
	}
	return out
}

// Strings is the resolved string table of one locale.
type Strings map[Key]string

// Get returns the string for key, or fallback when it is missing.
func (s Strings) Get(key Key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Format returns the string for key with {name} placeholders replaced.
func (s Strings) Format(key Key, fallback string, vars map[string]string) string {
	tmpl := s.Get(key, fallback)
	if len(vars) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(tmpl))
}
