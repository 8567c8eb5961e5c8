package config

import (
	"slices"
	"strconv"

	"github.com/cppla/htmlsanitizer/sanitizer"
)

// SanitizerConfig is the process-wide sanitization policy used by the
// template filters. It is read once at startup and never mutated afterwards;
// consumers take a copy through Policy.
type SanitizerConfig struct {
	AllowedTags       []string
	AllowedAttributes []string
	AllowedStyles     []string
	// StripByDefault is the strip flag used when a template call does not give one.
	StripByDefault bool
	// Engine selects the cleaner: "bleach" (default) or "bluemonday".
	Engine string
}

// Policy returns the configured allow-lists as an escaping policy.
func (s SanitizerConfig) Policy() sanitizer.Policy {
	return sanitizer.NewPolicy(
		sanitizer.WithTags(s.AllowedTags...),
		sanitizer.WithAttributes(s.AllowedAttributes...),
		sanitizer.WithStyles(s.AllowedStyles...),
	)
}

// Cleaner returns the cleaner selected by Engine.
func (s SanitizerConfig) Cleaner() (sanitizer.Cleaner, error) {
	return sanitizer.NewCleaner(s.Engine)
}

// Clone returns a deep copy so callers cannot alias the cached lists.
func (s SanitizerConfig) Clone() SanitizerConfig {
	s.AllowedTags = slices.Clone(s.AllowedTags)
	s.AllowedAttributes = slices.Clone(s.AllowedAttributes)
	s.AllowedStyles = slices.Clone(s.AllowedStyles)
	return s
}

func loadSanitizerSection(m map[string]any, out *SanitizerConfig) {
	if list := getStringSlice(m, "AllowedTags"); len(list) > 0 {
		out.AllowedTags = list
	}
	if list := getStringSlice(m, "AllowedAttributes"); len(list) > 0 {
		out.AllowedAttributes = list
	}
	if list := getStringSlice(m, "AllowedStyles"); len(list) > 0 {
		out.AllowedStyles = list
	}
	out.StripByDefault = getBool(m, "StripByDefault")
	if v := getString(m, "Engine"); v != "" {
		out.Engine = v
	}
}

func applySanitizerDefaults(s *SanitizerConfig) {
	if s.AllowedTags == nil {
		s.AllowedTags = []string{}
	}
	if s.AllowedAttributes == nil {
		s.AllowedAttributes = []string{}
	}
	if s.AllowedStyles == nil {
		s.AllowedStyles = []string{}
	}
	if s.Engine == "" {
		s.Engine = sanitizer.EngineBleach
	}
}

func applySanitizerEnvOverrides(s *SanitizerConfig) {
	if v := getEnv("SANITIZER_ALLOWED_TAGS", ""); v != "" {
		s.AllowedTags = readListEnv("SANITIZER_ALLOWED_TAGS", s.AllowedTags)
	}
	if v := getEnv("SANITIZER_ALLOWED_ATTRIBUTES", ""); v != "" {
		s.AllowedAttributes = readListEnv("SANITIZER_ALLOWED_ATTRIBUTES", s.AllowedAttributes)
	}
	if v := getEnv("SANITIZER_ALLOWED_STYLES", ""); v != "" {
		s.AllowedStyles = readListEnv("SANITIZER_ALLOWED_STYLES", s.AllowedStyles)
	}
	if v := getEnv("SANITIZER_STRIP_BY_DEFAULT", ""); v != "" {
		b, err := strconv.ParseBool(v)
		s.StripByDefault = err == nil && b
	}
	if v := getEnv("SANITIZER_ENGINE", ""); v != "" {
		s.Engine = v
	}
}
