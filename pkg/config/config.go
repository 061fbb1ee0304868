package config

import (
	"fmt"
	"io"
	"os"

	"github.com/osmcode/mpoly/pkg/buffer"
	"github.com/osmcode/mpoly/pkg/filter"
	"gopkg.in/yaml.v3"
)

// FilterRule is one keyed tag-matcher rule (spec.md §4.4): a tag matches
// the rule iff key matches Key (as a regexp when KeyPattern is set,
// otherwise exact) and value matches Value the same way, XORed with
// Invert. An empty Key or Value matches any string.
type FilterRule struct {
	Key          string `yaml:"key"`
	KeyPattern   bool   `yaml:"key_pattern"`
	Value        string `yaml:"value"`
	ValuePattern bool   `yaml:"value_pattern"`
	Invert       bool   `yaml:"invert"`
}

func (r FilterRule) buildMatcher() (filter.TagMatcher, error) {
	keyMatcher, err := stringMatcher(r.Key, r.KeyPattern)
	if err != nil {
		return nil, fmt.Errorf("config: filter rule key %q: %w", r.Key, err)
	}
	valueMatcher, err := stringMatcher(r.Value, r.ValuePattern)
	if err != nil {
		return nil, fmt.Errorf("config: filter rule value %q: %w", r.Value, err)
	}
	return filter.Keyed(keyMatcher, valueMatcher, r.Invert), nil
}

func stringMatcher(s string, pattern bool) (filter.StringMatcher, error) {
	if s == "" {
		return filter.AnyString(), nil
	}
	if pattern {
		return filter.Pattern(s)
	}
	return filter.Exact(s), nil
}

// Config is the YAML-loadable configuration surface for a
// MultipolygonManager.
type Config struct {
	FlushThreshold  uint64         `yaml:"flush_threshold"`
	Filters         []FilterRule   `yaml:"filters"`
	AssemblerConfig map[string]any `yaml:"assembler_config"`
}

// Load decodes a Config from r.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// LoadFile reads and decodes a Config from a YAML file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Threshold returns the configured CallbackBuffer flush threshold, or
// buffer.DefaultThreshold if unset.
func (c *Config) Threshold() uint64 {
	if c == nil || c.FlushThreshold == 0 {
		return buffer.DefaultThreshold
	}
	return c.FlushThreshold
}

// BuildFilter folds the configured rules into one TagMatcher, ORed
// together. An empty rule set returns filter.AlwaysTrue, matching
// spec.md §6's stated default.
func (c *Config) BuildFilter() (filter.TagMatcher, error) {
	if c == nil || len(c.Filters) == 0 {
		return filter.AlwaysTrue(), nil
	}
	matchers := make([]filter.TagMatcher, 0, len(c.Filters))
	for i, rule := range c.Filters {
		m, err := rule.buildMatcher()
		if err != nil {
			return nil, fmt.Errorf("config: rule %d: %w", i, err)
		}
		matchers = append(matchers, m)
	}
	return filter.Or(matchers...), nil
}
