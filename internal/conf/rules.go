package conf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/devricklin/automessage/internal/biz/domain"
)

// RulesFile is the YAML document holding a rule list
type RulesFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is one rule as written in YAML.
// Enabled defaults to true when omitted.
type RuleSpec struct {
	ID          string `yaml:"id,omitempty"`
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Enabled     *bool  `yaml:"enabled,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// LoadRulesSeed loads the default rule set from YAML.
// Without an explicit path the usual locations are searched; when nothing is
// found the built-in defaults are returned with an empty source path.
func LoadRulesSeed(seedPath string) (domain.RuleSet, string, error) {
	// Try multiple paths
	paths := []string{seedPath}
	if seedPath == "" {
		paths = []string{
			"configs/rules.yaml",
			"/etc/automessage/rules.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "rules.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			data, loadedPath = b, p
			break
		}
		if seedPath != "" {
			return nil, "", fmt.Errorf("failed to read rules seed: %w", err)
		}
	}

	if data == nil {
		return domain.DefaultRules(), "", nil
	}

	rules, err := DecodeRules(bytes.NewReader(data))
	if err != nil {
		return nil, loadedPath, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	if len(rules) == 0 {
		return domain.DefaultRules(), loadedPath, nil
	}
	return rules, loadedPath, nil
}

// DecodeRules reads a YAML rules document.
// Missing ids are generated and missing names get the default rule name.
func DecodeRules(r io.Reader) (domain.RuleSet, error) {
	var file RulesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return domain.RuleSet{}, nil
		}
		return nil, err
	}

	now := time.Now()
	seen := make(map[string]struct{}, len(file.Rules))
	rules := make(domain.RuleSet, 0, len(file.Rules))
	for i, entry := range file.Rules {
		rule := domain.Rule{
			ID:           entry.ID,
			Name:         entry.Name,
			Pattern:      entry.Pattern,
			IsEnabled:    entry.Enabled == nil || *entry.Enabled,
			Description:  entry.Description,
			LastModified: now,
		}
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		if rule.Name == "" {
			rule.Name = domain.DefaultRuleName
		}
		if _, dup := seen[rule.ID]; dup {
			return nil, fmt.Errorf("rule %d: duplicate id %s", i+1, rule.ID)
		}
		seen[rule.ID] = struct{}{}
		rules = append(rules, rule)
	}
	return rules, nil
}

// EncodeRules writes rules as a YAML document, keeping order
func EncodeRules(w io.Writer, rules domain.RuleSet) error {
	file := RulesFile{Rules: make([]RuleSpec, 0, len(rules))}
	for _, r := range rules {
		enabled := r.IsEnabled
		file.Rules = append(file.Rules, RuleSpec{
			ID:          r.ID,
			Name:        r.Name,
			Pattern:     r.Pattern,
			Enabled:     &enabled,
			Description: r.Description,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return err
	}
	return enc.Close()
}
