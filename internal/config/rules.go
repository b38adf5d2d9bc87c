package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/agentgate-ai/agentgate/pkg/types"
)

// rulesFile is the on-disk YAML shape of a rule set.
type rulesFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Pattern     string `yaml:"pattern"`
	AppliesTo   string `yaml:"applies_to"`
	Enabled     *bool  `yaml:"enabled,omitempty"`
	AutoApprove bool   `yaml:"auto_approve"`
}

// LoadRules reads a YAML rule set. Enabled defaults to true when omitted.
func LoadRules(path string) ([]types.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	rules := make([]types.Rule, 0, len(file.Rules))
	for _, spec := range file.Rules {
		enabled := true
		if spec.Enabled != nil {
			enabled = *spec.Enabled
		}
		rules = append(rules, types.Rule{
			ID:          spec.ID,
			Name:        spec.Name,
			Description: spec.Description,
			Pattern:     spec.Pattern,
			AppliesTo:   types.ActionKind(spec.AppliesTo),
			Enabled:     enabled,
			AutoApprove: spec.AutoApprove,
		})
	}
	return rules, nil
}

// SaveRules writes a rule set to a YAML file.
func SaveRules(rules []types.Rule, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file := rulesFile{Rules: make([]ruleSpec, 0, len(rules))}
	for _, rule := range rules {
		enabled := rule.Enabled
		file.Rules = append(file.Rules, ruleSpec{
			ID:          rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Pattern:     rule.Pattern,
			AppliesTo:   string(rule.AppliesTo),
			Enabled:     &enabled,
			AutoApprove: rule.AutoApprove,
		})
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
