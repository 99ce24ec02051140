package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the declarative crew definition: a fixed, linearly-ordered
// sequence of stages loaded once at process start.
type Config struct {
	Crew   string  `yaml:"crew"`
	Stages []Stage `yaml:"stages"`
}

// Stage is one ordered step of the pipeline. A stage may depend on the
// outputs of earlier stages, which are injected into its prompt as context.
type Stage struct {
	Name      string   `yaml:"name"`
	Role      string   `yaml:"role"`
	Goal      string   `yaml:"goal"`
	Backstory string   `yaml:"backstory"`
	Prompt    string   `yaml:"prompt"`
	DependsOn []string `yaml:"depends_on"`
	Output    *Schema  `yaml:"output"`
}

// Schema describes the structured output expected from a stage. It is a
// hint appended to the prompt, not a hard validation step.
type Schema struct {
	Fields []Field `yaml:"fields"`
}

// Field is one property of a stage's structured output.
type Field struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Parse parses YAML content into a validated pipeline Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads a pipeline definition from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}
	return Parse(data)
}

func (c *Config) validate() error {
	if len(c.Stages) == 0 {
		return fmt.Errorf("pipeline has no stages")
	}

	seen := make(map[string]bool, len(c.Stages))
	for i, stage := range c.Stages {
		if stage.Name == "" {
			return fmt.Errorf("stage %d has no name", i)
		}
		if seen[stage.Name] {
			return fmt.Errorf("duplicate stage name %q", stage.Name)
		}
		if stage.Prompt == "" {
			return fmt.Errorf("stage %q has no prompt", stage.Name)
		}
		// Stages run in order, so dependencies must point at earlier stages.
		for _, dep := range stage.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("stage %q depends on %q which is not an earlier stage", stage.Name, dep)
			}
		}
		seen[stage.Name] = true
	}
	return nil
}
