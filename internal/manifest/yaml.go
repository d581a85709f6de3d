package manifest

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlManifest is the raw YAML structure of a manifest file:
//
//	phases:
//	  - id: intro
//	    name: Introduction
//	    skippable: false
//	    steps:
//	      - id: consent
//	        label: Consent
//	        rule: true:consent.accepted
type yamlManifest struct {
	Phases []yamlPhase `yaml:"phases"`
}

type yamlPhase struct {
	ID        string     `yaml:"id"`
	Name      string     `yaml:"name"`
	Skippable bool       `yaml:"skippable"`
	Steps     []yamlStep `yaml:"steps"`
}

type yamlStep struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Rule  string `yaml:"rule"`
}

// ParseYAML reads a YAML manifest. Each step becomes one [Row]; Line holds the
// 1-based step position since YAML nodes are not tracked.
func ParseYAML(r io.Reader) (*Manifest, error) {
	var raw yamlManifest
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("manifest contains no steps")
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	var rows []Row
	for i, p := range raw.Phases {
		if len(p.Steps) == 0 {
			return nil, fmt.Errorf("manifest phase %d (%s) has no steps", i, p.ID)
		}
		for _, s := range p.Steps {
			row := Row{
				Phase:     p.ID,
				PhaseName: p.Name,
				Skippable: p.Skippable,
				Step:      s.ID,
				Label:     s.Label,
				Rule:      s.Rule,
				Line:      len(rows) + 1,
			}
			if err := row.compile(); err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("manifest contains no steps")
	}
	return &Manifest{Rows: rows}, nil
}
