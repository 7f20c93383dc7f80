package scripts

import (
	"os"

	"gopkg.in/yaml.v3"
)

// workflow models the subset of a CI workflow file the analyzer reads: the
// run blocks of every job step.
type workflow struct {
	Jobs map[string]struct {
		Steps []struct {
			Run string `yaml:"run"`
		} `yaml:"steps"`
	} `yaml:"jobs"`
}

// WorkflowRunBlocks reads a GitHub Actions workflow file and returns the
// script text of every run step.
func WorkflowRunBlocks(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wf workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, err
	}
	var blocks []string
	for _, job := range wf.Jobs {
		for _, step := range job.Steps {
			if step.Run != "" {
				blocks = append(blocks, step.Run)
			}
		}
	}
	return blocks, nil
}
