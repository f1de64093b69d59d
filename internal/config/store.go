package config

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
)

// SpecStore loads the declarative agent and task definitions once per
// pipeline construction. Loading is fail-soft: a missing or malformed file
// yields an empty map, and callers treat a missing entry as a hard
// configuration error at the point of use.
type SpecStore struct {
	logger *slog.Logger
	dir    string
}

func NewSpecStore(logger *slog.Logger, dir string) *SpecStore {
	if dir == "" {
		dir = "config"
	}
	return &SpecStore{logger: logger, dir: dir}
}

// AgentSpecs returns the agent definitions keyed by role name.
func (s *SpecStore) AgentSpecs() map[string]domain.AgentSpec {
	specs := map[string]domain.AgentSpec{}
	if !s.loadYAML(s.dir+"/agents.yaml", &specs) {
		return map[string]domain.AgentSpec{}
	}
	return specs
}

// TaskSpecs returns the task definitions keyed by task name.
func (s *SpecStore) TaskSpecs() map[string]domain.TaskSpec {
	specs := map[string]domain.TaskSpec{}
	if !s.loadYAML(s.dir+"/tasks.yaml", &specs) {
		return map[string]domain.TaskSpec{}
	}
	return specs
}

func (s *SpecStore) loadYAML(path string, out any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("failed to read spec file", "path", path, "error", err)
		return false
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		s.logger.Error("failed to parse spec file", "path", path, "error", err)
		return false
	}
	return true
}
