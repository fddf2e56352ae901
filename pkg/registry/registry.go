// pkg/registry/registry.go
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

func LoadRegistry(path string) (*AgentRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML registry and rejects entries without a task type or with duplicates.
func Parse(data []byte) (*AgentRegistry, error) {
	var reg AgentRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse agent registry: %w", err)
	}

	seen := make(map[string]bool, len(reg.Agents))
	for i, a := range reg.Agents {
		if a.TaskType == "" {
			return nil, fmt.Errorf("agent registry: entry %d has no taskType", i)
		}
		if seen[a.TaskType] {
			return nil, fmt.Errorf("agent registry: duplicate taskType %q", a.TaskType)
		}
		seen[a.TaskType] = true
	}
	return &reg, nil
}

func (r *AgentRegistry) Find(taskType string) (Agent, bool) {
	for _, a := range r.Agents {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Agent{}, false
}

// TaskTypes lists registered task types in file order.
func (r *AgentRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Agents))
	for _, a := range r.Agents {
		out = append(out, a.TaskType)
	}
	return out
}

// Validate applies the stricter checks used before a registry is published.
func (r *AgentRegistry) Validate() error {
	if len(r.Agents) == 0 {
		return fmt.Errorf("registry contains no agents")
	}

	ids := make(map[string]bool, len(r.Agents))
	for _, a := range r.Agents {
		if a.ID == "" {
			return fmt.Errorf("agent %s missing required field: id", a.TaskType)
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate agent id: %s", a.ID)
		}
		ids[a.ID] = true

		if a.DisplayName == "" {
			return fmt.Errorf("agent %s missing required field: displayName", a.ID)
		}
		if a.Stage == "" {
			return fmt.Errorf("agent %s missing required field: stage", a.ID)
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				return fmt.Errorf("agent %s has invalid timeout %q", a.ID, a.Timeout)
			}
		}
	}
	return nil
}

// Set updates one field of the agent with the given id.
func (r *AgentRegistry) Set(id, field, value string) error {
	for i := range r.Agents {
		if r.Agents[i].ID != id {
			continue
		}
		a := &r.Agents[i]
		switch field {
		case "displayName":
			a.DisplayName = value
		case "description":
			a.Description = value
		case "stage":
			a.Stage = value
		case "timeout":
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			a.Timeout = value
		case "retries":
			retries, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid retries value: %w", err)
			}
			a.Retries = retries
		case "llmBacked":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid llmBacked value: %w", err)
			}
			a.LLMBacked = b
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		return nil
	}
	return fmt.Errorf("agent with ID %s not found", id)
}

// Save writes the registry back as YAML, creating the directory if needed.
func (r *AgentRegistry) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
