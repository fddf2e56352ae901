// pkg/registry/schema.go
package registry

// AgentRegistry describes the analysis agents a deployment exposes.
type AgentRegistry struct {
	Version     string  `yaml:"version" json:"version"`
	LastUpdated string  `yaml:"lastUpdated" json:"lastUpdated"`
	Agents      []Agent `yaml:"agents" json:"agents"`
}

type Agent struct {
	ID          string   `yaml:"id" json:"id"`
	DisplayName string   `yaml:"displayName" json:"displayName"`
	Description string   `yaml:"description" json:"description"`
	TaskType    string   `yaml:"taskType" json:"taskType"`
	Stage       string   `yaml:"stage" json:"stage"`
	LLMBacked   bool     `yaml:"llmBacked" json:"llmBacked"`
	OutputKeys  []string `yaml:"outputKeys" json:"outputKeys"`
	Timeout     string   `yaml:"timeout" json:"timeout,omitempty"`
	Retries     int      `yaml:"retries" json:"retries"`
	Tags        []string `yaml:"tags" json:"tags,omitempty"`
}
