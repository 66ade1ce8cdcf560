package stepflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WorkflowDefinition is the authoring-time form of a workflow: a graph
// of typed nodes and edges plus variable defaults. Definitions are
// immutable once compiled; a changed workflow gets a new version.
type WorkflowDefinition struct {
	// ID identifies the workflow across versions.
	ID string `yaml:"id" json:"id"`

	// Name is the human-readable title.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Version increases monotonically per workflow id.
	Version int `yaml:"version" json:"version"`

	// Start optionally names the entry node. When empty, the entry is
	// the unique node with no incoming edges.
	Start string `yaml:"start,omitempty" json:"start,omitempty"`

	// Variables maps variable names to default values.
	Variables map[string]any `yaml:"variables,omitempty" json:"variables,omitempty"`

	// Nodes in authoring order.
	Nodes []NodeDefinition `yaml:"nodes" json:"nodes"`

	// Edges in authoring order.
	Edges []EdgeDefinition `yaml:"edges,omitempty" json:"edges,omitempty"`
}

// NodeDefinition declares one typed node.
type NodeDefinition struct {
	// ID is unique within the workflow.
	ID string `yaml:"id" json:"id"`

	// Type is a registered node type tag (Prompt, Output, LLM, ...).
	Type string `yaml:"type" json:"type"`

	// Config holds type-specific fields, validated at compile time.
	Config map[string]any `yaml:"config,omitempty" json:"config,omitempty"`

	// Next is shorthand for an unlabeled edge to the named node.
	Next string `yaml:"next,omitempty" json:"next,omitempty"`
}

// EdgeDefinition connects two nodes, optionally under a branch label.
type EdgeDefinition struct {
	ID     string `yaml:"id,omitempty" json:"id,omitempty"`
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`

	// Label selects this edge from a branch node; empty means the
	// default edge followed by linear node types.
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// edges returns the declared edges plus one synthesized unlabeled edge
// per node Next shorthand.
func (d *WorkflowDefinition) edges() []EdgeDefinition {
	out := make([]EdgeDefinition, 0, len(d.Edges)+len(d.Nodes))
	out = append(out, d.Edges...)
	for _, n := range d.Nodes {
		if n.Next != "" {
			out = append(out, EdgeDefinition{Source: n.ID, Target: n.Next})
		}
	}
	return out
}

// ParseDefinition decodes a WorkflowDefinition from YAML or JSON bytes.
func ParseDefinition(data []byte) (*WorkflowDefinition, error) {
	var def WorkflowDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse workflow definition: %w", err)
	}
	return &def, nil
}

// LoadDefinition reads a workflow definition file (YAML or JSON).
func LoadDefinition(path string) (*WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow definition: %w", err)
	}
	return ParseDefinition(data)
}
