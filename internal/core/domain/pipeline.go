package domain

import (
	"context"
	"fmt"
	"strings"
)

// AgentSpec is the declarative definition of an agent role, loaded from
// config/agents.yaml. Backstory and Goal may contain a {topic} placeholder.
type AgentSpec struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

// TaskSpec is the declarative definition of a pipeline task, loaded from
// config/tasks.yaml.
type TaskSpec struct {
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
}

// ImageTool is the capability bound to the image_generator agent. Run never
// returns an error: every failure path degrades to a descriptive string that
// the pipeline treats as task output.
type ImageTool interface {
	Run(ctx context.Context, args string) string
}

// LLMProvider abstracts the language-model backend.
type LLMProvider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Agent is a runtime agent instance: a role definition bound to a language
// model and, optionally, an image-generation tool.
type Agent struct {
	Role      string
	Goal      string
	Backstory string
	LLM       LLMProvider
	Tool      ImageTool
}

// Execute runs one task for this agent. Upstream context is prepended to the
// prompt so the model sees its predecessors' output. When a tool is bound,
// the model's response is treated as tool arguments and the tool output
// becomes the task result.
func (a *Agent) Execute(ctx context.Context, description, taskContext, expectedOutput string) (string, error) {
	var b strings.Builder
	b.WriteString("You are " + a.Role + ".\n")
	if a.Goal != "" {
		b.WriteString("Your goal: " + a.Goal + "\n")
	}
	if a.Backstory != "" {
		b.WriteString("Background: " + a.Backstory + "\n")
	}
	if taskContext != "" {
		b.WriteString("\nContext from previous tasks:\n" + taskContext + "\n")
	}
	b.WriteString("\nTask: " + description + "\n")
	if expectedOutput != "" {
		b.WriteString("Expected output: " + expectedOutput + "\n")
	}
	if a.Tool != nil {
		b.WriteString("\nRespond with a single line of image tool arguments in the form " +
			"\"prompt: <description>, format: <format>\" and nothing else.\n")
	}

	out, err := a.LLM.GenerateText(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("agent %q: %w", a.Role, err)
	}

	if a.Tool != nil {
		return a.Tool.Run(ctx, strings.TrimSpace(out)), nil
	}
	return out, nil
}

// TaskNode is a runtime task instance. Nodes form a DAG via Deps; a node's
// Output slot is populated after execution and read by its dependents.
type TaskNode struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          *Agent
	Deps           []*TaskNode
	MaxRetries     int

	Output string
	Done   bool
}

// Context concatenates the outputs of this node's dependencies in order.
func (n *TaskNode) Context() string {
	var parts []string
	for _, dep := range n.Deps {
		if dep.Done {
			parts = append(parts, fmt.Sprintf("[%s]\n%s", dep.Name, dep.Output))
		}
	}
	return strings.Join(parts, "\n\n")
}

// RunStatus is the outcome of a whole pipeline run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// RunResult carries each node's raw output keyed by node name, plus the
// formatter stage's extracted payload.
type RunResult struct {
	Status        RunStatus
	Message       string
	Outputs       map[string]string
	FormattedPost map[string]any
}
