package services

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
)

// Agent role and task type names as they appear in config/agents.yaml and
// config/tasks.yaml.
const (
	RoleWriter         = "writer"
	RoleReviewer       = "reviewer"
	RoleFormatter      = "formatter"
	RoleImageGenerator = "image_generator"

	TaskWriteDraft     = "write_draft"
	TaskReviewDraft    = "review_draft"
	TaskFormatPost     = "format_post"
	TaskGenerateImages = "generate_images"
)

// remoteCallRetries is the bounded retry budget applied to nodes that block
// on remote inference, the most transient-failure-prone part of a run.
// Configuration-class errors never reach the executor, so retries only cover
// task execution.
const remoteCallRetries = 2

// SpecSource provides the declarative agent/task definitions.
type SpecSource interface {
	AgentSpecs() map[string]domain.AgentSpec
	TaskSpecs() map[string]domain.TaskSpec
}

// PipelineBuilder instantiates agents from declarative specs and wires the
// task graph for one topic. A builder is constructed per pipeline run and
// binds one shared LLM client across its agents.
type PipelineBuilder struct {
	logger   *slog.Logger
	specs    SpecSource
	llm      domain.LLMProvider
	tool     domain.ImageTool
	topic    string
	settings domain.GenerationSettings
}

func NewPipelineBuilder(
	logger *slog.Logger,
	specs SpecSource,
	llm domain.LLMProvider,
	tool domain.ImageTool,
	topic string,
	settings domain.GenerationSettings,
) *PipelineBuilder {
	return &PipelineBuilder{
		logger:   logger,
		specs:    specs,
		llm:      llm,
		tool:     tool,
		topic:    topic,
		settings: settings,
	}
}

// BuildAgent looks up the role's spec, substitutes the topic into goal and
// backstory, and binds the shared LLM client. The image_generator role also
// gets the image tool.
func (b *PipelineBuilder) BuildAgent(role string) (*domain.Agent, error) {
	spec, ok := b.specs.AgentSpecs()[role]
	if !ok {
		return nil, domain.NewConfigError("agent spec not found: %s", role)
	}

	agent := &domain.Agent{
		Role:      b.substitute(spec.Role),
		Goal:      b.substitute(spec.Goal),
		Backstory: b.substitute(spec.Backstory),
		LLM:       b.llm,
	}
	if role == RoleImageGenerator {
		agent.Tool = b.tool
	}
	return agent, nil
}

// BuildTask looks up the task spec, substitutes the topic into the
// description and attaches the upstream dependencies as context sources.
func (b *PipelineBuilder) BuildTask(taskType string, agent *domain.Agent, deps ...*domain.TaskNode) (*domain.TaskNode, error) {
	spec, ok := b.specs.TaskSpecs()[taskType]
	if !ok {
		return nil, domain.NewConfigError("task spec not found: %s", taskType)
	}

	desc := b.substitute(spec.Description)
	if b.settings.Tone != "" {
		desc += fmt.Sprintf(" Use a %s tone.", b.settings.Tone)
	}
	if b.settings.Length != "" {
		desc += fmt.Sprintf(" Target a %s length.", b.settings.Length)
	}

	return &domain.TaskNode{
		Name:           taskType,
		Description:    desc,
		ExpectedOutput: b.substitute(spec.ExpectedOutput),
		Agent:          agent,
		Deps:           deps,
		MaxRetries:     remoteCallRetries,
	}, nil
}

// BuildPipeline constructs the content-generation graph:
//
//	write_draft → review_draft → format_post
//	                          ↘ generate_images
//
// and returns the nodes topologically sorted. The image node is omitted when
// the submission disabled image generation.
func (b *PipelineBuilder) BuildPipeline() ([]*domain.TaskNode, error) {
	writer, err := b.BuildAgent(RoleWriter)
	if err != nil {
		return nil, err
	}
	reviewer, err := b.BuildAgent(RoleReviewer)
	if err != nil {
		return nil, err
	}
	formatter, err := b.BuildAgent(RoleFormatter)
	if err != nil {
		return nil, err
	}

	writeTask, err := b.BuildTask(TaskWriteDraft, writer)
	if err != nil {
		return nil, err
	}
	reviewTask, err := b.BuildTask(TaskReviewDraft, reviewer, writeTask)
	if err != nil {
		return nil, err
	}
	formatTask, err := b.BuildTask(TaskFormatPost, formatter, reviewTask)
	if err != nil {
		return nil, err
	}

	nodes := []*domain.TaskNode{writeTask, reviewTask, formatTask}

	if b.settings.GenerateImages {
		imageAgent, err := b.BuildAgent(RoleImageGenerator)
		if err != nil {
			return nil, err
		}
		imagesTask, err := b.BuildTask(TaskGenerateImages, imageAgent, reviewTask)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, imagesTask)
	}

	return topoSort(nodes)
}

var placeholderRe = regexp.MustCompile(`\{[a-z_]+\}`)

// substitute performs literal {topic} interpolation. Other placeholders are
// left verbatim but logged, since an unresolved template usually means a spec
// typo rather than intent.
func (b *PipelineBuilder) substitute(template string) string {
	out := strings.ReplaceAll(template, "{topic}", b.topic)
	if leftover := placeholderRe.FindString(out); leftover != "" {
		b.logger.Warn("unresolved placeholder left in template", "placeholder", leftover)
	}
	return out
}

// topoSort orders nodes so every dependency precedes its dependents (Kahn's
// algorithm, stable for the already-ordered fixed graph). Supports arbitrary
// DAGs so future pipelines are not limited to the 4-node chain.
func topoSort(nodes []*domain.TaskNode) ([]*domain.TaskNode, error) {
	indegree := make(map[*domain.TaskNode]int, len(nodes))
	dependents := make(map[*domain.TaskNode][]*domain.TaskNode, len(nodes))
	for _, n := range nodes {
		indegree[n] += 0
		for _, dep := range n.Deps {
			indegree[n]++
			dependents[dep] = append(dependents[dep], n)
		}
	}

	var ready []*domain.TaskNode
	for _, n := range nodes {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	sorted := make([]*domain.TaskNode, 0, len(nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		sorted = append(sorted, n)
		for _, dep := range dependents[n] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(sorted) != len(nodes) {
		return nil, domain.NewConfigError("task graph contains a cycle")
	}
	return sorted, nil
}
