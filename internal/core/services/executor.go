package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
)

// ProgressHook is invoked after each completed task node.
type ProgressHook func(message string, progress int, summary string)

// PipelineExecutor runs an ordered task list to completion on a single
// worker goroutine. Nodes execute strictly sequentially: each task's context
// depends on its predecessors' output, so there is no intra-pipeline
// parallelism to exploit.
type PipelineExecutor struct {
	logger  *slog.Logger
	backoff time.Duration
}

func NewPipelineExecutor(logger *slog.Logger) *PipelineExecutor {
	return &PipelineExecutor{logger: logger, backoff: 2 * time.Second}
}

// Run executes every node in order, invoking hook after each one. Any node
// failure aborts the remaining nodes — a single task failure voids the whole
// run, with no partial results reported as success. Cancellation is checked
// between node boundaries.
func (e *PipelineExecutor) Run(ctx context.Context, nodes []*domain.TaskNode, hook ProgressHook) domain.RunResult {
	total := len(nodes)

	for i, node := range nodes {
		if err := ctx.Err(); err != nil {
			return domain.RunResult{Status: domain.RunStatusError, Message: fmt.Sprintf("pipeline cancelled: %v", err)}
		}

		e.logger.Info("executing task", "task", node.Name, "position", i+1, "total", total)

		out, err := e.runNode(ctx, node)
		if err != nil {
			e.logger.Error("task failed, aborting pipeline", "task", node.Name, "error", err)
			return domain.RunResult{
				Status:  domain.RunStatusError,
				Message: fmt.Sprintf("task %s failed: %v", node.Name, err),
			}
		}

		node.Output = out
		node.Done = true

		if hook != nil {
			hook(fmt.Sprintf("Completed %s", node.Name), stageProgress(i, total), summarize(out))
		}
	}

	result := domain.RunResult{
		Status:  domain.RunStatusSuccess,
		Outputs: make(map[string]string, total),
	}
	for _, node := range nodes {
		result.Outputs[node.Name] = node.Output
		if node.Name == TaskFormatPost {
			result.FormattedPost = ExtractJSON(node.Output)
		}
	}
	return result
}

// runNode executes one node, retrying transient remote failures up to the
// node's retry budget with linear backoff.
func (e *PipelineExecutor) runNode(ctx context.Context, node *domain.TaskNode) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= node.MaxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Warn("retrying task", "task", node.Name, "attempt", attempt)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * e.backoff):
			}
		}

		out, err := node.Agent.Execute(ctx, node.Description, node.Context(), node.ExpectedOutput)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// stageProgress maps a completed node index onto a percentage: never below
// 10, never above 95 before completion, strictly increasing with node index.
// The final 5% is reserved for result assembly.
func stageProgress(index, total int) int {
	if total == 0 {
		return 95
	}
	p := int(math.Round(float64(index+1) / float64(total) * 95))
	if p < 10 {
		p = 10
	}
	return p
}

// summarize trims a task output to a short progress note.
func summarize(out string) string {
	const max = 160
	if len(out) <= max {
		return out
	}
	return out[:max] + "..."
}
