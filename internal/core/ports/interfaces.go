package ports

import (
	"context"

	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
)

// HistoryRepository abstracts the persistent run archive (DuckDB). The
// in-memory registry stays authoritative; history writes are best-effort.
type HistoryRepository interface {
	SaveGeneration(ctx context.Context, job domain.Job) error
	GetGeneration(ctx context.Context, id domain.JobID) (domain.Job, error)
	ListGenerations(ctx context.Context) ([]domain.Job, error)
}

// ProviderFactory builds one language-model client per pipeline run. Clients
// are not shared across concurrent jobs unless proven thread-safe.
type ProviderFactory func() (domain.LLMProvider, error)
