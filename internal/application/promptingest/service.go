package promptingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/queue"
	"github.com/rosklyar/prompts-volume-sub000/internal/config"
	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// Service implements spec §4.5's prompt ingest pipeline: embed, dedup
// against the nearest existing prompt, enqueue, and optionally bind to a
// group. Grounded on batchcorrelator.Service for the shape of a component
// that fans a single request out across the prompt and evals stores.
type Service struct {
	embedder   EmbeddingService
	promptRepo repository.PromptRepository
	groupRepo  repository.PromptGroupRepository
	queue      *queue.Service
	promptsDB  bun.IDB
	threshold  float64
}

func NewService(
	embedder EmbeddingService,
	promptRepo repository.PromptRepository,
	groupRepo repository.PromptGroupRepository,
	queueService *queue.Service,
	promptsDB bun.IDB,
	cfg config.EmbeddingConfig,
) *Service {
	return &Service{
		embedder:   embedder,
		promptRepo: promptRepo,
		groupRepo:  groupRepo,
		queue:      queueService,
		promptsDB:  promptsDB,
		threshold:  cfg.DedupThreshold,
	}
}

// Ingest runs spec §4.5's four steps: batch-embed every text, fold each
// embedding into its nearest existing prompt when similarity clears the
// dedup threshold (else insert a new prompt), ensure a pending queue entry
// for every resulting prompt id, and optionally bind the group.
func (s *Service) Ingest(ctx context.Context, texts []string, userID pkgmodels.UserID, topicID *int64, groupID *pkgmodels.GroupID) (*pkgmodels.IngestResult, error) {
	if len(texts) == 0 {
		return nil, pkgmodels.ErrEmptyPromptList
	}

	vectors, err := s.embedder.Encode(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed prompts: %w", err)
	}

	result := &pkgmodels.IngestResult{
		PromptIDs: make([]pkgmodels.PromptID, 0, len(texts)),
		RequestID: uuid.New().String(),
	}

	for i, text := range texts {
		promptID, created, err := s.resolvePrompt(ctx, text, vectors[i], userID, topicID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve prompt %q: %w", text, err)
		}
		if created {
			result.CreatedCount++
		} else {
			result.ReusedCount++
		}
		result.PromptIDs = append(result.PromptIDs, promptID)

		if groupID != nil {
			if err := s.groupRepo.AddPrompt(ctx, s.promptsDB, *groupID, promptID); err != nil {
				return nil, fmt.Errorf("failed to bind prompt %d to group %d: %w", promptID, *groupID, err)
			}
		}
	}

	if _, err := s.queue.Enqueue(ctx, result.PromptIDs, userID, result.RequestID); err != nil {
		return nil, fmt.Errorf("failed to enqueue ingested prompts: %w", err)
	}

	return result, nil
}

// resolvePrompt implements spec §4.5 step 2: reuse the nearest existing
// prompt when its cosine similarity clears the dedup threshold (default
// ~0.995), else insert a new one.
func (s *Service) resolvePrompt(ctx context.Context, text string, embedding []float32, userID pkgmodels.UserID, topicID *int64) (pkgmodels.PromptID, bool, error) {
	match, err := s.promptRepo.FindNearest(ctx, s.promptsDB, embedding, s.threshold)
	if err != nil && !errors.Is(err, pkgmodels.ErrPromptNotFound) {
		return 0, false, err
	}
	if match != nil {
		return match.ID, false, nil
	}

	prompt := &pkgmodels.Prompt{
		Text:      text,
		Embedding: embedding,
		TopicID:   topicID,
	}
	if userID != "" {
		prompt.UserID = &userID
	}
	if err := prompt.Validate(); err != nil {
		return 0, false, err
	}
	if err := s.promptRepo.Create(ctx, s.promptsDB, prompt); err != nil {
		return 0, false, err
	}
	return prompt.ID, true, nil
}
