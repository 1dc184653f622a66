package batchcorrelator

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/config"
	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// Service orchestrates batch registration, triggering, and webhook intake
// (spec §4.4).
type Service struct {
	registry   *Registry
	client     *Client
	batchRepo  repository.BatchRepository
	promptRepo repository.PromptRepository
	enricher   *CitationEnricher
	promptsDB  bun.IDB
	evalsDB    bun.IDB
	cfg        config.BatchCorrelatorConfig
}

func NewService(client *Client, batchRepo repository.BatchRepository, promptRepo repository.PromptRepository, enricher *CitationEnricher, promptsDB, evalsDB bun.IDB, cfg config.BatchCorrelatorConfig) *Service {
	return &Service{
		registry:   Instance(cfg.RegistryTTL),
		client:     client,
		batchRepo:  batchRepo,
		promptRepo: promptRepo,
		enricher:   enricher,
		promptsDB:  promptsDB,
		evalsDB:    evalsDB,
		cfg:        cfg,
	}
}

// TriggerBatch resolves prompt texts, registers the batch, and fires the
// outbound request; failures leave the batch row marked failed without
// retry (spec §7).
func (s *Service) TriggerBatch(ctx context.Context, batchID string, promptIDs []pkgmodels.PromptID, userID pkgmodels.UserID, country string, webSearch, requireSources bool) error {
	if len(promptIDs) == 0 {
		return pkgmodels.ErrEmptyPromptList
	}
	if len(promptIDs) > s.cfg.MaxBatchPrompt {
		promptIDs = promptIDs[:s.cfg.MaxBatchPrompt]
	}

	prompts, err := s.promptRepo.GetByIDs(ctx, s.promptsDB, promptIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve prompts: %w", err)
	}

	promptTexts := make(map[pkgmodels.PromptID]string, len(prompts))
	items := make([]TriggerItem, 0, len(prompts))
	for _, p := range prompts {
		promptTexts[p.ID] = p.Text
		if country == "" {
			country = s.cfg.DefaultCountry
		}
		items = append(items, TriggerItem{
			Prompt:         p.Text,
			Country:        country,
			WebSearch:      webSearch,
			RequireSources: requireSources,
		})
	}

	batch := &pkgmodels.BrightDataBatch{
		BatchID:   batchID,
		UserID:    userID,
		PromptIDs: promptIDs,
		Status:    pkgmodels.BatchStatusPending,
	}
	if err := s.batchRepo.Create(ctx, s.evalsDB, batch); err != nil {
		return fmt.Errorf("failed to persist batch: %w", err)
	}
	s.registry.Register(batchID, promptTexts, userID)

	webhookURL := fmt.Sprintf("%s/brightdata/webhook/%s", s.cfg.WebhookBaseURL, batchID)
	if err := s.client.Trigger(ctx, batchID, items, webhookURL, s.cfg.WebhookSecret); err != nil {
		now := time.Now()
		_ = s.batchRepo.UpdateStatus(ctx, s.evalsDB, batchID, pkgmodels.BatchStatusFailed, &now)
		return err
	}
	return nil
}

// WebhookItem is one element of the scraper's asynchronous result payload.
type WebhookItem struct {
	Prompt     string             `json:"prompt"`
	AnswerText string             `json:"answer_text"`
	Citations  []WebhookCitation  `json:"citations"`
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
}

// WebhookCitation carries the provider's cited flag; only entries with
// Cited=true survive into the ParsedResult (spec §4.4).
type WebhookCitation struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Domain string `json:"domain,omitempty"`
	Cited  bool   `json:"cited"`
}

// WebhookResult summarizes intake outcome for the HTTP response.
type WebhookResult struct {
	Processed int
	Failed    int
	Status    pkgmodels.BatchStatus
}

// Intake correlates each webhook item back to its prompt id by text lookup
// within the batch, filters citations by the cited flag, and determines the
// final batch status (spec §4.4 "Webhook intake").
func (s *Service) Intake(ctx context.Context, batchID string, items []WebhookItem) (*WebhookResult, error) {
	info := s.registry.Get(batchID)
	if info == nil {
		return nil, pkgmodels.ErrBatchNotFound
	}

	for _, item := range items {
		promptID, ok := s.registry.LookupPromptID(batchID, item.Prompt)
		if !ok {
			s.registry.AddError(batchID, fmt.Sprintf("no matching prompt for text %q", item.Prompt))
			continue
		}

		citations := make([]pkgmodels.Citation, 0, len(item.Citations))
		for _, c := range item.Citations {
			if !c.Cited {
				continue
			}
			citation := pkgmodels.Citation{URL: c.URL, Title: c.Title, Domain: c.Domain}
			if s.enricher != nil && (citation.Title == "" || citation.Domain == "") {
				s.enricher.Enrich(ctx, &citation)
			}
			citations = append(citations, citation)
		}

		s.registry.AddResult(batchID, pkgmodels.ParsedResult{
			PromptID:   promptID,
			AnswerText: item.AnswerText,
			Citations:  citations,
			Model:      item.Model,
			Timestamp:  item.Timestamp,
		})
	}

	final := s.registry.Complete(batchID)
	now := time.Now()
	if err := s.batchRepo.UpdateStatus(ctx, s.evalsDB, batchID, final.Status, &now); err != nil {
		return nil, fmt.Errorf("failed to update batch status: %w", err)
	}

	return &WebhookResult{
		Processed: len(final.Results),
		Failed:    len(final.Errors),
		Status:    final.Status,
	}, nil
}

// ParsedResults returns the correlated results for a batch, used by
// promptingest to feed answers back as evaluations.
func (s *Service) ParsedResults(batchID string) []pkgmodels.ParsedResult {
	info := s.registry.Get(batchID)
	if info == nil {
		return nil
	}
	return info.Results
}
