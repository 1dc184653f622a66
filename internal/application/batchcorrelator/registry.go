// Package batchcorrelator implements the external batch correlator (spec
// §4.4): an in-memory registry mapping outbound scraper batches to the
// prompt ids/texts that make them up, an outbound trigger client, and the
// webhook intake that reconciles asynchronous results back to prompts.
package batchcorrelator

import (
	"sync"
	"time"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// Registry is the process-wide batch correlation table. A single mutex
// guards all access; expired entries are dropped lazily whenever the
// registry is used, and also by the exported Reap, which the scheduler runs
// periodically (spec §4.4).
type Registry struct {
	mu      sync.Mutex
	batches map[string]*entry
	ttl     time.Duration
}

type entry struct {
	info      *pkgmodels.BatchInfo
	expiresAt time.Time
}

var (
	singleton     *Registry
	singletonOnce sync.Once
)

// Instance returns the process-wide registry, constructing it on first use
// with double-checked initialisation (spec §4.4 "Concurrency").
func Instance(ttl time.Duration) *Registry {
	singletonOnce.Do(func() {
		singleton = NewRegistry(ttl)
	})
	return singleton
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{batches: make(map[string]*entry), ttl: ttl}
}

// Register stores the forward (prompt_id -> text) map and builds the
// reverse lookup used by webhook dispatch in O(1).
func (r *Registry) Register(batchID string, promptTexts map[pkgmodels.PromptID]string, userID pkgmodels.UserID) *pkgmodels.BatchInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()

	reverse := make(map[string]pkgmodels.PromptID, len(promptTexts))
	for id, text := range promptTexts {
		reverse[text] = id
	}

	info := &pkgmodels.BatchInfo{
		BatchID:        batchID,
		UserID:         userID,
		PromptIDToText: promptTexts,
		TextToPromptID: reverse,
		Status:         pkgmodels.BatchStatusPending,
		CreatedAt:      time.Now(),
	}
	r.batches[batchID] = &entry{info: info, expiresAt: time.Now().Add(r.ttl)}
	return info
}

// Get returns a copy of the batch's current state, or nil if unknown/expired.
func (r *Registry) Get(batchID string) *pkgmodels.BatchInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()

	e, ok := r.batches[batchID]
	if !ok {
		return nil
	}
	cp := *e.info
	return &cp
}

// LookupPromptID resolves a batch-scoped prompt text to its prompt id.
func (r *Registry) LookupPromptID(batchID, promptText string) (pkgmodels.PromptID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()

	e, ok := r.batches[batchID]
	if !ok {
		return 0, false
	}
	id, ok := e.info.TextToPromptID[promptText]
	return id, ok
}

// AddResult appends a successfully correlated item.
func (r *Registry) AddResult(batchID string, result pkgmodels.ParsedResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()

	e, ok := r.batches[batchID]
	if !ok {
		return
	}
	e.info.Results = append(e.info.Results, result)
}

// AddError records an item that could not be correlated to a prompt; it
// does not fail the batch (spec §4.4).
func (r *Registry) AddError(batchID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()

	e, ok := r.batches[batchID]
	if !ok {
		return
	}
	e.info.Errors = append(e.info.Errors, message)
}

// Complete marks the batch status and returns its final snapshot. Status is
// completed if no errors were recorded, partial otherwise.
func (r *Registry) Complete(batchID string) *pkgmodels.BatchInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()

	e, ok := r.batches[batchID]
	if !ok {
		return nil
	}
	if len(e.info.Errors) == 0 {
		e.info.Status = pkgmodels.BatchStatusCompleted
	} else {
		e.info.Status = pkgmodels.BatchStatusPartial
	}
	cp := *e.info
	return &cp
}

// Reap drops expired entries; exposed so a periodic sweep can run it even
// when the registry otherwise sits idle between webhook calls.
func (r *Registry) Reap() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked()
}

// reapLocked drops expired entries. Must be called with mu held.
func (r *Registry) reapLocked() {
	now := time.Now()
	for id, e := range r.batches {
		if now.After(e.expiresAt) {
			delete(r.batches, id)
		}
	}
}
