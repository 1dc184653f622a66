package promptingest

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// fakeEmbedder deterministically encodes each text as a 384-dim vector keyed
// by its own content, so identical texts collide and distinct texts don't.
type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 384)
		vec[0] = float32(len(text))
		for j, r := range text {
			vec[(j+1)%384] += float32(r)
		}
		out[i] = vec
	}
	return out, nil
}

// fakePromptRepo is an in-memory stand-in for repository.PromptRepository.
// dedupText, when set, makes FindNearest return the prompt whose Text
// equals it when the embedding passed in is fakeEmbedder's encoding of
// dedupText, modeling a near-duplicate hit clearing the dedup threshold;
// any other embedding finds no match.
type fakePromptRepo struct {
	prompts   map[pkgmodels.PromptID]*pkgmodels.Prompt
	nextID    int64
	dedupText string
}

func newFakePromptRepo() *fakePromptRepo {
	return &fakePromptRepo{prompts: make(map[pkgmodels.PromptID]*pkgmodels.Prompt)}
}

func (r *fakePromptRepo) Create(ctx context.Context, db bun.IDB, prompt *pkgmodels.Prompt) error {
	r.nextID++
	prompt.ID = pkgmodels.PromptID(r.nextID)
	prompt.CreatedAt = time.Now()
	cp := *prompt
	r.prompts[prompt.ID] = &cp
	return nil
}

func (r *fakePromptRepo) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.PromptID) (*pkgmodels.Prompt, error) {
	p, ok := r.prompts[id]
	if !ok {
		return nil, pkgmodels.ErrPromptNotFound
	}
	return p, nil
}

func (r *fakePromptRepo) GetByIDs(ctx context.Context, db bun.IDB, ids []pkgmodels.PromptID) ([]*pkgmodels.Prompt, error) {
	var out []*pkgmodels.Prompt
	for _, id := range ids {
		if p, ok := r.prompts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePromptRepo) FindNearest(ctx context.Context, db bun.IDB, embedding []float32, threshold float64) (*pkgmodels.Prompt, error) {
	if r.dedupText == "" {
		return nil, pkgmodels.ErrPromptNotFound
	}
	want, _ := (&fakeEmbedder{}).Encode(ctx, []string{r.dedupText})
	if !slices.Equal(embedding, want[0]) {
		return nil, pkgmodels.ErrPromptNotFound
	}
	for _, p := range r.prompts {
		if strings.EqualFold(p.Text, r.dedupText) {
			return p, nil
		}
	}
	return nil, pkgmodels.ErrPromptNotFound
}

func (r *fakePromptRepo) ListByUser(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, limit, offset int) ([]*pkgmodels.Prompt, error) {
	return nil, nil
}

// fakeGroupRepo is an in-memory stand-in for repository.PromptGroupRepository.
type fakeGroupRepo struct {
	groups   map[pkgmodels.GroupID]*pkgmodels.PromptGroup
	bindings map[pkgmodels.GroupID]map[pkgmodels.PromptID]bool
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:   make(map[pkgmodels.GroupID]*pkgmodels.PromptGroup),
		bindings: make(map[pkgmodels.GroupID]map[pkgmodels.PromptID]bool),
	}
}

func (r *fakeGroupRepo) Create(ctx context.Context, db bun.IDB, group *pkgmodels.PromptGroup) error {
	r.groups[group.ID] = group
	return nil
}

func (r *fakeGroupRepo) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.GroupID) (*pkgmodels.PromptGroup, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, errors.New("group not found")
	}
	return g, nil
}

func (r *fakeGroupRepo) Update(ctx context.Context, db bun.IDB, group *pkgmodels.PromptGroup) error {
	r.groups[group.ID] = group
	return nil
}

func (r *fakeGroupRepo) ListByUser(ctx context.Context, db bun.IDB, userID pkgmodels.UserID) ([]*pkgmodels.PromptGroup, error) {
	var out []*pkgmodels.PromptGroup
	for _, g := range r.groups {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) AddPrompt(ctx context.Context, db bun.IDB, groupID pkgmodels.GroupID, promptID pkgmodels.PromptID) error {
	if r.bindings[groupID] == nil {
		r.bindings[groupID] = make(map[pkgmodels.PromptID]bool)
	}
	r.bindings[groupID][promptID] = true
	return nil
}

func (r *fakeGroupRepo) PromptIDsInGroup(ctx context.Context, db bun.IDB, groupID pkgmodels.GroupID) ([]pkgmodels.PromptID, error) {
	var out []pkgmodels.PromptID
	for id := range r.bindings[groupID] {
		out = append(out, id)
	}
	return out, nil
}

var (
	_ repository.PromptRepository      = (*fakePromptRepo)(nil)
	_ repository.PromptGroupRepository = (*fakeGroupRepo)(nil)
)
