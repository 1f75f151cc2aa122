package repomanager

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prompta-dev/prompta-server/internal/common"
	"github.com/prompta-dev/prompta-server/internal/server/models"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/prompts"
)

// MemoryManager is an in-memory RepositoryManager used by tests and local
// development. One mutex guards all state: writers are fully serialized
// (a stricter schedule than the per-prompt locking of the SQL backend) and
// readers never observe a partially applied transaction. Transactions are
// rolled back by restoring a snapshot taken at transaction start.
type MemoryManager struct {
	mu       sync.RWMutex
	prompts  map[string]*models.Prompt
	versions map[string][]*models.PromptVersion // by prompt ID, sorted by number
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		prompts:  make(map[string]*models.Prompt),
		versions: make(map[string][]*models.PromptVersion),
	}
}

func (m *MemoryManager) RunMigrations(ctx context.Context) error { return nil }
func (m *MemoryManager) Ping(ctx context.Context) error          { return nil }
func (m *MemoryManager) Close() error                            { return nil }

func (m *MemoryManager) Repos() Repos {
	return Repos{
		Prompts:  &memPromptsRepo{m: m},
		Versions: &memVersionsRepo{m: m},
	}
}

func (m *MemoryManager) bareRepos() Repos {
	return Repos{
		Prompts:  &memPromptsRepo{m: m, bare: true},
		Versions: &memVersionsRepo{m: m, bare: true},
	}
}

func (m *MemoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapPrompts, snapVersions := m.snapshotLocked()
	if err := fn(ctx, m.bareRepos()); err != nil {
		m.prompts, m.versions = snapPrompts, snapVersions
		return err
	}
	return nil
}

func (m *MemoryManager) WithPromptLock(ctx context.Context, userID, promptID string, fn func(ctx context.Context, r Repos, p *models.Prompt) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.prompts[promptID]
	if !ok || p.UserID != userID {
		return common.ErrNotFound
	}

	snapPrompts, snapVersions := m.snapshotLocked()
	if err := fn(ctx, m.bareRepos(), clonePrompt(p)); err != nil {
		m.prompts, m.versions = snapPrompts, snapVersions
		return err
	}
	return nil
}

func (m *MemoryManager) snapshotLocked() (map[string]*models.Prompt, map[string][]*models.PromptVersion) {
	ps := make(map[string]*models.Prompt, len(m.prompts))
	for id, p := range m.prompts {
		ps[id] = clonePrompt(p)
	}
	vs := make(map[string][]*models.PromptVersion, len(m.versions))
	for id, list := range m.versions {
		cloned := make([]*models.PromptVersion, len(list))
		for i, v := range list {
			cloned[i] = cloneVersion(v)
		}
		vs[id] = cloned
	}
	return ps, vs
}

func clonePrompt(p *models.Prompt) *models.Prompt {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}

func cloneVersion(v *models.PromptVersion) *models.PromptVersion {
	c := *v
	return &c
}

// memPromptsRepo implements prompts.Repository over the manager's maps.
// bare repositories are handed to transaction callbacks that already hold
// the manager lock.
type memPromptsRepo struct {
	m    *MemoryManager
	bare bool
}

func (r *memPromptsRepo) lock() func() {
	if r.bare {
		return func() {}
	}
	r.m.mu.Lock()
	return r.m.mu.Unlock
}

func (r *memPromptsRepo) rlock() func() {
	if r.bare {
		return func() {}
	}
	r.m.mu.RLock()
	return r.m.mu.RUnlock
}

func (r *memPromptsRepo) Create(ctx context.Context, p *models.Prompt) (*models.Prompt, error) {
	defer r.lock()()

	for _, existing := range r.m.prompts {
		if existing.UserID == p.UserID && existing.Name == p.Name {
			return nil, common.ErrConflict
		}
	}

	now := time.Now()
	c := clonePrompt(p)
	c.CreatedAt = now
	c.UpdatedAt = now
	r.m.prompts[c.ID] = c
	return clonePrompt(c), nil
}

func (r *memPromptsRepo) getScoped(userID, id string) (*models.Prompt, error) {
	p, ok := r.m.prompts[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func (r *memPromptsRepo) GetByID(ctx context.Context, userID, id string) (*models.Prompt, error) {
	defer r.rlock()()

	p, err := r.getScoped(userID, id)
	if err != nil {
		return nil, err
	}
	return clonePrompt(p), nil
}

func (r *memPromptsRepo) GetByName(ctx context.Context, userID, name string) (*models.Prompt, error) {
	defer r.rlock()()

	for _, p := range r.m.prompts {
		if p.UserID == userID && p.Name == name {
			return clonePrompt(p), nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memPromptsRepo) GetByLocation(ctx context.Context, userID, location string) (*models.Prompt, error) {
	defer r.rlock()()

	var best *models.Prompt
	for _, p := range r.m.prompts {
		if p.UserID != userID || p.Location != location {
			continue
		}
		if best == nil || p.UpdatedAt.After(best.UpdatedAt) {
			best = p
		}
	}
	if best == nil {
		return nil, common.ErrNotFound
	}
	return clonePrompt(best), nil
}

func (r *memPromptsRepo) Update(ctx context.Context, p *models.Prompt) (*models.Prompt, error) {
	defer r.lock()()

	existing, err := r.getScoped(p.UserID, p.ID)
	if err != nil {
		return nil, err
	}

	for _, other := range r.m.prompts {
		if other.ID != p.ID && other.UserID == p.UserID && other.Name == p.Name {
			return nil, common.ErrConflict
		}
	}

	existing.Name = p.Name
	existing.Description = p.Description
	existing.Location = p.Location
	existing.Tags = append([]string(nil), p.Tags...)
	existing.UpdatedAt = time.Now()
	return clonePrompt(existing), nil
}

func (r *memPromptsRepo) SetCurrentVersion(ctx context.Context, promptID, versionID string) error {
	defer r.lock()()

	p, ok := r.m.prompts[promptID]
	if !ok {
		return common.ErrNotFound
	}
	p.CurrentVersionID = versionID
	p.UpdatedAt = time.Now()
	return nil
}

func (r *memPromptsRepo) Delete(ctx context.Context, userID, id string) error {
	defer r.lock()()

	if _, err := r.getScoped(userID, id); err != nil {
		return err
	}
	delete(r.m.prompts, id)
	delete(r.m.versions, id)
	return nil
}

func (r *memPromptsRepo) LockForUpdate(ctx context.Context, userID, id string) (*models.Prompt, error) {
	defer r.rlock()()

	p, err := r.getScoped(userID, id)
	if err != nil {
		return nil, err
	}
	return clonePrompt(p), nil
}

func (r *memPromptsRepo) List(ctx context.Context, userID string, f prompts.ListFilter) ([]*models.Prompt, int, error) {
	defer r.rlock()()

	matched := []*models.Prompt{}
	for _, p := range r.m.prompts {
		if p.UserID != userID || !r.matches(p, f) {
			continue
		}
		matched = append(matched, clonePrompt(p))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)

	start := f.Offset
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}

	return matched[start:end], total, nil
}

func (r *memPromptsRepo) matches(p *models.Prompt, f prompts.ListFilter) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		content := strings.ToLower(r.currentContent(p))
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(content, q) {
			return false
		}
	}

	for _, want := range f.Tags {
		found := false
		for _, have := range p.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.Location != "" &&
		!strings.Contains(strings.ToLower(p.Location), strings.ToLower(f.Location)) {
		return false
	}

	return true
}

func (r *memPromptsRepo) currentContent(p *models.Prompt) string {
	for _, v := range r.m.versions[p.ID] {
		if v.ID == p.CurrentVersionID {
			return v.Content
		}
	}
	return ""
}

// memVersionsRepo implements versions.Repository over the manager's maps.
type memVersionsRepo struct {
	m    *MemoryManager
	bare bool
}

func (r *memVersionsRepo) lock() func() {
	if r.bare {
		return func() {}
	}
	r.m.mu.Lock()
	return r.m.mu.Unlock
}

func (r *memVersionsRepo) rlock() func() {
	if r.bare {
		return func() {}
	}
	r.m.mu.RLock()
	return r.m.mu.RUnlock
}

func (r *memVersionsRepo) Create(ctx context.Context, v *models.PromptVersion) (*models.PromptVersion, error) {
	defer r.lock()()

	for _, existing := range r.m.versions[v.PromptID] {
		if existing.VersionNumber == v.VersionNumber {
			return nil, common.ErrConflict
		}
		if v.IsCurrent && existing.IsCurrent {
			// Mirrors the partial unique index on (prompt_id) WHERE is_current.
			return nil, common.ErrConflict
		}
	}

	c := cloneVersion(v)
	c.CreatedAt = time.Now()
	list := append(r.m.versions[v.PromptID], c)
	sort.Slice(list, func(i, j int) bool { return list[i].VersionNumber < list[j].VersionNumber })
	r.m.versions[v.PromptID] = list
	return cloneVersion(c), nil
}

func (r *memVersionsRepo) GetByNumber(ctx context.Context, promptID string, number int) (*models.PromptVersion, error) {
	defer r.rlock()()

	for _, v := range r.m.versions[promptID] {
		if v.VersionNumber == number {
			return cloneVersion(v), nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memVersionsRepo) ListByPrompt(ctx context.Context, promptID string) ([]*models.PromptVersion, error) {
	defer r.rlock()()

	list := r.m.versions[promptID]
	out := make([]*models.PromptVersion, len(list))
	for i, v := range list {
		out[i] = cloneVersion(v)
	}
	return out, nil
}

func (r *memVersionsRepo) MaxNumber(ctx context.Context, promptID string) (int, error) {
	defer r.rlock()()

	list := r.m.versions[promptID]
	if len(list) == 0 {
		return 0, nil
	}
	return list[len(list)-1].VersionNumber, nil
}

func (r *memVersionsRepo) ClearCurrent(ctx context.Context, promptID string) error {
	defer r.lock()()

	for _, v := range r.m.versions[promptID] {
		v.IsCurrent = false
	}
	return nil
}

func (r *memVersionsRepo) UpdateCommitMessage(ctx context.Context, promptID string, number int, message string) (*models.PromptVersion, error) {
	defer r.lock()()

	for _, v := range r.m.versions[promptID] {
		if v.VersionNumber == number {
			v.CommitMessage = message
			return cloneVersion(v), nil
		}
	}
	return nil, common.ErrNotFound
}
