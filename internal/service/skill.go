package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/skillgraph/internal/logging"
	"github.com/iliyamo/skillgraph/internal/model"
	"github.com/iliyamo/skillgraph/internal/repository"
)

// MaxPageSize caps every skill listing.
const MaxPageSize = 100

// SkillStore persists skills.  Implementations return
// repository.ErrSkillNotFound for missing ids and repository.ErrTitleExists
// when a title is taken.
type SkillStore interface {
	Create(ctx context.Context, s *model.Skill) error
	CreateWithModules(ctx context.Context, s *model.Skill, modules []*model.Module) error
	GetByID(ctx context.Context, id uint64) (*model.Skill, error)
	List(ctx context.Context, q repository.SkillQuery) ([]*model.Skill, error)
	Update(ctx context.Context, id uint64, title *string, status *model.SkillStatus) (*model.Skill, error)
	Delete(ctx context.Context, id uint64) (*model.Skill, error)
}

// ModuleStore persists the modules that belong to a skill.
type ModuleStore interface {
	Create(ctx context.Context, m *model.Module) error
	List(ctx context.Context) ([]*model.Module, error)
	ListBySkill(ctx context.Context, skillID uint64) ([]*model.Module, error)
}

// ListingCache caches skill listings.  Failures are logged and bypassed.
// Get returns the cache version it read; Set must be given that same
// version so a listing loaded before a write is never served after it.
type ListingCache interface {
	Get(ctx context.Context, key string, dst any) (hit bool, version int64, err error)
	Set(ctx context.Context, key string, version int64, v any) error
	Invalidate(ctx context.Context) error
}

// SkillListInput selects a page of skills.  Nil Limit means MaxPageSize.
type SkillListInput struct {
	Status *model.SkillStatus
	SortBy repository.SkillSort
	Desc   bool
	Limit  *int
	Offset *int
}

// ModuleInput describes a module to add.  SkillID is ignored when the
// module is created together with its skill.
type ModuleInput struct {
	SkillID     string
	Title       string
	Description *string
}

// SkillService manages the skill catalogue.  Reads are public; every write
// requires an authenticated caller.
type SkillService struct {
	skills  SkillStore
	modules ModuleStore
	cache   ListingCache
	log     logging.Logger
}

// NewSkillService returns a service over the given stores without a cache.
func NewSkillService(skills SkillStore, modules ModuleStore, log logging.Logger) *SkillService {
	return &SkillService{skills: skills, modules: modules, log: log.With("module", "skills")}
}

// WithCache serves listings through c.
func (s *SkillService) WithCache(c ListingCache) *SkillService {
	s.cache = c
	return s
}

// CreateSkill stores a new skill.  A nil status means PLANNED.
func (s *SkillService) CreateSkill(ctx context.Context, title string, status *model.SkillStatus) (*model.Skill, error) {
	if err := requireAuth(ctx); err != nil {
		return nil, err
	}
	sk, err := newSkill(title, status)
	if err != nil {
		return nil, err
	}
	if err := s.skills.Create(ctx, sk); err != nil {
		return nil, s.storeError(ctx, "create skill", err)
	}
	s.invalidate(ctx)
	return sk, nil
}

// CreateSkillWithModules stores a skill and its modules atomically.
func (s *SkillService) CreateSkillWithModules(ctx context.Context, title string, status *model.SkillStatus, modules []ModuleInput) (*model.Skill, []*model.Module, error) {
	if err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}
	sk, err := newSkill(title, status)
	if err != nil {
		return nil, nil, err
	}
	ms := make([]*model.Module, 0, len(modules))
	for i, in := range modules {
		t := strings.TrimSpace(in.Title)
		if t == "" {
			return nil, nil, invalidInput(fmt.Sprintf("module %d: title is required", i))
		}
		ms = append(ms, &model.Module{Title: t, Description: in.Description})
	}
	if err := s.skills.CreateWithModules(ctx, sk, ms); err != nil {
		return nil, nil, s.storeError(ctx, "create skill with modules", err)
	}
	s.invalidate(ctx)
	return sk, ms, nil
}

// GetSkill returns the skill with the given decimal id.
func (s *SkillService) GetSkill(ctx context.Context, id string) (*model.Skill, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	sk, err := s.skills.GetByID(ctx, n)
	if err != nil {
		return nil, s.storeError(ctx, "get skill", err)
	}
	return sk, nil
}

// ListSkills returns one page of skills, from the cache when possible.
func (s *SkillService) ListSkills(ctx context.Context, in SkillListInput) ([]*model.Skill, error) {
	q := repository.SkillQuery{Status: in.Status, SortBy: in.SortBy, Desc: in.Desc, Limit: MaxPageSize}
	if in.Status != nil && !in.Status.Valid() {
		return nil, invalidInput("unknown status " + string(*in.Status))
	}
	if in.SortBy != "" && !in.SortBy.Valid() {
		return nil, invalidInput("unknown sort field " + string(in.SortBy))
	}
	if in.Limit != nil {
		if *in.Limit < 1 || *in.Limit > MaxPageSize {
			return nil, invalidInput(fmt.Sprintf("limit must be between 1 and %d", MaxPageSize))
		}
		q.Limit = *in.Limit
	}
	if in.Offset != nil {
		if *in.Offset < 0 {
			return nil, invalidInput("offset must not be negative")
		}
		q.Offset = *in.Offset
	}

	key := listingKey(q)
	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		var cached []*model.Skill
		hit, v, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			s.log.Warn(ctx, "listing cache read failed", "error", err.Error())
		case hit:
			return cached, nil
		default:
			version, cacheable = v, true
		}
	}

	out, err := s.skills.List(ctx, q)
	if err != nil {
		return nil, s.storeError(ctx, "list skills", err)
	}
	if cacheable {
		if err := s.cache.Set(ctx, key, version, out); err != nil {
			s.log.Warn(ctx, "listing cache write failed", "error", err.Error())
		}
	}
	return out, nil
}

// UpdateSkill changes the title and/or status.  Empty values are ignored.
func (s *SkillService) UpdateSkill(ctx context.Context, id string, title *string, status *model.SkillStatus) (*model.Skill, error) {
	if err := requireAuth(ctx); err != nil {
		return nil, err
	}
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			title = nil
		} else {
			title = &t
		}
	}
	if status != nil && !status.Valid() {
		return nil, invalidInput("unknown status " + string(*status))
	}
	sk, err := s.skills.Update(ctx, n, title, status)
	if err != nil {
		return nil, s.storeError(ctx, "update skill", err)
	}
	s.invalidate(ctx)
	return sk, nil
}

// DeleteSkill removes a skill with its modules and returns it.
func (s *SkillService) DeleteSkill(ctx context.Context, id string) (*model.Skill, error) {
	if err := requireAuth(ctx); err != nil {
		return nil, err
	}
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	sk, err := s.skills.Delete(ctx, n)
	if err != nil {
		return nil, s.storeError(ctx, "delete skill", err)
	}
	s.invalidate(ctx)
	return sk, nil
}

// AddModule attaches a module to an existing skill.
func (s *SkillService) AddModule(ctx context.Context, in ModuleInput) (*model.Module, error) {
	if err := requireAuth(ctx); err != nil {
		return nil, err
	}
	skillID, err := parseID(in.SkillID)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalidInput("title is required")
	}
	if _, err := s.skills.GetByID(ctx, skillID); err != nil {
		return nil, s.storeError(ctx, "add module: lookup skill", err)
	}
	m := &model.Module{SkillID: skillID, Title: title, Description: in.Description}
	if err := s.modules.Create(ctx, m); err != nil {
		return nil, s.storeError(ctx, "add module", err)
	}
	return m, nil
}

// AllModules returns every module of every skill.
func (s *SkillService) AllModules(ctx context.Context) ([]*model.Module, error) {
	ms, err := s.modules.List(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "list modules", err)
	}
	return ms, nil
}

// ModulesBySkill returns the modules of the skill with the given id.
func (s *SkillService) ModulesBySkill(ctx context.Context, skillID string) ([]*model.Module, error) {
	n, err := parseID(skillID)
	if err != nil {
		return nil, err
	}
	return s.modulesOf(ctx, n)
}

// ModulesOf serves the Skill.modules relationship.
func (s *SkillService) ModulesOf(ctx context.Context, skillID uint64) ([]*model.Module, error) {
	return s.modulesOf(ctx, skillID)
}

func (s *SkillService) modulesOf(ctx context.Context, skillID uint64) ([]*model.Module, error) {
	ms, err := s.modules.ListBySkill(ctx, skillID)
	if err != nil {
		return nil, s.storeError(ctx, "list modules by skill", err)
	}
	return ms, nil
}

// SkillOf serves the Module.skill relationship.
func (s *SkillService) SkillOf(ctx context.Context, skillID uint64) (*model.Skill, error) {
	sk, err := s.skills.GetByID(ctx, skillID)
	if err != nil {
		return nil, s.storeError(ctx, "get module skill", err)
	}
	return sk, nil
}

func (s *SkillService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn(ctx, "listing cache invalidate failed", "error", err.Error())
	}
}

// storeError maps repository sentinels to service kinds and logs anything else.
func (s *SkillService) storeError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrSkillNotFound):
		return newError(KindSkillNotFound, err)
	case errors.Is(err, repository.ErrTitleExists):
		return newError(KindDuplicateSkill, err)
	}
	s.log.Error(ctx, "skill operation failed", "op", op, "error", err.Error())
	return newError(KindOperationFailed, err)
}

func newSkill(title string, status *model.SkillStatus) (*model.Skill, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return nil, invalidInput("title is required")
	}
	st := model.StatusPlanned
	if status != nil {
		if !status.Valid() {
			return nil, invalidInput("unknown status " + string(*status))
		}
		st = *status
	}
	return &model.Skill{Title: t, Status: st}, nil
}

func requireAuth(ctx context.Context) error {
	if !IdentityFrom(ctx).Authenticated() {
		return newError(KindNotAuthenticated, nil)
	}
	return nil
}

func parseID(id string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil || n == 0 {
		return 0, invalidInput("invalid id submitted")
	}
	return n, nil
}

func listingKey(q repository.SkillQuery) string {
	status := "*"
	if q.Status != nil {
		status = string(*q.Status)
	}
	return fmt.Sprintf("status=%s|sort=%s|desc=%t|limit=%d|offset=%d", status, q.SortBy, q.Desc, q.Limit, q.Offset)
}
