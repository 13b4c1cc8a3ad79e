package graph

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/skillgraph/internal/model"
	"github.com/iliyamo/skillgraph/internal/repository"
)

type users struct {
	mu   sync.Mutex
	rows []*model.User
}

func (s *users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = strconv.Itoa(len(s.rows) + 1)
	u.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	cp := *u
	s.rows = append(s.rows, &cp)
	return nil
}

func (s *users) find(match func(*model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if match(r) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Email == email })
}

func (s *users) GetByID(_ context.Context, id string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ID == id })
}

func (s *users) List(context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.User(nil), s.rows...), nil
}

func (s *users) Delete(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return r, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// catalogue is a SkillStore; its modules view is a ModuleStore.
type catalogue struct {
	mu      sync.Mutex
	skills  []*model.Skill
	modules []*model.Module
	next    uint64
}

func (c *catalogue) Create(_ context.Context, s *model.Skill) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.create(s)
}

func (c *catalogue) create(s *model.Skill) error {
	for _, r := range c.skills {
		if r.Title == s.Title {
			return repository.ErrTitleExists
		}
	}
	c.next++
	s.ID = c.next
	s.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	cp := *s
	c.skills = append(c.skills, &cp)
	return nil
}

func (c *catalogue) CreateWithModules(_ context.Context, s *model.Skill, ms []*model.Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.create(s); err != nil {
		return err
	}
	for _, m := range ms {
		c.next++
		m.ID, m.SkillID = c.next, s.ID
		cp := *m
		c.modules = append(c.modules, &cp)
	}
	return nil
}

func (c *catalogue) GetByID(_ context.Context, id uint64) (*model.Skill, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.skills {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrSkillNotFound
}

func (c *catalogue) List(_ context.Context, q repository.SkillQuery) ([]*model.Skill, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []*model.Skill{}
	for _, r := range c.skills {
		if q.Status == nil || r.Status == *q.Status {
			cp := *r
			out = append(out, &cp)
		}
	}
	if q.Desc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if q.Offset >= len(out) {
		return []*model.Skill{}, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (c *catalogue) Update(_ context.Context, id uint64, title *string, status *model.SkillStatus) (*model.Skill, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.skills {
		if r.ID == id {
			if title != nil {
				r.Title = *title
			}
			if status != nil {
				r.Status = *status
			}
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrSkillNotFound
}

func (c *catalogue) Delete(_ context.Context, id uint64) (*model.Skill, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.skills {
		if r.ID == id {
			c.skills = append(c.skills[:i], c.skills[i+1:]...)
			return r, nil
		}
	}
	return nil, repository.ErrSkillNotFound
}

type moduleView struct{ c *catalogue }

func (v moduleView) Create(_ context.Context, m *model.Module) error {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	v.c.next++
	m.ID = v.c.next
	cp := *m
	v.c.modules = append(v.c.modules, &cp)
	return nil
}

func (v moduleView) List(context.Context) ([]*model.Module, error) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	return append([]*model.Module(nil), v.c.modules...), nil
}

func (v moduleView) ListBySkill(_ context.Context, skillID uint64) ([]*model.Module, error) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	out := []*model.Module{}
	for _, m := range v.c.modules {
		if m.SkillID == skillID {
			out = append(out, m)
		}
	}
	return out, nil
}
