package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/skillgraph/internal/logging"
	"github.com/iliyamo/skillgraph/internal/model"
	"github.com/iliyamo/skillgraph/internal/queue"
	"github.com/iliyamo/skillgraph/internal/repository"
)

// memUsers is an in-memory UserStore that enforces the unique email index
// the way the real stores do.
type memUsers struct {
	mu      sync.RWMutex
	byID    map[string]*model.User
	byEmail map[string]string
	nextID  int

	failWith error // returned by every call when set
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*model.User{}, byEmail: map[string]string{}}
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.byEmail[u.Email]; ok {
		return repository.ErrEmailExists
	}
	m.nextID++
	u.ID = strconv.Itoa(m.nextID)
	u.CreatedAt = time.Now().UTC()
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	id, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(_ context.Context) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]*model.User, 0, len(m.byID))
	for _, u := range m.byID {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) Delete(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	delete(m.byID, id)
	delete(m.byEmail, u.Email)
	return u, nil
}

func (m *memUsers) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// racingUsers reports every email as free, then lets the unique index
// decide, which is what a concurrent signup looks like from one request.
type racingUsers struct {
	*memUsers
}

func (r racingUsers) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.UserRegisteredEvent
	err    error
}

func (p *fakePublisher) PublishUserRegistered(_ context.Context, ev queue.UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

// recordLogger keeps every message so tests can assert on what was logged.
type recordLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func newRecordLogger() recordLogger {
	return recordLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l recordLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l recordLogger) Debug(_ context.Context, msg string, args ...any) { l.add("debug", msg, args) }
func (l recordLogger) Info(_ context.Context, msg string, args ...any)  { l.add("info", msg, args) }
func (l recordLogger) Warn(_ context.Context, msg string, args ...any)  { l.add("warn", msg, args) }
func (l recordLogger) Error(_ context.Context, msg string, args ...any) { l.add("error", msg, args) }
func (l recordLogger) With(...any) logging.Logger                        { return l }

func (l recordLogger) at(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range *l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

// text flattens every entry, for "was this secret ever logged" checks.
func (l recordLogger) text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := ""
	for _, e := range *l.entries {
		s += e.msg + fmt.Sprint(e.args...) + "\n"
	}
	return s
}

// memSkills is an in-memory SkillStore and ModuleStore.
type memSkills struct {
	mu      sync.Mutex
	skills  map[uint64]*model.Skill
	modules []*model.Module
	nextID  uint64
	lists   int // number of List calls that reached the store

	failWith error
}

func newMemSkills() *memSkills {
	return &memSkills{skills: map[uint64]*model.Skill{}}
}

func (m *memSkills) titleTaken(title string, except uint64) bool {
	for id, s := range m.skills {
		if id != except && s.Title == title {
			return true
		}
	}
	return false
}

func (m *memSkills) Create(_ context.Context, s *model.Skill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(s)
}

func (m *memSkills) create(s *model.Skill) error {
	if m.failWith != nil {
		return m.failWith
	}
	if m.titleTaken(s.Title, 0) {
		return repository.ErrTitleExists
	}
	m.nextID++
	s.ID = m.nextID
	s.CreatedAt = time.Now().UTC()
	cp := *s
	m.skills[s.ID] = &cp
	return nil
}

func (m *memSkills) CreateWithModules(_ context.Context, s *model.Skill, ms []*model.Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.create(s); err != nil {
		return err
	}
	for _, mod := range ms {
		mod.SkillID = s.ID
		m.nextID++
		mod.ID = m.nextID
		cp := *mod
		m.modules = append(m.modules, &cp)
	}
	return nil
}

func (m *memSkills) GetByID(_ context.Context, id uint64) (*model.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	s, ok := m.skills[id]
	if !ok {
		return nil, repository.ErrSkillNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSkills) List(_ context.Context, q repository.SkillQuery) ([]*model.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []*model.Skill{}
	for _, s := range m.skills {
		if q.Status != nil && s.Status != *q.Status {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.SortBy == repository.SortByTitle {
			if q.Desc {
				return out[i].Title > out[j].Title
			}
			return out[i].Title < out[j].Title
		}
		if q.Desc {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	if q.Offset >= len(out) {
		return []*model.Skill{}, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memSkills) Update(_ context.Context, id uint64, title *string, status *model.SkillStatus) (*model.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.skills[id]
	if !ok {
		return nil, repository.ErrSkillNotFound
	}
	if title != nil {
		if m.titleTaken(*title, id) {
			return nil, repository.ErrTitleExists
		}
		s.Title = *title
	}
	if status != nil {
		s.Status = *status
	}
	cp := *s
	return &cp, nil
}

func (m *memSkills) Delete(_ context.Context, id uint64) (*model.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.skills[id]
	if !ok {
		return nil, repository.ErrSkillNotFound
	}
	delete(m.skills, id)
	kept := m.modules[:0]
	for _, mod := range m.modules {
		if mod.SkillID != id {
			kept = append(kept, mod)
		}
	}
	m.modules = kept
	return s, nil
}

// memModules adapts memSkills to ModuleStore.
type memModules struct{ *memSkills }

func (m memModules) Create(_ context.Context, mod *model.Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.skills[mod.SkillID]; !ok {
		return repository.ErrSkillNotFound
	}
	m.nextID++
	mod.ID = m.nextID
	cp := *mod
	m.modules = append(m.modules, &cp)
	return nil
}

func (m memModules) List(_ context.Context) ([]*model.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Module, len(m.modules))
	copy(out, m.modules)
	return out, nil
}

func (m memModules) ListBySkill(_ context.Context, skillID uint64) ([]*model.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Module{}
	for _, mod := range m.modules {
		if mod.SkillID == skillID {
			out = append(out, mod)
		}
	}
	return out, nil
}

// memCache is a versioned ListingCache backed by a map.
type memCache struct {
	mu          sync.Mutex
	version     int64
	entries     map[string][]*model.Skill
	invalidated int
	err         error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]*model.Skill{}}
}

func (c *memCache) slot(version int64, key string) string {
	return fmt.Sprintf("v%d:%s", version, key)
}

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, 0, c.err
	}
	v, ok := c.entries[c.slot(c.version, key)]
	if !ok {
		return false, c.version, nil
	}
	p, ok := dst.(*[]*model.Skill)
	if !ok {
		return false, c.version, errors.New("unexpected destination type")
	}
	*p = v
	return true, c.version, nil
}

func (c *memCache) Set(_ context.Context, key string, version int64, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.entries[c.slot(version, key)] = v.([]*model.Skill)
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.version++
	return c.err
}
