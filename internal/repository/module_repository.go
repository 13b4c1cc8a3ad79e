package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/skillgraph/internal/database"
	"github.com/iliyamo/skillgraph/internal/model"
)

// ModuleRepo encapsulates queries against `modules`.
type ModuleRepo struct {
	db *sql.DB
}

func NewModuleRepo(db *sql.DB) *ModuleRepo {
	return &ModuleRepo{db: db}
}

// Create inserts m.  The caller is responsible for checking that the skill
// exists; the foreign key rejects dangling references regardless.
func (r *ModuleRepo) Create(ctx context.Context, m *model.Module) error {
	return createModule(ctx, r.db, m)
}

func createModule(ctx context.Context, db database.DBTX, m *model.Module) error {
	res, err := db.ExecContext(ctx,
		"INSERT INTO modules (skill_id, title, description) VALUES (?, ?, ?)",
		m.SkillID, m.Title, m.Description)
	if err != nil {
		if isMissingParent(err) {
			return ErrSkillNotFound
		}
		return fmt.Errorf("insert module: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert module: %w", err)
	}
	m.ID = uint64(id)
	return nil
}

// List returns every module ordered by id.
func (r *ModuleRepo) List(ctx context.Context) ([]*model.Module, error) {
	return r.query(ctx, "SELECT id, skill_id, title, description FROM modules ORDER BY id")
}

// ListBySkill returns the modules of one skill ordered by id.
func (r *ModuleRepo) ListBySkill(ctx context.Context, skillID uint64) ([]*model.Module, error) {
	return r.query(ctx,
		"SELECT id, skill_id, title, description FROM modules WHERE skill_id = ? ORDER BY id", skillID)
}

func (r *ModuleRepo) query(ctx context.Context, q string, args ...any) ([]*model.Module, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	out := []*model.Module{}
	for rows.Next() {
		var (
			m    model.Module
			desc sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.SkillID, &m.Title, &desc); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		if desc.Valid {
			m.Description = &desc.String
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return out, nil
}
