package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/skillgraph/internal/database"
	"github.com/iliyamo/skillgraph/internal/model"
)

// SkillSort names a sortable column.  Only these values ever reach SQL.
type SkillSort string

const (
	SortByID        SkillSort = "ID"
	SortByTitle     SkillSort = "TITLE"
	SortByStatus    SkillSort = "STATUS"
	SortByCreatedAt SkillSort = "CREATED_AT"
)

// Valid reports whether s is a known sort field.
func (s SkillSort) Valid() bool {
	_, ok := sortColumns[s]
	return ok
}

var sortColumns = map[SkillSort]string{
	SortByID:        "id",
	SortByTitle:     "title",
	SortByStatus:    "status",
	SortByCreatedAt: "created_at",
}

// SkillQuery defines filters, ordering and pagination for listing skills.
// A zero Limit means no limit.
type SkillQuery struct {
	Status *model.SkillStatus
	SortBy SkillSort
	Desc   bool
	Limit  int
	Offset int
}

// SkillRepo encapsulates queries against `skills` and `modules`.
type SkillRepo struct {
	db *sql.DB
}

func NewSkillRepo(db *sql.DB) *SkillRepo {
	return &SkillRepo{db: db}
}

const skillColumns = "id, title, status, created_at"

// Create inserts s and fills in ID and CreatedAt.
func (r *SkillRepo) Create(ctx context.Context, s *model.Skill) error {
	return createSkill(ctx, r.db, s)
}

// CreateWithModules inserts a skill and its modules in one transaction.
// Either everything is stored or nothing is.
func (r *SkillRepo) CreateWithModules(ctx context.Context, s *model.Skill, modules []*model.Module) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		if err := createSkill(ctx, tx, s); err != nil {
			return err
		}
		for _, m := range modules {
			m.SkillID = s.ID
			if err := createModule(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func createSkill(ctx context.Context, db database.DBTX, s *model.Skill) error {
	res, err := db.ExecContext(ctx, "INSERT INTO skills (title, status) VALUES (?, ?)", s.Title, string(s.Status))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrTitleExists
		}
		return fmt.Errorf("insert skill: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert skill: %w", err)
	}
	s.ID = uint64(id)
	if err := db.QueryRowContext(ctx, "SELECT created_at FROM skills WHERE id = ?", s.ID).Scan(&s.CreatedAt); err != nil {
		return fmt.Errorf("reload skill: %w", err)
	}
	return nil
}

// GetByID fetches a skill or returns ErrSkillNotFound.
func (r *SkillRepo) GetByID(ctx context.Context, id uint64) (*model.Skill, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+skillColumns+" FROM skills WHERE id = ?", id)
	return scanSkill(row)
}

// List returns skills matching q.
func (r *SkillRepo) List(ctx context.Context, q SkillQuery) ([]*model.Skill, error) {
	query, args := buildSkillList(q)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	out := []*model.Skill{}
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return out, nil
}

// buildSkillList renders the SELECT for q.  The ORDER BY column comes from
// a fixed whitelist; every user value is a bind parameter.
func buildSkillList(q SkillQuery) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT " + skillColumns + " FROM skills")
	if q.Status != nil {
		sb.WriteString(" WHERE status = ?")
		args = append(args, string(*q.Status))
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "id"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	sb.WriteString(" ORDER BY " + col + " " + dir)
	if col != "id" {
		// stable pages when the sort column has ties
		sb.WriteString(", id " + dir)
	}

	switch {
	case q.Limit > 0:
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, q.Limit, q.Offset)
	case q.Offset > 0:
		// MySQL has no OFFSET without LIMIT; use the documented max-row idiom.
		sb.WriteString(" LIMIT 18446744073709551615 OFFSET ?")
		args = append(args, q.Offset)
	}
	return sb.String(), args
}

// Update applies the non-nil fields and returns the updated skill.
func (r *SkillRepo) Update(ctx context.Context, id uint64, title *string, status *model.SkillStatus) (*model.Skill, error) {
	var (
		sets []string
		args []any
	)
	if title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *title)
	}
	if status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*status))
	}
	if len(sets) > 0 {
		args = append(args, id)
		_, err := r.db.ExecContext(ctx, "UPDATE skills SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			if isDuplicateKey(err) {
				return nil, ErrTitleExists
			}
			return nil, fmt.Errorf("update skill: %w", err)
		}
	}
	// RowsAffected cannot tell a missing row from an unchanged one; the
	// reload does.
	return r.GetByID(ctx, id)
}

// Delete removes a skill (and, through the foreign key, its modules) and
// returns the record as it was.
func (r *SkillRepo) Delete(ctx context.Context, id uint64) (*model.Skill, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM skills WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("delete skill: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrSkillNotFound
	}
	return s, nil
}

func scanSkill(row rowScanner) (*model.Skill, error) {
	var (
		s      model.Skill
		status string
	)
	if err := row.Scan(&s.ID, &s.Title, &status, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSkillNotFound
		}
		return nil, fmt.Errorf("scan skill: %w", err)
	}
	s.Status = model.SkillStatus(status)
	return &s, nil
}
