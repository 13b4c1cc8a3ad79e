package model

import "time"

// SkillStatus tracks learning progress for a Skill.
type SkillStatus string

const (
	StatusPlanned    SkillStatus = "PLANNED"
	StatusInProgress SkillStatus = "IN_PROGRESS"
	StatusDone       SkillStatus = "DONE"
)

// Valid reports whether s is one of the known statuses.
func (s SkillStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Skill represents a row in the `skills` table.  Titles are unique.
type Skill struct {
	ID        uint64
	Title     string
	Status    SkillStatus
	CreatedAt time.Time
}

// Module is a unit of study that belongs to exactly one Skill.
type Module struct {
	ID          uint64
	SkillID     uint64
	Title       string
	Description *string
}
