package models

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

type Coven struct {
	ID        string     `gorm:"primaryKey;type:uuid"`
	Name      string     `gorm:"type:varchar(64);uniqueIndex;not null"`
	Emblem    string     `gorm:"type:varchar(10)"`
	LeaderID  uint       `gorm:"not null"`
	Leader    Player     `gorm:"foreignKey:LeaderID"`
	DeletedAt *time.Time `gorm:"default:NULL;index"` // soft tombstone, not gorm.DeletedAt: reads filter explicitly
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

// IsDeleted reports whether the coven has been tombstoned.
func (c *Coven) IsDeleted() bool {
	return c.DeletedAt != nil
}

// CovenInfo is the client-facing projection of a coven.
type CovenInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Emblem    string    `json:"emblem,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Info returns the serializable projection of the coven.
func (c *Coven) Info() CovenInfo {
	return CovenInfo{
		ID:        c.ID,
		Name:      c.Name,
		Emblem:    c.Emblem,
		CreatedAt: c.CreatedAt,
	}
}

type CovenMember struct {
	ID           uint      `gorm:"primaryKey"`
	CovenID      string    `gorm:"type:uuid;not null;index"`
	PlayerID     uint      `gorm:"uniqueIndex;not null"` // one membership per player system-wide
	Role         string    `gorm:"type:varchar(20);default:'member'"`
	Contribution int64     `gorm:"default:0;not null"`
	JoinedAt     time.Time `gorm:"autoCreateTime"`
	Coven        Coven     `gorm:"foreignKey:CovenID"`
	Player       Player    `gorm:"foreignKey:PlayerID"`
}

const (
	CovenRoleLeader = "leader"
	CovenRoleElder  = "elder"
	CovenRoleMember = "member"
)

const (
	CovenNameMaxLength   = 50
	CovenEmblemMaxLength = 10
)

var covenNameRegex = regexp.MustCompile(`^[A-Za-z0-9 '-]{1,50}$`)

// ValidCovenName reports whether name (already trimmed) is an acceptable
// coven name: 1-50 chars from the letters/digits/space/apostrophe/hyphen set.
func ValidCovenName(name string) bool {
	return covenNameRegex.MatchString(name)
}

// ValidCovenEmblem reports whether emblem fits the storage column. Emblems
// are short glyph strings, so length is counted in runes.
func ValidCovenEmblem(emblem string) bool {
	return utf8.RuneCountInString(emblem) <= CovenEmblemMaxLength
}

// TombstoneName returns the name a coven is renamed to on disband so the
// unique index keeps arbitrating among live covens only.
func TombstoneName(name, id string) string {
	suffix := id
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return strings.TrimSpace(name) + "#" + suffix
}

func (Coven) TableName() string {
	return "covens"
}

func (CovenMember) TableName() string {
	return "coven_members"
}
