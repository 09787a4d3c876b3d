package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/assessment-backend/internal/domain/assessment"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a portal identity bound to exactly one assessment process.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Name      string         `gorm:"not null;column:name" json:"name"`
	Process   string         `gorm:"not null;column:process;index" json:"process"`
	Role      string         `gorm:"not null;column:role;default:user" json:"role"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	u.Process = assessment.NormalizeProcess(u.Process)
	return nil
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
