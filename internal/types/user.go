package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name               string         `gorm:"not null;column:name" json:"name"`
	Email              string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password           string         `gorm:"not null;column:password" json:"-"`
	Progress           datatypes.JSON `gorm:"type:jsonb;column:progress" json:"progress,omitempty"`
	LastProgressUpdate *time.Time     `gorm:"column:last_progress_update" json:"last_progress_update,omitempty"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

// ProgressRecord decodes the stored progress document, defaulting lazily
// for users that have never reported an activity.
func (u *User) ProgressRecord() (*ProgressRecord, error) {
	return DecodeProgress(u.Progress)
}
