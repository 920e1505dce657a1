package models

import "time"

// MaxMessageLength is the longest message text accepted, in characters.
const MaxMessageLength = 140

// Message is a short post ("warble") owned by a user.
// The text must hold 1 to 140 characters; the schema enforces this, not only forms.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:varchar(140);not null;check:chk_messages_text_length,length(text) BETWEEN 1 AND 140" json:"text"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`

	// Liked indicates whether the viewing user liked this message (computed)
	Liked bool `gorm:"-" json:"liked"`
}

// TableName specifies the table name for GORM.
func (Message) TableName() string {
	return "messages"
}
