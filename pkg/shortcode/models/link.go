package models

import "time"

// Link represents a short code and the URL it redirects to.
// Links are never hard-deleted; IsDeleted marks them as removed.
type Link struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Code      string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	TargetURL string    `gorm:"not null" json:"target_url"`
	Note      *string   `json:"note"`
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`
	IsDeleted bool      `gorm:"not null;default:false;index" json:"is_deleted"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Redirectable reports whether visitors may be sent to the link's target.
func (l *Link) Redirectable() bool {
	return l.IsActive && !l.IsDeleted
}
