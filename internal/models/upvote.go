package models

import "time"

// Upvote records that a user shares a complaint's issue. The composite
// unique index makes a second insert for the same pair fail.
type Upvote struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"userId" gorm:"not null;uniqueIndex:idx_upvotes_user_complaint"`
	User        *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ComplaintID uint      `json:"complaintId" gorm:"not null;uniqueIndex:idx_upvotes_user_complaint;index"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Upvote) TableName() string {
	return "upvotes"
}
