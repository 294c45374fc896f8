package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"type:varchar(80); unique;not null" json:"username"`
	PasswordHash string `gorm:"type:varchar(255); not null" json:"-"`
	IsAdmin      bool   `gorm:"default:false" json:"is_admin"`
	// MessID nullable: user bootstrap dibuat sebelum mess ada
	MessID    *uint     `gorm:"index" json:"mess_id,omitempty"`
	Mess      *Mess     `gorm:"foreignKey:MessID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
