package models

import "time"

type Student struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	RollNo       string    `gorm:"type:varchar(50);unique" json:"roll_no"`
	Department   string    `gorm:"type:varchar(100)" json:"department"`
	Contact      string    `gorm:"type:varchar(15)" json:"contact"`
	Email        string    `gorm:"type:varchar(120)" json:"email"`
	Address      string    `gorm:"type:text" json:"address"`
	PasswordHash string    `gorm:"type:varchar(255)" json:"-"`
	MessID       uint      `gorm:"index;not null" json:"mess_id"`
	Mess         Mess      `gorm:"foreignKey:MessID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
