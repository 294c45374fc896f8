package models

import "time"

// Mess adalah tenant: satu kantin dengan student, attendance, dan
// billing sendiri.
type Mess struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(100);unique;not null" json:"name"`
	DailyMealRate float64   `gorm:"type:decimal(10,2);not null" json:"daily_meal_rate"`
	UpiID         string    `gorm:"type:varchar(120)" json:"upi_id"`
	UpiName       string    `gorm:"type:varchar(100)" json:"upi_name"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
