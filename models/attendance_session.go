package models

import "time"

// AttendanceSession adalah window check-in QR yang dibatasi waktu
// untuk satu meal type + tanggal.
type AttendanceSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"type:varchar(100);unique;not null" json:"token"`
	Date      time.Time `gorm:"type:date;not null" json:"date"`
	MealType  string    `gorm:"type:varchar(10);not null" json:"meal_type"`
	CreatedBy string    `gorm:"type:varchar(50);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	MessID    uint      `gorm:"index;not null" json:"mess_id"`
	Mess      Mess      `gorm:"foreignKey:MessID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`

	// Diisi oleh controller saat listing, bukan kolom
	AttendanceCount int64 `gorm:"-" json:"attendance_count"`
}

// IsValid -> session masih bisa menerima scan
func (s *AttendanceSession) IsValid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
