package models

import "time"

// Meal types
const (
	MealLunch  = "lunch"
	MealDinner = "dinner"
)

// Marking methods
const (
	MethodManual = "manual"
	MethodQRScan = "qr_scan"
)

type Attendance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_student_date_meal" json:"student_id"`
	Student   Student   `gorm:"foreignKey:StudentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_student_date_meal" json:"date"`
	MealType  string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_student_date_meal" json:"meal_type"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
	Method    string    `gorm:"type:varchar(10);not null;default:'manual'" json:"method"`
	MarkedBy  string    `gorm:"type:varchar(50);not null" json:"marked_by"`
	// SessionID terisi hanya untuk attendance hasil scan QR
	SessionID *uint              `gorm:"index" json:"session_id,omitempty"`
	Session   *AttendanceSession `gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CreatedAt time.Time          `json:"-"`
	UpdatedAt time.Time          `json:"-"`
}

// DateOnly memotong jam/menit/detik supaya kolom date konsisten
// untuk pengecekan duplikat.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CurrentMealType menentukan meal type default dari jam sekarang.
func CurrentMealType(now time.Time) string {
	if now.Hour() >= 15 {
		return MealDinner
	}
	return MealLunch
}
