package models

import "time"

// Bill payment status turunan
const (
	BillStatusPaid                = "paid"
	BillStatusPendingVerification = "pending_verification"
	BillStatusRejected            = "rejected"
	BillStatusPending             = "pending"
)

type Bill struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	StudentID uint    `gorm:"not null;uniqueIndex:idx_student_month_year" json:"student_id"`
	Student   Student `gorm:"foreignKey:StudentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Month     int     `gorm:"not null;uniqueIndex:idx_student_month_year" json:"month"`
	Year      int     `gorm:"not null;uniqueIndex:idx_student_month_year" json:"year"`
	Amount    float64 `gorm:"type:decimal(10,2);not null" json:"amount"`
	// MealsCount jumlah attendance yang ditagih, MealRate tarif per meal
	// saat bill dibuat (snapshot, tidak ikut berubah kalau settings diubah)
	MealsCount  int       `gorm:"not null" json:"meals_count"`
	MealRate    float64   `gorm:"type:decimal(10,2);not null" json:"meal_rate"`
	Paid        bool      `gorm:"default:false" json:"paid"`
	GeneratedOn time.Time `gorm:"not null" json:"generated_on"`
	MessID      uint      `gorm:"index;not null" json:"mess_id"`
	Mess        Mess      `gorm:"foreignKey:MessID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Payments    []Payment `gorm:"foreignKey:BillID" json:"payments,omitempty"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// PaymentStatus menurunkan status pembayaran dari flag paid dan
// daftar payment. Payments harus sudah di-preload.
func (b *Bill) PaymentStatus() string {
	if b.Paid {
		return BillStatusPaid
	}
	for _, p := range b.Payments {
		if p.Status == PaymentSubmitted {
			return BillStatusPendingVerification
		}
	}
	for _, p := range b.Payments {
		if p.Status == PaymentRejected {
			return BillStatusRejected
		}
	}
	return BillStatusPending
}

// LatestPayment -> payment terbaru, nil jika belum ada.
func (b *Bill) LatestPayment() *Payment {
	var latest *Payment
	for i := range b.Payments {
		if latest == nil || b.Payments[i].CreatedAt.After(latest.CreatedAt) {
			latest = &b.Payments[i]
		}
	}
	return latest
}
