package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/yeremiapane/mess-management/models"
	"gorm.io/gorm"
)

var (
	ErrDuplicateBill     = errors.New("bill already exists for this month")
	ErrNoAttendance      = errors.New("no attendance records found for this month")
	ErrBillAlreadyPaid   = errors.New("bill is already marked as paid")
	ErrPaymentVerified   = errors.New("cannot reject a verified payment")
	ErrPaymentPending    = errors.New("a payment is already pending verification for this bill")
	ErrInvalidAmount     = errors.New("payment amount must be greater than 0 and no more than the bill total")
	ErrReferenceRequired = errors.New("a transaction reference is required")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrPaymentNotForBill = errors.New("payment does not belong to this bill")
)

var allowedPaymentMethods = map[string]bool{
	"upi":        true,
	"card":       true,
	"netbanking": true,
	"cash":       true,
	"wallet":     true,
	"other":      true,
}

// BillingService menangani pembuatan bill dan state machine pembayaran.
type BillingService struct {
	db *gorm.DB
}

func NewBillingService(db *gorm.DB) *BillingService {
	return &BillingService{db: db}
}

// EffectiveDailyRate -> tarif harian mess, fallback ke tabel settings
// untuk instalasi single-mess lama, terakhir default 100.
func EffectiveDailyRate(db *gorm.DB, messID uint) float64 {
	var mess models.Mess
	if err := db.First(&mess, messID).Error; err == nil && mess.DailyMealRate > 0 {
		return mess.DailyMealRate
	}
	raw := models.GetSetting(db, "daily_meal_rate", "100.0")
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate <= 0 {
		return 100.0
	}
	return rate
}

// EffectiveUpi -> (upi_id, upi_name) dari mess, fallback settings lalu env default.
func EffectiveUpi(db *gorm.DB, messID uint, defaultID, defaultName string) (string, string) {
	var mess models.Mess
	if err := db.First(&mess, messID).Error; err == nil && (mess.UpiID != "" || mess.UpiName != "") {
		upiID := mess.UpiID
		upiName := mess.UpiName
		if upiID == "" {
			upiID = defaultID
		}
		if upiName == "" {
			upiName = defaultName
		}
		return upiID, upiName
	}
	return models.GetSetting(db, "upi_id", defaultID), models.GetSetting(db, "upi_name", defaultName)
}

// GenerateBill membuat bill untuk (student, month, year) dari jumlah
// attendance di bulan itu. Tarif per meal = tarif harian / 2.
func (s *BillingService) GenerateBill(studentID uint, month, year int) (*models.Bill, error) {
	var student models.Student
	if err := s.db.First(&student, studentID).Error; err != nil {
		return nil, err
	}

	var existing models.Bill
	err := s.db.Where("student_id = ? AND month = ? AND year = ?", studentID, month, year).
		First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateBill
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var mealCount int64
	if err := s.db.Model(&models.Attendance{}).
		Where("student_id = ? AND date >= ? AND date < ?", studentID, start, end).
		Count(&mealCount).Error; err != nil {
		return nil, err
	}

	if mealCount == 0 {
		return nil, ErrNoAttendance
	}

	dailyRate := EffectiveDailyRate(s.db, student.MessID)
	mealRate := dailyRate / 2
	amount := math.Round(float64(mealCount)*mealRate*100) / 100

	bill := models.Bill{
		StudentID:   studentID,
		Month:       month,
		Year:        year,
		Amount:      amount,
		MealsCount:  int(mealCount),
		MealRate:    mealRate,
		Paid:        false,
		GeneratedOn: time.Now(),
		MessID:      student.MessID,
	}

	if err := s.db.Create(&bill).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

// SubmitPayment mencatat submission pembayaran student untuk satu bill.
// Maksimal satu payment berstatus submitted per bill.
func (s *BillingService) SubmitPayment(bill *models.Bill, amount float64, method, reference, notes string) (*models.Payment, error) {
	if bill.Paid {
		return nil, ErrBillAlreadyPaid
	}
	if amount <= 0 || amount > bill.Amount {
		return nil, ErrInvalidAmount
	}
	if method == "" {
		method = "upi"
	}
	if !allowedPaymentMethods[method] {
		return nil, ErrUnsupportedMethod
	}
	if reference == "" {
		return nil, ErrReferenceRequired
	}

	var pending int64
	if err := s.db.Model(&models.Payment{}).
		Where("bill_id = ? AND status = ?", bill.ID, models.PaymentSubmitted).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, ErrPaymentPending
	}

	payment := models.Payment{
		BillID:    bill.ID,
		StudentID: bill.StudentID,
		Amount:    amount,
		Method:    method,
		Reference: reference,
		Notes:     notes,
		Status:    models.PaymentSubmitted,
		MessID:    bill.MessID,
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// VerifyPayment -> submitted menjadi verified, bill ditandai paid, dan
// semua submission lain pada bill yang sama otomatis ditolak. Semua
// dalam satu transaksi.
func (s *BillingService) VerifyPayment(paymentID uint, verifier string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Bill").First(&payment, paymentID).Error; err != nil {
			return err
		}
		if payment.Bill.Paid {
			return ErrBillAlreadyPaid
		}

		now := time.Now()
		payment.Status = models.PaymentVerified
		payment.VerifiedAt = &now
		payment.VerifiedBy = verifier
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		// Tolak submission lain supaya tidak ada double payment
		if err := tx.Model(&models.Payment{}).
			Where("bill_id = ? AND id != ? AND status = ?", payment.BillID, payment.ID, models.PaymentSubmitted).
			Updates(map[string]interface{}{
				"status":      models.PaymentRejected,
				"verified_at": now,
				"verified_by": verifier,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Bill{}).Where("id = ?", payment.BillID).
			Update("paid", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// RejectPayment -> submitted menjadi rejected. Payment yang sudah
// verified tidak bisa ditolak.
func (s *BillingService) RejectPayment(paymentID uint, verifier string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentVerified {
		return nil, ErrPaymentVerified
	}

	now := time.Now()
	payment.Status = models.PaymentRejected
	payment.VerifiedAt = &now
	payment.VerifiedBy = verifier
	if err := s.db.Save(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkBillPaid menandai bill lunas: memverifikasi payment yang sudah ada
// (paymentID != nil) atau mencatat pembayaran manual yang langsung verified.
func (s *BillingService) MarkBillPaid(billID uint, paymentID *uint, method, reference, notes, verifier string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var bill models.Bill
		if err := tx.First(&bill, billID).Error; err != nil {
			return err
		}
		if bill.Paid {
			return ErrBillAlreadyPaid
		}

		now := time.Now()

		if paymentID != nil {
			var payment models.Payment
			if err := tx.First(&payment, *paymentID).Error; err != nil {
				return err
			}
			if payment.BillID != bill.ID {
				return ErrPaymentNotForBill
			}
			if payment.Status == models.PaymentVerified {
				return ErrPaymentVerified
			}
			payment.Status = models.PaymentVerified
			payment.VerifiedAt = &now
			payment.VerifiedBy = verifier
			if err := tx.Save(&payment).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Payment{}).
				Where("bill_id = ? AND id != ? AND status = ?", bill.ID, payment.ID, models.PaymentSubmitted).
				Update("status", models.PaymentRejected).Error; err != nil {
				return err
			}
		} else {
			if method == "" {
				method = "manual"
			}
			if reference == "" {
				reference = fmt.Sprintf("MANUAL-%s", uuid.NewString())
			}
			manual := models.Payment{
				BillID:     bill.ID,
				StudentID:  bill.StudentID,
				Amount:     bill.Amount,
				Method:     method,
				Reference:  reference,
				Notes:      notes,
				Status:     models.PaymentVerified,
				VerifiedAt: &now,
				VerifiedBy: verifier,
				MessID:     bill.MessID,
			}
			if err := tx.Create(&manual).Error; err != nil {
				return err
			}
			// Sisa payment submitted pada bill ini ikut ditolak.
			if err := tx.Model(&models.Payment{}).
				Where("bill_id = ? AND id != ? AND status = ?", bill.ID, manual.ID, models.PaymentSubmitted).
				Updates(map[string]interface{}{
					"status":      models.PaymentRejected,
					"verified_at": now,
					"verified_by": verifier,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Bill{}).Where("id = ?", bill.ID).
			Update("paid", true).Error
	})
}
