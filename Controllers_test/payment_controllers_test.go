package Controllers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/yeremiapane/mess-management/controllers"
	"github.com/yeremiapane/mess-management/models"
)

func setupPaymentRouter(db *gorm.DB, staff gin.HandlerFunc, student *models.Student) *gin.Engine {
	router := gin.Default()
	paymentCtrl := controllers.NewPaymentController(db)
	portalCtrl := controllers.NewStudentPortalController(db)

	auth := router.Group("/admin")
	auth.Use(staff)
	auth.GET("/payments/pending", paymentCtrl.GetPendingPayments)
	auth.POST("/payments/:payment_id/verify", paymentCtrl.VerifyPayment)
	auth.POST("/payments/:payment_id/reject", paymentCtrl.RejectPayment)

	portal := router.Group("/student")
	portal.Use(asStudent(student))
	portal.POST("/bills/:bill_id/payments", portalCtrl.SubmitPayment)
	return router
}

func seedBill(db *gorm.DB, student *models.Student, month int, amount float64) *models.Bill {
	bill := models.Bill{
		StudentID:   student.ID,
		Month:       month,
		Year:        2026,
		Amount:      amount,
		MealsCount:  int(amount / 50),
		MealRate:    50,
		GeneratedOn: time.Now(),
		MessID:      student.MessID,
	}
	if err := db.Create(&bill).Error; err != nil {
		panic(err)
	}
	return &bill
}

func TestSubmitAndVerifyPayment(t *testing.T) {
	db := setupTestDB()
	mess, admin := seedMess(db, "pay-verify", 100)
	student := seedStudent(db, mess.ID, "Payer", "STU0301")
	bill := seedBill(db, student, 3, 400)
	router := setupPaymentRouter(db, asStaff(admin), student)

	w := doJSON(router, "POST", "/student/bills/"+itoa(bill.ID)+"/payments",
		map[string]interface{}{
			"amount":    400.0,
			"method":    "upi",
			"reference": "UPI-TXN-001",
		})
	assert.Equal(t, http.StatusCreated, w.Code)

	var payment models.Payment
	assert.NoError(t, db.Where("bill_id = ?", bill.ID).First(&payment).Error)
	assert.Equal(t, models.PaymentSubmitted, payment.Status)

	// Submission kedua saat masih ada yang pending -> conflict
	w = doJSON(router, "POST", "/student/bills/"+itoa(bill.ID)+"/payments",
		map[string]interface{}{
			"amount":    400.0,
			"method":    "upi",
			"reference": "UPI-TXN-002",
		})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Admin melihat payment di daftar pending
	w = doJSON(router, "GET", "/admin/payments/pending", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseBody(w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])

	// Verifikasi -> payment verified, bill paid
	w = doJSON(router, "POST", "/admin/payments/"+itoa(payment.ID)+"/verify", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	db.First(&payment, payment.ID)
	assert.Equal(t, models.PaymentVerified, payment.Status)
	assert.NotNil(t, payment.VerifiedAt)
	assert.Equal(t, admin.Username, payment.VerifiedBy)

	var updated models.Bill
	db.First(&updated, bill.ID)
	assert.True(t, updated.Paid)

	// Setelah lunas, submission baru ditolak
	w = doJSON(router, "POST", "/student/bills/"+itoa(bill.ID)+"/payments",
		map[string]interface{}{
			"amount":    400.0,
			"method":    "upi",
			"reference": "UPI-TXN-003",
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyCascadeRejectsSiblings(t *testing.T) {
	db := setupTestDB()
	mess, admin := seedMess(db, "pay-cascade", 100)
	student := seedStudent(db, mess.ID, "Cascade", "STU0302")
	bill := seedBill(db, student, 4, 200)
	router := setupPaymentRouter(db, asStaff(admin), student)

	// Dua submission langsung di DB (lewat API hanya satu yang bisa pending)
	first := models.Payment{
		BillID: bill.ID, StudentID: student.ID, Amount: 200,
		Method: "upi", Reference: "TXN-A",
		Status: models.PaymentSubmitted, MessID: mess.ID,
	}
	second := models.Payment{
		BillID: bill.ID, StudentID: student.ID, Amount: 200,
		Method: "upi", Reference: "TXN-B",
		Status: models.PaymentSubmitted, MessID: mess.ID,
	}
	assert.NoError(t, db.Create(&first).Error)
	assert.NoError(t, db.Create(&second).Error)

	w := doJSON(router, "POST", "/admin/payments/"+itoa(first.ID)+"/verify", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	db.First(&first, first.ID)
	db.First(&second, second.ID)
	assert.Equal(t, models.PaymentVerified, first.Status)
	assert.Equal(t, models.PaymentRejected, second.Status)

	// Invariant: tepat satu payment verified untuk bill yang paid
	var verified int64
	db.Model(&models.Payment{}).
		Where("bill_id = ? AND status = ?", bill.ID, models.PaymentVerified).
		Count(&verified)
	assert.Equal(t, int64(1), verified)
}

func TestRejectPayment(t *testing.T) {
	db := setupTestDB()
	mess, admin := seedMess(db, "pay-reject", 100)
	student := seedStudent(db, mess.ID, "Rejected", "STU0303")
	bill := seedBill(db, student, 5, 150)
	router := setupPaymentRouter(db, asStaff(admin), student)

	w := doJSON(router, "POST", "/student/bills/"+itoa(bill.ID)+"/payments",
		map[string]interface{}{
			"amount":    150.0,
			"method":    "upi",
			"reference": "TXN-REJECT",
		})
	assert.Equal(t, http.StatusCreated, w.Code)

	var payment models.Payment
	assert.NoError(t, db.Where("bill_id = ?", bill.ID).First(&payment).Error)

	w = doJSON(router, "POST", "/admin/payments/"+itoa(payment.ID)+"/reject", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	db.First(&payment, payment.ID)
	assert.Equal(t, models.PaymentRejected, payment.Status)

	var updated models.Bill
	db.First(&updated, bill.ID)
	assert.False(t, updated.Paid)

	// Setelah ditolak, student boleh submit ulang
	w = doJSON(router, "POST", "/student/bills/"+itoa(bill.ID)+"/payments",
		map[string]interface{}{
			"amount":    150.0,
			"method":    "upi",
			"reference": "TXN-RETRY",
		})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRejectVerifiedPaymentRefused(t *testing.T) {
	db := setupTestDB()
	mess, admin := seedMess(db, "pay-final", 100)
	student := seedStudent(db, mess.ID, "Final", "STU0304")
	bill := seedBill(db, student, 6, 100)
	router := setupPaymentRouter(db, asStaff(admin), student)

	now := time.Now()
	payment := models.Payment{
		BillID: bill.ID, StudentID: student.ID, Amount: 100,
		Method: "upi", Reference: "TXN-DONE",
		Status: models.PaymentVerified, VerifiedAt: &now, VerifiedBy: "admin",
		MessID: mess.ID,
	}
	assert.NoError(t, db.Create(&payment).Error)

	w := doJSON(router, "POST", "/admin/payments/"+itoa(payment.ID)+"/reject", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitPaymentValidation(t *testing.T) {
	db := setupTestDB()
	mess, admin := seedMess(db, "pay-valid", 100)
	student := seedStudent(db, mess.ID, "Validator", "STU0305")
	bill := seedBill(db, student, 7, 250)
	router := setupPaymentRouter(db, asStaff(admin), student)

	// Lebih besar dari tagihan
	w := doJSON(router, "POST", "/student/bills/"+itoa(bill.ID)+"/payments",
		map[string]interface{}{
			"amount":    999.0,
			"method":    "upi",
			"reference": "TXN-TOOBIG",
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Tanpa reference
	w = doJSON(router, "POST", "/student/bills/"+itoa(bill.ID)+"/payments",
		map[string]interface{}{
			"amount": 250.0,
			"method": "upi",
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Method tidak dikenal
	w = doJSON(router, "POST", "/student/bills/"+itoa(bill.ID)+"/payments",
		map[string]interface{}{
			"amount":    250.0,
			"method":    "cheque",
			"reference": "TXN-CHQ",
		})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitPaymentDefaultMethod(t *testing.T) {
	db := setupTestDB()
	mess, admin := seedMess(db, "pay-default", 100)
	student := seedStudent(db, mess.ID, "Defaulter", "STU0307")
	bill := seedBill(db, student, 7, 300)
	router := setupPaymentRouter(db, asStaff(admin), student)

	// Tanpa method -> default upi
	w := doJSON(router, "POST", "/student/bills/"+itoa(bill.ID)+"/payments",
		map[string]interface{}{
			"amount":    300.0,
			"reference": "TXN-DEFAULT",
		})
	assert.Equal(t, http.StatusCreated, w.Code)

	var payment models.Payment
	assert.NoError(t, db.Where("bill_id = ?", bill.ID).First(&payment).Error)
	assert.Equal(t, "upi", payment.Method)
	assert.Equal(t, models.PaymentSubmitted, payment.Status)
}

func TestVerifyPaymentOtherMessForbidden(t *testing.T) {
	db := setupTestDB()
	mess, _ := seedMess(db, "pay-owner", 100)
	_, intruder := seedMess(db, "pay-intruder", 100)
	student := seedStudent(db, mess.ID, "Victim", "STU0306")
	bill := seedBill(db, student, 8, 100)
	router := setupPaymentRouter(db, asStaff(intruder), student)

	payment := models.Payment{
		BillID: bill.ID, StudentID: student.ID, Amount: 100,
		Method: "upi", Reference: "TXN-X",
		Status: models.PaymentSubmitted, MessID: mess.ID,
	}
	assert.NoError(t, db.Create(&payment).Error)

	w := doJSON(router, "POST", "/admin/payments/"+itoa(payment.ID)+"/verify", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
