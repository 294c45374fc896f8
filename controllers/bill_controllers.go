package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/mess-management/feed"
	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/services"
	"github.com/yeremiapane/mess-management/utils"
	"gorm.io/gorm"
)

type BillController struct {
	DB      *gorm.DB
	Service *services.BillingService
}

func NewBillController(db *gorm.DB) *BillController {
	return &BillController{
		DB:      db,
		Service: services.NewBillingService(db),
	}
}

var monthNames = []string{"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

// GenerateBill membuat bill bulanan dari jumlah attendance.
func (bc *BillController) GenerateBill(c *gin.Context) {
	var req struct {
		StudentID uint `json:"student_id" binding:"required"`
		Month     int  `json:"month" binding:"required"`
		Year      int  `json:"year" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Month < 1 || req.Month > 12 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid month"))
		return
	}

	var student models.Student
	if err := bc.DB.First(&student, req.StudentID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("student not found"))
		return
	}
	if student.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("student belongs to another mess"))
		return
	}

	bill, err := bc.Service.GenerateBill(req.StudentID, req.Month, req.Year)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateBill):
			utils.RespondError(c, http.StatusConflict,
				fmt.Errorf("bill already exists for %s for %d/%d", student.Name, req.Month, req.Year))
		case errors.Is(err, services.ErrNoAttendance):
			utils.RespondError(c, http.StatusNotFound,
				fmt.Errorf("no attendance records found for %s in %d/%d", student.Name, req.Month, req.Year))
		default:
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	feed.BroadcastBillGenerated(*bill)
	utils.InfoLogger.Printf("Bill generated for %s: %d meals, amount %.2f",
		student.Name, bill.MealsCount, bill.Amount)

	utils.RespondJSON(c, http.StatusCreated,
		fmt.Sprintf("Bill generated successfully for %s", student.Name), bill)
}

// GetAllBills -> semua bill mess ini + agregat total/paid/pending.
func (bc *BillController) GetAllBills(c *gin.Context) {
	messID := c.GetUint("mess_id")

	var bills []models.Bill
	if err := bc.DB.Preload("Student").Preload("Payments").
		Where("mess_id = ?", messID).
		Order("student_id ASC").Order("generated_on DESC").
		Find(&bills).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var totalAmount, paidAmount float64
	for _, bill := range bills {
		totalAmount += bill.Amount
		if bill.Paid {
			paidAmount += bill.Amount
		}
	}

	utils.RespondJSON(c, http.StatusOK, "List of bills", gin.H{
		"bills":          bills,
		"total_amount":   totalAmount,
		"paid_amount":    paidAmount,
		"pending_amount": totalAmount - paidAmount,
	})
}

// GetBillByID -> detail 1 bill beserta payment history.
func (bc *BillController) GetBillByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("bill_id"))

	var bill models.Bill
	if err := bc.DB.Preload("Student").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&bill, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if bill.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("bill belongs to another mess"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Bill detail", gin.H{
		"bill":           bill,
		"month_name":     monthNames[bill.Month-1],
		"payment_status": bill.PaymentStatus(),
	})
}

// GetBillPayments -> payment history untuk satu bill, terbaru dulu.
func (bc *BillController) GetBillPayments(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("bill_id"))

	var bill models.Bill
	if err := bc.DB.First(&bill, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if bill.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("bill belongs to another mess"))
		return
	}

	var payments []models.Payment
	if err := bc.DB.Where("bill_id = ?", bill.ID).
		Order("created_at DESC").Find(&payments).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Bill payments", gin.H{
		"payments":  payments,
		"bill_paid": bill.Paid,
	})
}

// MarkBillPaid menandai bill lunas, lewat payment yang ada atau
// pembayaran manual baru.
func (bc *BillController) MarkBillPaid(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("bill_id"))

	var bill models.Bill
	if err := bc.DB.Preload("Student").First(&bill, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if bill.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("bill belongs to another mess"))
		return
	}

	var req struct {
		PaymentID *uint  `json:"payment_id"`
		Method    string `json:"method"`
		Reference string `json:"reference"`
		Notes     string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	verifier := bc.verifierName(c)

	if err := bc.Service.MarkBillPaid(bill.ID, req.PaymentID, req.Method, req.Reference, req.Notes, verifier); err != nil {
		switch {
		case errors.Is(err, services.ErrBillAlreadyPaid),
			errors.Is(err, services.ErrPaymentVerified),
			errors.Is(err, services.ErrPaymentNotForBill):
			utils.RespondError(c, http.StatusBadRequest, err)
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid payment reference provided"))
		default:
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	utils.RespondJSON(c, http.StatusOK,
		fmt.Sprintf("Bill #%d for %s marked as paid", bill.ID, bill.Student.Name), nil)
}

// DeleteBill menghapus bill. Bill yang sudah paid tidak bisa dihapus.
func (bc *BillController) DeleteBill(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("bill_id"))

	var bill models.Bill
	if err := bc.DB.Preload("Student").First(&bill, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if bill.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("bill belongs to another mess"))
		return
	}

	if bill.Paid {
		utils.RespondError(c, http.StatusBadRequest, errors.New("cannot delete a paid bill"))
		return
	}

	err := bc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", bill.ID).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&bill).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK,
		fmt.Sprintf("Bill for %s (%d/%d) deleted successfully",
			bill.Student.Name, bill.Month, bill.Year), nil)
}

func (bc *BillController) verifierName(c *gin.Context) string {
	var user models.User
	if err := bc.DB.First(&user, c.GetUint("user_id")).Error; err != nil {
		return "admin"
	}
	return user.Username
}
