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

type PaymentController struct {
	DB      *gorm.DB
	Service *services.BillingService
}

func NewPaymentController(db *gorm.DB) *PaymentController {
	return &PaymentController{
		DB:      db,
		Service: services.NewBillingService(db),
	}
}

// GetPendingPayments -> semua payment berstatus submitted di mess ini.
func (pc *PaymentController) GetPendingPayments(c *gin.Context) {
	messID := c.GetUint("mess_id")

	var payments []models.Payment
	if err := pc.DB.Preload("Student").Preload("Bill").
		Where("mess_id = ? AND status = ?", messID, models.PaymentSubmitted).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	rows := make([]gin.H, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, gin.H{
			"payment":      p,
			"student_name": p.Student.Name,
			"roll_no":      p.Student.RollNo,
			"bill_month":   p.Bill.Month,
			"bill_year":    p.Bill.Year,
			"bill_amount":  p.Bill.Amount,
		})
	}

	utils.RespondJSON(c, http.StatusOK, "Payments awaiting verification", gin.H{
		"payments": rows,
		"count":    len(rows),
	})
}

// VerifyPayment menerima sebuah payment, menolak sibling submitted lain,
// dan menandai bill lunas.
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	payment, ok := pc.loadScoped(c)
	if !ok {
		return
	}

	verified, err := pc.Service.VerifyPayment(payment.ID, pc.verifierName(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentVerified),
			errors.Is(err, services.ErrBillAlreadyPaid):
			utils.RespondError(c, http.StatusBadRequest, err)
		default:
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	feed.BroadcastPaymentVerified(*verified)
	utils.InfoLogger.Printf("Payment #%d verified by %s", verified.ID, verified.VerifiedBy)

	utils.RespondJSON(c, http.StatusOK,
		fmt.Sprintf("Payment of %.2f verified, bill marked as paid", verified.Amount), verified)
}

// RejectPayment menolak sebuah payment submitted.
func (pc *PaymentController) RejectPayment(c *gin.Context) {
	payment, ok := pc.loadScoped(c)
	if !ok {
		return
	}

	rejected, err := pc.Service.RejectPayment(payment.ID, pc.verifierName(c))
	if err != nil {
		if errors.Is(err, services.ErrPaymentVerified) {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	feed.BroadcastPaymentRejected(*rejected)
	utils.InfoLogger.Printf("Payment #%d rejected by %s", rejected.ID, rejected.VerifiedBy)

	utils.RespondJSON(c, http.StatusOK,
		fmt.Sprintf("Payment of %.2f rejected", rejected.Amount), rejected)
}

// loadScoped loads the payment from :payment_id and enforces mess scoping.
func (pc *PaymentController) loadScoped(c *gin.Context) (*models.Payment, bool) {
	id, _ := strconv.Atoi(c.Param("payment_id"))

	var payment models.Payment
	if err := pc.DB.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("payment not found"))
		} else {
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return nil, false
	}
	if payment.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("payment belongs to another mess"))
		return nil, false
	}
	return &payment, true
}

func (pc *PaymentController) verifierName(c *gin.Context) string {
	var user models.User
	if err := pc.DB.First(&user, c.GetUint("user_id")).Error; err != nil {
		return "admin"
	}
	return user.Username
}
