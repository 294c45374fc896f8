package controllers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/yeremiapane/mess-management/feed"
	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/services"
	"github.com/yeremiapane/mess-management/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// StudentPortalController melayani endpoint self-service untuk student
// (login pakai roll number, lihat attendance/bill sendiri, submit payment).
type StudentPortalController struct {
	DB      *gorm.DB
	Billing *services.BillingService
}

func NewStudentPortalController(db *gorm.DB) *StudentPortalController {
	return &StudentPortalController{
		DB:      db,
		Billing: services.NewBillingService(db),
	}
}

// Login autentikasi student via roll_no + password.
func (sc *StudentPortalController) Login(c *gin.Context) {
	var req struct {
		RollNo   string `json:"roll_no" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var student models.Student
	if err := sc.DB.Where("roll_no = ?", req.RollNo).First(&student).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid roll number or password"))
		return
	}
	if student.PasswordHash == "" {
		utils.RespondError(c, http.StatusUnauthorized,
			errors.New("account has no password set, contact the mess admin"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid roll number or password"))
		return
	}

	token, err := utils.GenerateStudentToken(student.ID, student.MessID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var unpaidBills, pendingPayments, rejectedPayments int64
	sc.DB.Model(&models.Bill{}).
		Where("student_id = ? AND paid = ?", student.ID, false).Count(&unpaidBills)
	sc.DB.Model(&models.Payment{}).
		Where("student_id = ? AND status = ?", student.ID, models.PaymentSubmitted).Count(&pendingPayments)
	sc.DB.Model(&models.Payment{}).
		Where("student_id = ? AND status = ?", student.ID, models.PaymentRejected).Count(&rejectedPayments)

	utils.InfoLogger.Printf("Student %s (%s) logged in", student.Name, student.RollNo)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":   token,
		"student": student,
		"counts": gin.H{
			"unpaid_bills":      unpaidBills,
			"pending_payments":  pendingPayments,
			"rejected_payments": rejectedPayments,
		},
	})
}

// Logout men-blacklist token student.
func (sc *StudentPortalController) Logout(c *gin.Context) {
	token := c.GetString("token")
	if token != "" {
		utils.BlacklistToken(token)
	}
	utils.RespondJSON(c, http.StatusOK, "Logout successful", nil)
}

// Dashboard -> ringkasan bulan berjalan untuk student yang login.
func (sc *StudentPortalController) Dashboard(c *gin.Context) {
	student, ok := sc.currentStudent(c)
	if !ok {
		return
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)
	today := models.DateOnly(now)

	var monthMeals, lunchCount, dinnerCount int64
	sc.DB.Model(&models.Attendance{}).
		Where("student_id = ? AND date >= ? AND date < ?", student.ID, monthStart, nextMonth).
		Count(&monthMeals)
	sc.DB.Model(&models.Attendance{}).
		Where("student_id = ? AND date >= ? AND date < ? AND meal_type = ?",
			student.ID, monthStart, nextMonth, models.MealLunch).
		Count(&lunchCount)
	dinnerCount = monthMeals - lunchCount

	var todayMeals []models.Attendance
	sc.DB.Where("student_id = ? AND date = ?", student.ID, today).
		Order("timestamp ASC").Find(&todayMeals)

	// Bill bulan berjalan, kalau sudah digenerate
	var currentBill *models.Bill
	var bill models.Bill
	if err := sc.DB.Preload("Payments").
		Where("student_id = ? AND month = ? AND year = ?", student.ID, int(now.Month()), now.Year()).
		First(&bill).Error; err == nil {
		currentBill = &bill
	}

	var pendingPayment *models.Payment
	var payment models.Payment
	if err := sc.DB.
		Where("student_id = ? AND status = ?", student.ID, models.PaymentSubmitted).
		Order("created_at DESC").First(&payment).Error; err == nil {
		pendingPayment = &payment
	}

	var recentPayments []models.Payment
	sc.DB.Where("student_id = ?", student.ID).
		Order("created_at DESC").Limit(5).Find(&recentPayments)

	// Meals 7 hari terakhir untuk grafik kecil di dashboard
	type dayMeals struct {
		Date  string `json:"date"`
		Meals int64  `json:"meals"`
	}
	weekly := make([]dayMeals, 0, 7)
	for i := 6; i >= 0; i-- {
		day := models.DateOnly(now.AddDate(0, 0, -i))
		var count int64
		sc.DB.Model(&models.Attendance{}).
			Where("student_id = ? AND date = ?", student.ID, day).Count(&count)
		weekly = append(weekly, dayMeals{Date: day.Format("2006-01-02"), Meals: count})
	}

	resp := gin.H{
		"student":         student,
		"month":           monthNames[now.Month()-1],
		"month_meals":     monthMeals,
		"lunch_count":     lunchCount,
		"dinner_count":    dinnerCount,
		"today_meals":     todayMeals,
		"current_bill":    currentBill,
		"pending_payment": pendingPayment,
		"recent_payments": recentPayments,
		"weekly_meals":    weekly,
	}
	if currentBill != nil {
		resp["current_bill_status"] = currentBill.PaymentStatus()
	}

	utils.RespondJSON(c, http.StatusOK, "Student dashboard", resp)
}

// GetMyAttendance -> riwayat attendance student, filter month/year/meal_type.
func (sc *StudentPortalController) GetMyAttendance(c *gin.Context) {
	student, ok := sc.currentStudent(c)
	if !ok {
		return
	}

	now := time.Now()
	month, _ := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if month < 1 || month > 12 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid month"))
		return
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := sc.DB.Where("student_id = ? AND date >= ? AND date < ?", student.ID, start, end)
	if mealType := c.Query("meal_type"); mealType != "" {
		query = query.Where("meal_type = ?", mealType)
	}

	var records []models.Attendance
	if err := query.Order("date DESC").Order("timestamp DESC").Find(&records).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Attendance history", gin.H{
		"attendance": records,
		"month":      month,
		"year":       year,
		"total":      len(records),
	})
}

// GetMyBills -> semua bill student + agregat.
func (sc *StudentPortalController) GetMyBills(c *gin.Context) {
	student, ok := sc.currentStudent(c)
	if !ok {
		return
	}

	var bills []models.Bill
	if err := sc.DB.Preload("Payments").
		Where("student_id = ?", student.ID).
		Order("year DESC").Order("month DESC").
		Find(&bills).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var totalAmount, paidAmount float64
	var pendingVerification, rejected int
	rows := make([]gin.H, 0, len(bills))
	for i := range bills {
		status := bills[i].PaymentStatus()
		totalAmount += bills[i].Amount
		switch status {
		case models.BillStatusPaid:
			paidAmount += bills[i].Amount
		case models.BillStatusPendingVerification:
			pendingVerification++
		case models.BillStatusRejected:
			rejected++
		}
		rows = append(rows, gin.H{
			"bill":           bills[i],
			"month_name":     monthNames[bills[i].Month-1],
			"payment_status": status,
		})
	}

	utils.RespondJSON(c, http.StatusOK, "My bills", gin.H{
		"bills":                rows,
		"total_amount":         totalAmount,
		"paid_amount":          paidAmount,
		"total_due":            totalAmount - paidAmount,
		"pending_verification": pendingVerification,
		"rejected":             rejected,
	})
}

// GenerateUpiLink membuat deep link UPI + QR untuk membayar satu bill.
func (sc *StudentPortalController) GenerateUpiLink(c *gin.Context) {
	student, bill, ok := sc.ownBill(c)
	if !ok {
		return
	}

	if bill.Paid {
		utils.RespondError(c, http.StatusBadRequest, errors.New("bill is already paid"))
		return
	}

	link := services.BuildUpiLink(sc.DB, bill, student)

	png, err := qrcode.Encode(link.Link, qrcode.Medium, 256)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "UPI payment link generated", gin.H{
		"upi":     link,
		"qr_code": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		"bill_id": bill.ID,
		"amount":  bill.Amount,
	})
}

// SubmitPayment mencatat klaim pembayaran student untuk diverifikasi admin.
func (sc *StudentPortalController) SubmitPayment(c *gin.Context) {
	student, bill, ok := sc.ownBill(c)
	if !ok {
		return
	}

	var req struct {
		Amount    float64 `json:"amount" binding:"required"`
		Method    string  `json:"method"`
		Reference string  `json:"reference"`
		Notes     string  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	payment, err := sc.Billing.SubmitPayment(bill, req.Amount, req.Method, req.Reference, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBillAlreadyPaid),
			errors.Is(err, services.ErrInvalidAmount),
			errors.Is(err, services.ErrReferenceRequired),
			errors.Is(err, services.ErrUnsupportedMethod):
			utils.RespondError(c, http.StatusBadRequest, err)
		case errors.Is(err, services.ErrPaymentPending):
			utils.RespondError(c, http.StatusConflict, err)
		default:
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	feed.BroadcastPaymentSubmitted(*payment)
	utils.InfoLogger.Printf("Payment of %.2f submitted by %s for bill #%d",
		payment.Amount, student.RollNo, bill.ID)

	utils.RespondJSON(c, http.StatusCreated,
		"Payment submitted, awaiting verification by the mess admin", payment)
}

// GetBillPayments -> riwayat payment untuk satu bill milik student.
func (sc *StudentPortalController) GetBillPayments(c *gin.Context) {
	_, bill, ok := sc.ownBill(c)
	if !ok {
		return
	}

	var payments []models.Payment
	if err := sc.DB.Where("bill_id = ?", bill.ID).
		Order("created_at DESC").Find(&payments).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Bill payments", gin.H{
		"payments":       payments,
		"bill_paid":      bill.Paid,
		"payment_status": bill.PaymentStatus(),
	})
}

// GetProfile -> profil student yang login.
func (sc *StudentPortalController) GetProfile(c *gin.Context) {
	student, ok := sc.currentStudent(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Student profile", student)
}

// UpdateProfile update data kontak + opsional ganti password.
func (sc *StudentPortalController) UpdateProfile(c *gin.Context) {
	student, ok := sc.currentStudent(c)
	if !ok {
		return
	}

	var req struct {
		Contact         *string `json:"contact"`
		Email           *string `json:"email"`
		Address         *string `json:"address"`
		CurrentPassword string  `json:"current_password"`
		NewPassword     string  `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Contact != nil {
		if *req.Contact != "" && !isDigits(*req.Contact) {
			utils.RespondError(c, http.StatusBadRequest, errors.New("contact must contain digits only"))
			return
		}
		student.Contact = *req.Contact
	}
	if req.Email != nil {
		student.Email = *req.Email
	}
	if req.Address != nil {
		student.Address = *req.Address
	}

	if req.NewPassword != "" {
		if len(req.NewPassword) < 6 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("new password must be at least 6 characters"))
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("current password is incorrect"))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		student.PasswordHash = string(hash)
	}

	if err := sc.DB.Save(student).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile updated successfully", student)
}

// currentStudent loads the logged in student from the token claims.
func (sc *StudentPortalController) currentStudent(c *gin.Context) (*models.Student, bool) {
	var student models.Student
	if err := sc.DB.First(&student, c.GetUint("student_id")).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("student account not found"))
		return nil, false
	}
	return &student, true
}

// ownBill loads :bill_id and enforces that it belongs to the caller.
func (sc *StudentPortalController) ownBill(c *gin.Context) (*models.Student, *models.Bill, bool) {
	student, ok := sc.currentStudent(c)
	if !ok {
		return nil, nil, false
	}

	id, _ := strconv.Atoi(c.Param("bill_id"))
	var bill models.Bill
	if err := sc.DB.Preload("Payments").First(&bill, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("bill not found"))
		return nil, nil, false
	}
	if bill.StudentID != student.ID {
		utils.RespondError(c, http.StatusForbidden,
			fmt.Errorf("bill #%d does not belong to this account", bill.ID))
		return nil, nil, false
	}
	return student, &bill, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
