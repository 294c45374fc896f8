package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/utils"
	"gorm.io/gorm"
)

type AdminController struct {
	DB *gorm.DB
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{DB: db}
}

// GetDashboardStats -> angka ringkasan untuk dashboard admin.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	messID := c.GetUint("mess_id")
	today := models.DateOnly(time.Now())

	var totalStudents int64
	ac.DB.Model(&models.Student{}).Where("mess_id = ?", messID).Count(&totalStudents)

	var todayLunch, todayDinner int64
	ac.DB.Model(&models.Attendance{}).
		Joins("JOIN students ON students.id = attendances.student_id").
		Where("students.mess_id = ? AND attendances.date = ? AND attendances.meal_type = ?",
			messID, today, models.MealLunch).
		Count(&todayLunch)
	ac.DB.Model(&models.Attendance{}).
		Joins("JOIN students ON students.id = attendances.student_id").
		Where("students.mess_id = ? AND attendances.date = ? AND attendances.meal_type = ?",
			messID, today, models.MealDinner).
		Count(&todayDinner)

	var unpaidBills int64
	var unpaidAmount float64
	ac.DB.Model(&models.Bill{}).
		Where("mess_id = ? AND paid = ?", messID, false).Count(&unpaidBills)
	ac.DB.Model(&models.Bill{}).
		Where("mess_id = ? AND paid = ?", messID, false).
		Select("COALESCE(SUM(amount), 0)").Scan(&unpaidAmount)

	var pendingPayments int64
	ac.DB.Model(&models.Payment{}).
		Where("mess_id = ? AND status = ?", messID, models.PaymentSubmitted).
		Count(&pendingPayments)

	var activeSessions int64
	ac.DB.Model(&models.AttendanceSession{}).
		Where("mess_id = ? AND is_active = ? AND expires_at > ?", messID, true, time.Now()).
		Count(&activeSessions)

	utils.RespondJSON(c, http.StatusOK, "Dashboard statistics", gin.H{
		"total_students":   totalStudents,
		"today_lunch":      todayLunch,
		"today_dinner":     todayDinner,
		"today_meals":      todayLunch + todayDinner,
		"unpaid_bills":     unpaidBills,
		"unpaid_amount":    unpaidAmount,
		"pending_payments": pendingPayments,
		"active_sessions":  activeSessions,
	})
}
