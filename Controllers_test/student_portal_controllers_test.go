package Controllers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/yeremiapane/mess-management/controllers"
	"github.com/yeremiapane/mess-management/models"
)

func setupPortalRouter(db *gorm.DB, student *models.Student) *gin.Engine {
	router := gin.Default()
	portalCtrl := controllers.NewStudentPortalController(db)

	router.POST("/student/login", portalCtrl.Login)

	portal := router.Group("/student")
	portal.Use(asStudent(student))
	portal.GET("/dashboard", portalCtrl.Dashboard)
	portal.GET("/attendance", portalCtrl.GetMyAttendance)
	portal.GET("/bills", portalCtrl.GetMyBills)
	portal.GET("/bills/:bill_id/upi-link", portalCtrl.GenerateUpiLink)
	portal.GET("/profile", portalCtrl.GetProfile)
	portal.PATCH("/profile", portalCtrl.UpdateProfile)
	return router
}

func TestStudentLogin(t *testing.T) {
	db := setupTestDB()
	mess, _ := seedMess(db, "portal-login", 100)
	student := seedStudent(db, mess.ID, "Portal User", "STU0501")
	seedBill(db, student, 1, 100)
	router := setupPortalRouter(db, student)

	w := doJSON(router, "POST", "/student/login", map[string]string{
		"roll_no":  "STU0501",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseBody(w)
	data := resp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	counts := data["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["unpaid_bills"])

	// Password salah
	w = doJSON(router, "POST", "/student/login", map[string]string{
		"roll_no":  "STU0501",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStudentDashboard(t *testing.T) {
	db := setupTestDB()
	mess, _ := seedMess(db, "portal-dash", 100)
	student := seedStudent(db, mess.ID, "Dash User", "STU0502")
	router := setupPortalRouter(db, student)

	now := time.Now()
	seedAttendance(db, student.ID, now, models.MealLunch)
	seedAttendance(db, student.ID, now, models.MealDinner)

	w := doJSON(router, "GET", "/student/dashboard", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseBody(w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["month_meals"])
	assert.Equal(t, float64(1), data["lunch_count"])
	assert.Equal(t, float64(1), data["dinner_count"])
	todayMeals := data["today_meals"].([]interface{})
	assert.Len(t, todayMeals, 2)
}

func TestGenerateUpiLink(t *testing.T) {
	db := setupTestDB()
	mess := models.Mess{
		Name: "portal-upi", DailyMealRate: 100,
		UpiID: "canteen@upi", UpiName: "Canteen Mess", IsActive: true,
	}
	assert.NoError(t, db.Create(&mess).Error)
	student := seedStudent(db, mess.ID, "UPI User", "STU0503")
	bill := seedBill(db, student, 2, 350.50)
	router := setupPortalRouter(db, student)

	w := doJSON(router, "GET", "/student/bills/"+itoa(bill.ID)+"/upi-link", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseBody(w)
	data := resp["data"].(map[string]interface{})
	upi := data["upi"].(map[string]interface{})
	link := upi["upi_link"].(string)
	assert.True(t, strings.HasPrefix(link, "upi://pay?"))
	assert.Contains(t, link, "pa=canteen@upi")
	assert.Contains(t, link, "am=350.50")
	assert.Contains(t, link, "cu=INR")

	txnRef := upi["transaction_ref"].(string)
	assert.Contains(t, link, "tr="+txnRef)

	qr := data["qr_code"].(string)
	assert.True(t, strings.HasPrefix(qr, "data:image/png;base64,"))
}

func TestGenerateUpiLinkPaidBill(t *testing.T) {
	db := setupTestDB()
	mess, _ := seedMess(db, "portal-paid", 100)
	student := seedStudent(db, mess.ID, "Paid User", "STU0504")
	bill := seedBill(db, student, 3, 100)
	db.Model(bill).Update("paid", true)
	router := setupPortalRouter(db, student)

	w := doJSON(router, "GET", "/student/bills/"+itoa(bill.ID)+"/upi-link", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudentCannotSeeOthersBill(t *testing.T) {
	db := setupTestDB()
	mess, _ := seedMess(db, "portal-isolation", 100)
	student := seedStudent(db, mess.ID, "Snooper", "STU0505")
	victim := seedStudent(db, mess.ID, "Victim", "STU0506")
	victimBill := seedBill(db, victim, 4, 100)
	router := setupPortalRouter(db, student)

	w := doJSON(router, "GET", "/student/bills/"+itoa(victimBill.ID)+"/upi-link", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStudentAttendanceHistoryFilters(t *testing.T) {
	db := setupTestDB()
	mess, _ := seedMess(db, "portal-history", 100)
	student := seedStudent(db, mess.ID, "Historian", "STU0507")
	router := setupPortalRouter(db, student)

	march := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedAttendance(db, student.ID, march, models.MealLunch)
	seedAttendance(db, student.ID, march, models.MealDinner)
	seedAttendance(db, student.ID, march.AddDate(0, 1, 0), models.MealLunch)

	w := doJSON(router, "GET", "/student/attendance?month=3&year=2026", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseBody(w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])

	w = doJSON(router, "GET", "/student/attendance?month=3&year=2026&meal_type=lunch", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp = parseBody(w)
	data = resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
}

func TestStudentUpdateProfilePassword(t *testing.T) {
	db := setupTestDB()
	mess, _ := seedMess(db, "portal-profile", 100)
	student := seedStudent(db, mess.ID, "Changer", "STU0508")
	router := setupPortalRouter(db, student)

	// Password lama salah -> ditolak
	w := doJSON(router, "PATCH", "/student/profile", map[string]string{
		"current_password": "wrong",
		"new_password":     "newsecret",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, "PATCH", "/student/profile", map[string]string{
		"current_password": "secret123",
		"new_password":     "newsecret",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Login pakai password baru
	w = doJSON(router, "POST", "/student/login", map[string]string{
		"roll_no":  "STU0508",
		"password": "newsecret",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
