package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/mess-management/controllers"
	"github.com/yeremiapane/mess-management/models"
)

func setupStudentRouter(db *gorm.DB, staff gin.HandlerFunc) *gin.Engine {
	router := gin.Default()
	studentCtrl := controllers.NewStudentController(db)

	auth := router.Group("/admin")
	auth.Use(staff)
	auth.GET("/students", studentCtrl.GetAllStudents)
	auth.POST("/students", studentCtrl.AddStudent)
	auth.DELETE("/students/:student_id", studentCtrl.DeleteStudent)
	auth.POST("/students/:student_id/reset-password", studentCtrl.ResetStudentPassword)
	auth.GET("/students/:student_id/qr", studentCtrl.GetStudentQR)
	return router
}

func TestAddStudentGeneratesRollNoAndPassword(t *testing.T) {
	db := setupTestDB()
	_, admin := seedMess(db, "stu-add", 100)
	router := setupStudentRouter(db, asStaff(admin))

	w := doJSON(router, "POST", "/admin/students", map[string]string{
		"name":       "Arjun Mehta",
		"department": "CSE",
		"contact":    "9876543210",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	resp := parseBody(w)
	data := resp["data"].(map[string]interface{})
	created := data["student"].(map[string]interface{})
	assert.Equal(t, "STU0001", created["roll_no"])

	tempPassword := data["temp_password"].(string)
	assert.GreaterOrEqual(t, len(tempPassword), 6)

	// Password sementara harus cocok dengan hash yang tersimpan
	var student models.Student
	assert.NoError(t, db.Where("roll_no = ?", "STU0001").First(&student).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(student.PasswordHash), []byte(tempPassword)))

	// Student kedua dapat roll number berikutnya
	w = doJSON(router, "POST", "/admin/students", map[string]string{
		"name": "Second Student",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	resp = parseBody(w)
	created = resp["data"].(map[string]interface{})["student"].(map[string]interface{})
	assert.Equal(t, "STU0002", created["roll_no"])
}

func TestAddStudentRejectsBadContact(t *testing.T) {
	db := setupTestDB()
	_, admin := seedMess(db, "stu-contact", 100)
	router := setupStudentRouter(db, asStaff(admin))

	w := doJSON(router, "POST", "/admin/students", map[string]string{
		"name":    "Bad Contact",
		"contact": "98765-43210",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAllStudentsScopedToMess(t *testing.T) {
	db := setupTestDB()
	mess, admin := seedMess(db, "stu-scope", 100)
	other, _ := seedMess(db, "stu-scope-other", 100)
	seedStudent(db, mess.ID, "Mine", "STU0401")
	seedStudent(db, other.ID, "Theirs", "STU0402")
	router := setupStudentRouter(db, asStaff(admin))

	w := doJSON(router, "GET", "/admin/students", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseBody(w)
	data := resp["data"].(map[string]interface{})
	students := data["students"].([]interface{})
	assert.Len(t, students, 1)
	first := students[0].(map[string]interface{})
	assert.Equal(t, "Mine", first["name"])
}

func TestDeleteStudentCascades(t *testing.T) {
	db := setupTestDB()
	mess, admin := seedMess(db, "stu-cascade", 100)
	student := seedStudent(db, mess.ID, "Leaver", "STU0403")
	bill := seedBill(db, student, 1, 100)
	db.Create(&models.Payment{
		BillID: bill.ID, StudentID: student.ID, Amount: 100,
		Method: "upi", Reference: "TXN-LEAVE",
		Status: models.PaymentSubmitted, MessID: mess.ID,
	})
	router := setupStudentRouter(db, asStaff(admin))

	w := doJSON(router, "DELETE", "/admin/students/"+itoa(student.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var students, bills, payments int64
	db.Model(&models.Student{}).Where("id = ?", student.ID).Count(&students)
	db.Model(&models.Bill{}).Where("student_id = ?", student.ID).Count(&bills)
	db.Model(&models.Payment{}).Where("student_id = ?", student.ID).Count(&payments)
	assert.Equal(t, int64(0), students)
	assert.Equal(t, int64(0), bills)
	assert.Equal(t, int64(0), payments)
}

func TestResetStudentPassword(t *testing.T) {
	db := setupTestDB()
	mess, admin := seedMess(db, "stu-reset", 100)
	student := seedStudent(db, mess.ID, "Forgetful", "STU0404")
	oldHash := student.PasswordHash
	router := setupStudentRouter(db, asStaff(admin))

	w := doJSON(router, "POST", "/admin/students/"+itoa(student.ID)+"/reset-password", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseBody(w)
	data := resp["data"].(map[string]interface{})
	tempPassword := data["password"].(string)
	assert.NotEmpty(t, tempPassword)

	var updated models.Student
	db.First(&updated, student.ID)
	assert.NotEqual(t, oldHash, updated.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(updated.PasswordHash), []byte(tempPassword)))
}

func TestGetStudentQRReturnsPNG(t *testing.T) {
	db := setupTestDB()
	mess, admin := seedMess(db, "stu-qr", 100)
	student := seedStudent(db, mess.ID, "QR Holder", "STU0405")
	router := setupStudentRouter(db, asStaff(admin))

	w := doJSON(router, "GET", "/admin/students/"+itoa(student.ID)+"/qr", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}
