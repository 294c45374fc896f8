package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/utils"
)

var testDBCounter int64

// setupTestDB menggunakan SQLite in-memory untuk testing. Nama unik per
// test supaya state tidak bocor antar test.
func setupTestDB() *gorm.DB {
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	// AutoMigrate semua model yang diperlukan
	err = db.AutoMigrate(
		&models.Mess{},
		&models.User{},
		&models.Student{},
		&models.Setting{},
		&models.Attendance{},
		&models.AttendanceSession{},
		&models.Bill{},
		&models.Payment{},
	)
	if err != nil {
		panic(err)
	}

	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	return db
}

// seedMess membuat satu mess + admin untuk testing.
func seedMess(db *gorm.DB, name string, rate float64) (*models.Mess, *models.User) {
	mess := models.Mess{Name: name, DailyMealRate: rate, IsActive: true}
	if err := db.Create(&mess).Error; err != nil {
		panic(err)
	}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := models.User{
		Username:     name + "-admin",
		PasswordHash: string(hashed),
		IsAdmin:      true,
		MessID:       &mess.ID,
	}
	if err := db.Create(&admin).Error; err != nil {
		panic(err)
	}
	return &mess, &admin
}

// seedStudent membuat student dengan password "secret123".
func seedStudent(db *gorm.DB, messID uint, name, rollNo string) *models.Student {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	student := models.Student{
		Name:         name,
		RollNo:       rollNo,
		PasswordHash: string(hashed),
		MessID:       messID,
	}
	if err := db.Create(&student).Error; err != nil {
		panic(err)
	}
	return &student
}

// seedAttendance menambahkan satu record attendance manual.
func seedAttendance(db *gorm.DB, studentID uint, date time.Time, mealType string) *models.Attendance {
	attendance := models.Attendance{
		StudentID: studentID,
		Date:      models.DateOnly(date),
		MealType:  mealType,
		Timestamp: date,
		Method:    models.MethodManual,
		MarkedBy:  "tester",
	}
	if err := db.Create(&attendance).Error; err != nil {
		panic(err)
	}
	return &attendance
}

// asStaff menginjeksi context keys yang biasanya diisi AuthMiddleware.
func asStaff(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", user.ID)
		c.Set("is_admin", user.IsAdmin)
		if user.MessID != nil {
			c.Set("mess_id", *user.MessID)
		}
		c.Next()
	}
}

// asStudent menginjeksi context keys dari StudentAuthMiddleware.
func asStudent(student *models.Student) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("student_id", student.ID)
		c.Set("mess_id", student.MessID)
		c.Next()
	}
}

// doJSON mengirim request JSON ke router dan mengembalikan recorder.
func doJSON(router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			panic(err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, body)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func itoa(id uint) string {
	return fmt.Sprintf("%d", id)
}

// parseBody -> unmarshal response envelope {status, message, data}.
func parseBody(w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		panic(err)
	}
	return resp
}
