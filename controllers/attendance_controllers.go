package controllers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/mess-management/feed"
	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/utils"
	"gorm.io/gorm"
)

type AttendanceController struct {
	DB *gorm.DB
}

func NewAttendanceController(db *gorm.DB) *AttendanceController {
	return &AttendanceController{DB: db}
}

// getDateRange menerjemahkan filter dateRange menjadi (start, end) inklusif.
func getDateRange(rangeType, startArg, endArg string) (time.Time, time.Time) {
	today := models.DateOnly(time.Now())

	switch rangeType {
	case "yesterday":
		y := today.AddDate(0, 0, -1)
		return y, y
	case "thisWeek":
		offset := (int(today.Weekday()) + 6) % 7 // Monday = awal minggu
		return today.AddDate(0, 0, -offset), today
	case "lastWeek":
		offset := (int(today.Weekday()) + 6) % 7
		end := today.AddDate(0, 0, -offset-1)
		return end.AddDate(0, 0, -6), end
	case "thisMonth":
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), today
	case "custom":
		start, err1 := time.Parse("2006-01-02", startArg)
		end, err2 := time.Parse("2006-01-02", endArg)
		if err1 == nil && err2 == nil {
			return start, end
		}
	}
	return today, today
}

// MarkAttendance mencatat kehadiran manual untuk satu student, bisa
// beberapa meal type sekaligus. Duplikat per meal dilewati.
func (ac *AttendanceController) MarkAttendance(c *gin.Context) {
	type request struct {
		StudentID uint     `json:"student_id" binding:"required"`
		Date      string   `json:"date"`
		MealTypes []string `json:"meal_types"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var student models.Student
	if err := ac.DB.First(&student, req.StudentID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("student not found"))
		return
	}
	messID := c.GetUint("mess_id")
	if student.MessID != messID {
		utils.RespondError(c, http.StatusForbidden, errors.New("student belongs to another mess"))
		return
	}

	date := models.DateOnly(time.Now())
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid date format"))
			return
		}
		date = models.DateOnly(parsed)
	}

	mealTypes := req.MealTypes
	if len(mealTypes) == 0 {
		mealTypes = []string{models.CurrentMealType(time.Now())}
	}

	markedBy := ac.markerName(c)

	marked := 0
	skipped := make([]string, 0)
	for _, mealType := range mealTypes {
		if mealType != models.MealLunch && mealType != models.MealDinner {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid meal type"))
			return
		}

		var existing models.Attendance
		err := ac.DB.Where("student_id = ? AND date = ? AND meal_type = ?",
			req.StudentID, date, mealType).First(&existing).Error
		if err == nil {
			skipped = append(skipped, mealType)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}

		attendance := models.Attendance{
			StudentID: req.StudentID,
			Date:      date,
			MealType:  mealType,
			Timestamp: time.Now(),
			Method:    models.MethodManual,
			MarkedBy:  markedBy,
		}
		if err := ac.DB.Create(&attendance).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		attendance.Student = student
		feed.BroadcastAttendanceMarked(messID, attendance)
		marked++
	}

	if marked == 0 {
		utils.RespondError(c, http.StatusConflict,
			fmt.Errorf("attendance for %s already marked", strings.Join(skipped, ", ")))
		return
	}

	utils.RespondJSON(c, http.StatusCreated,
		fmt.Sprintf("Attendance marked successfully for %d meal(s)", marked), gin.H{
			"marked":  marked,
			"skipped": skipped,
		})
}

// markerName -> username staff yang melakukan marking, untuk kolom marked_by.
func (ac *AttendanceController) markerName(c *gin.Context) string {
	var user models.User
	if err := ac.DB.First(&user, c.GetUint("user_id")).Error; err != nil {
		return "staff"
	}
	return user.Username
}

// GetAttendance -> daftar attendance mess ini dengan filter tanggal,
// meal type dan sorting.
func (ac *AttendanceController) GetAttendance(c *gin.Context) {
	messID := c.GetUint("mess_id")
	start, end := getDateRange(
		c.DefaultQuery("dateRange", "today"),
		c.Query("startDate"),
		c.Query("endDate"),
	)

	query := ac.DB.Preload("Student").
		Joins("JOIN students ON students.id = attendances.student_id").
		Where("students.mess_id = ?", messID).
		Where("attendances.date BETWEEN ? AND ?", start, end)

	if mealType := c.DefaultQuery("mealType", "all"); mealType != "all" {
		query = query.Where("attendances.meal_type = ?", mealType)
	}

	switch c.DefaultQuery("sort", "recent") {
	case "name":
		query = query.Order("students.name ASC").Order("attendances.timestamp DESC")
	case "mealType":
		query = query.Order("attendances.meal_type ASC").Order("attendances.timestamp DESC")
	default:
		query = query.Order("attendances.timestamp DESC")
	}

	var records []models.Attendance
	if err := query.Find(&records).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Attendance records", gin.H{
		"records":    records,
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
	})
}

// UpdateAttendance mengganti tanggal dan/atau meal type, dengan cek duplikat.
func (ac *AttendanceController) UpdateAttendance(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("attendance_id"))

	var attendance models.Attendance
	if err := ac.DB.Preload("Student").First(&attendance, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if attendance.Student.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("attendance belongs to another mess"))
		return
	}

	var req struct {
		Date     string `json:"date"`
		MealType string `json:"meal_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	newDate := attendance.Date
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid date format"))
			return
		}
		newDate = models.DateOnly(parsed)
	}

	newMealType := attendance.MealType
	if req.MealType != "" {
		if req.MealType != models.MealLunch && req.MealType != models.MealDinner {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid meal type"))
			return
		}
		newMealType = req.MealType
	}

	if newDate.Equal(attendance.Date) && newMealType == attendance.MealType {
		utils.RespondJSON(c, http.StatusOK, "No changes detected", attendance)
		return
	}

	var duplicate models.Attendance
	err := ac.DB.Where("student_id = ? AND date = ? AND meal_type = ? AND id != ?",
		attendance.StudentID, newDate, newMealType, attendance.ID).First(&duplicate).Error
	if err == nil {
		utils.RespondError(c, http.StatusConflict,
			fmt.Errorf("attendance already exists for %s on %s (%s)",
				attendance.Student.Name, newDate.Format("2006-01-02"), newMealType))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	attendance.Date = newDate
	attendance.MealType = newMealType
	attendance.Timestamp = time.Now()

	if err := ac.DB.Save(&attendance).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Attendance updated successfully", attendance)
}

// DeleteAttendance menghapus satu record attendance.
func (ac *AttendanceController) DeleteAttendance(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("attendance_id"))

	var attendance models.Attendance
	if err := ac.DB.Preload("Student").First(&attendance, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if attendance.Student.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("attendance belongs to another mess"))
		return
	}

	if err := ac.DB.Delete(&attendance).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK,
		fmt.Sprintf("Deleted %s's %s attendance for %s",
			attendance.Student.Name, attendance.MealType, attendance.Date.Format("2006-01-02")),
		gin.H{"attendance_id": attendance.ID})
}

// ExportAttendance menulis attendance terfilter sebagai CSV download.
func (ac *AttendanceController) ExportAttendance(c *gin.Context) {
	messID := c.GetUint("mess_id")
	start, end := getDateRange(
		c.DefaultQuery("dateRange", "today"),
		c.Query("startDate"),
		c.Query("endDate"),
	)

	query := ac.DB.Preload("Student").
		Joins("JOIN students ON students.id = attendances.student_id").
		Where("students.mess_id = ?", messID).
		Where("attendances.date BETWEEN ? AND ?", start, end)

	if mealType := c.DefaultQuery("mealType", "all"); mealType != "all" {
		query = query.Where("attendances.meal_type = ?", mealType)
	}

	var records []models.Attendance
	if err := query.Order("attendances.date ASC").Order("students.name ASC").
		Find(&records).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("attendance_%s_to_%s.csv",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "text/csv")

	writer := csv.NewWriter(c.Writer)
	writer.Write([]string{"Date", "Time", "Student ID", "Student Name", "Meal", "Method", "Marked By"})

	for _, record := range records {
		writer.Write([]string{
			record.Date.Format("2006-01-02"),
			record.Timestamp.Format("15:04:05"),
			strconv.FormatUint(uint64(record.StudentID), 10),
			record.Student.Name,
			capitalize(record.MealType),
			capitalize(record.Method),
			record.MarkedBy,
		})
	}
	writer.Flush()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
