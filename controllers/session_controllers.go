package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/yeremiapane/mess-management/config"
	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/services"
	"github.com/yeremiapane/mess-management/utils"
	"gorm.io/gorm"
)

type SessionController struct {
	DB      *gorm.DB
	Service *services.SessionService
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{
		DB:      db,
		Service: services.NewSessionService(db),
	}
}

func scanURL(token string) string {
	return fmt.Sprintf("%s/scan/%s", config.BaseURL(), token)
}

// CreateSession membuka attendance session QR baru.
func (sc *SessionController) CreateSession(c *gin.Context) {
	var req struct {
		MealType string `json:"meal_type"`
		Duration int    `json:"duration"` // menit, default 120
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.MealType != "" && req.MealType != models.MealLunch && req.MealType != models.MealDinner {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid meal type"))
		return
	}

	var user models.User
	createdBy := "staff"
	if err := sc.DB.First(&user, c.GetUint("user_id")).Error; err == nil {
		createdBy = user.Username
	}

	session, err := sc.Service.CreateSession(c.GetUint("mess_id"), req.MealType, createdBy, req.Duration)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Attendance session created for %s (expires %s)",
		session.MealType, session.ExpiresAt.Format(time.RFC3339))

	utils.RespondJSON(c, http.StatusCreated,
		fmt.Sprintf("Session created for %s", session.MealType), gin.H{
			"session":  session,
			"scan_url": scanURL(session.Token),
		})
}

// GetActiveSessions -> session aktif hari ini untuk mess user yang login.
func (sc *SessionController) GetActiveSessions(c *gin.Context) {
	messID := c.GetUint("mess_id")

	var sessions []models.AttendanceSession
	if err := sc.DB.Where("mess_id = ? AND date = ? AND is_active = ?",
		messID, models.DateOnly(time.Now()), true).
		Order("created_at DESC").
		Find(&sessions).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	for i := range sessions {
		sc.DB.Model(&models.Attendance{}).
			Where("session_id = ?", sessions[i].ID).
			Count(&sessions[i].AttendanceCount)
	}

	utils.RespondJSON(c, http.StatusOK, "Active sessions", sessions)
}

// GetSessionQR -> PNG QR berisi scan URL untuk session.
func (sc *SessionController) GetSessionQR(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("session_id"))

	var session models.AttendanceSession
	if err := sc.DB.First(&session, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if session.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("session belongs to another mess"))
		return
	}

	png, err := qrcode.Encode(scanURL(session.Token), qrcode.Medium, 320)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// CloseSession menutup session sebelum expired.
func (sc *SessionController) CloseSession(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("session_id"))

	session, err := sc.Service.CloseSession(uint(id), c.GetUint("mess_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("session not found"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session closed successfully", session)
}

// ScanInfo -> halaman scan publik: info session + roster student mess itu.
func (sc *SessionController) ScanInfo(c *gin.Context) {
	token := c.Param("token")

	var session models.AttendanceSession
	if err := sc.DB.Where("token = ?", token).First(&session).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("invalid QR code"))
		return
	}

	if !session.IsValid(time.Now()) {
		utils.RespondError(c, http.StatusGone, errors.New("this session has expired"))
		return
	}

	var students []models.Student
	if err := sc.DB.Where("mess_id = ?", session.MessID).
		Order("name ASC").Find(&students).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session is active", gin.H{
		"session":  session,
		"students": students,
	})
}

// SubmitScan mencatat attendance dari scan QR (tanpa auth, dilindungi token).
func (sc *SessionController) SubmitScan(c *gin.Context) {
	token := c.Param("token")

	var req struct {
		StudentID uint `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("please select your name"))
		return
	}

	attendance, err := sc.Service.SubmitScan(token, req.StudentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionInvalid):
			utils.RespondError(c, http.StatusGone, err)
		case errors.Is(err, services.ErrDuplicateAttendance):
			utils.RespondError(c, http.StatusConflict,
				fmt.Errorf("you have already marked attendance for %s", attendanceMeal(sc.DB, token)))
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.RespondError(c, http.StatusNotFound, errors.New("student not found"))
		default:
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	utils.RespondJSON(c, http.StatusCreated,
		fmt.Sprintf("Attendance marked successfully for %s!", attendance.Student.Name),
		attendance)
}

func attendanceMeal(db *gorm.DB, token string) string {
	var session models.AttendanceSession
	if err := db.Where("token = ?", token).First(&session).Error; err != nil {
		return "this meal"
	}
	return session.MealType
}
