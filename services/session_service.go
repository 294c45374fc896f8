package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/yeremiapane/mess-management/feed"
	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/utils"
	"gorm.io/gorm"
)

var (
	ErrSessionInvalid      = errors.New("session expired or invalid")
	ErrDuplicateAttendance = errors.New("attendance already marked for this meal")
)

// SessionService menangani lifecycle attendance session QR.
type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// newToken -> 32 byte acak, url-safe, dipakai di scan URL.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateSession membuka window check-in untuk satu meal type.
// Durasi dalam menit, default 120.
func (s *SessionService) CreateSession(messID uint, mealType, createdBy string, durationMinutes int) (*models.AttendanceSession, error) {
	if mealType == "" {
		mealType = models.CurrentMealType(time.Now())
	}
	if durationMinutes <= 0 {
		durationMinutes = 120
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := models.AttendanceSession{
		Token:     token,
		Date:      models.DateOnly(now),
		MealType:  mealType,
		CreatedBy: createdBy,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(durationMinutes) * time.Minute),
		IsActive:  true,
		MessID:    messID,
	}

	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}

	feed.BroadcastSessionCreated(session)
	return &session, nil
}

// SubmitScan mencatat attendance lewat token session. Duplikat
// (student, tanggal session, meal type) ditolak.
func (s *SessionService) SubmitScan(token string, studentID uint) (*models.Attendance, error) {
	var session models.AttendanceSession
	if err := s.db.Where("token = ?", token).First(&session).Error; err != nil {
		return nil, ErrSessionInvalid
	}
	if !session.IsValid(time.Now()) {
		return nil, ErrSessionInvalid
	}

	var student models.Student
	if err := s.db.First(&student, studentID).Error; err != nil {
		return nil, err
	}

	var existing models.Attendance
	err := s.db.Where("student_id = ? AND date = ? AND meal_type = ?",
		studentID, session.Date, session.MealType).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateAttendance
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	attendance := models.Attendance{
		StudentID: studentID,
		Date:      session.Date,
		MealType:  session.MealType,
		Timestamp: time.Now(),
		Method:    models.MethodQRScan,
		MarkedBy:  student.Name,
		SessionID: &session.ID,
	}
	if err := s.db.Create(&attendance).Error; err != nil {
		return nil, err
	}

	attendance.Student = student
	feed.BroadcastAttendanceMarked(session.MessID, attendance)
	return &attendance, nil
}

// CloseSession menutup session lebih awal.
func (s *SessionService) CloseSession(sessionID, messID uint) (*models.AttendanceSession, error) {
	var session models.AttendanceSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, err
	}
	if session.MessID != messID {
		return nil, gorm.ErrRecordNotFound
	}

	session.IsActive = false
	if err := s.db.Save(&session).Error; err != nil {
		return nil, err
	}

	feed.BroadcastSessionClosed(session)
	return &session, nil
}

// StartExpirySweeper menjalankan goroutine yang menonaktifkan session
// yang sudah melewati expires_at.
func (s *SessionService) StartExpirySweeper() {
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			s.sweepExpired()
		}
	}()
}

func (s *SessionService) sweepExpired() {
	var expired []models.AttendanceSession
	if err := s.db.Where("is_active = ? AND expires_at < ?", true, time.Now()).
		Find(&expired).Error; err != nil {
		utils.ErrorLogger.Printf("Error sweeping expired sessions: %v", err)
		return
	}

	for i := range expired {
		expired[i].IsActive = false
		if err := s.db.Save(&expired[i]).Error; err != nil {
			utils.ErrorLogger.Printf("Error closing session %d: %v", expired[i].ID, err)
			continue
		}
		feed.BroadcastSessionClosed(expired[i])
		utils.InfoLogger.Printf("Session %d (%s) expired and closed", expired[i].ID, expired[i].MealType)
	}
}
