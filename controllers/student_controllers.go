package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type StudentController struct {
	DB *gorm.DB
}

func NewStudentController(db *gorm.DB) *StudentController {
	return &StudentController{DB: db}
}

const studentsPerPage = 50

// GetAllStudents -> daftar student mess ini, paginasi 50 per halaman.
func (sc *StudentController) GetAllStudents(c *gin.Context) {
	messID := c.GetUint("mess_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	var total int64
	sc.DB.Model(&models.Student{}).Where("mess_id = ?", messID).Count(&total)

	var students []models.Student
	if err := sc.DB.Where("mess_id = ?", messID).
		Order("id ASC").
		Offset((page - 1) * studentsPerPage).
		Limit(studentsPerPage).
		Find(&students).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of students", gin.H{
		"students": students,
		"page":     page,
		"total":    total,
	})
}

// nextRollNo menghasilkan roll number berurutan (STU0001, STU0002, ...)
func (sc *StudentController) nextRollNo() string {
	var last models.Student
	err := sc.DB.Order("id DESC").First(&last).Error
	if err != nil || !strings.HasPrefix(last.RollNo, "STU") {
		return "STU0001"
	}

	if n, convErr := strconv.Atoi(last.RollNo[3:]); convErr == nil {
		return fmt.Sprintf("STU%04d", n+1)
	}
	return fmt.Sprintf("STU%04d", last.ID+1)
}

// AddStudent membuat student baru dengan roll number otomatis dan
// password sementara yang dikembalikan sekali di response.
func (sc *StudentController) AddStudent(c *gin.Context) {
	type request struct {
		Name       string `json:"name" binding:"required"`
		Department string `json:"department"`
		Contact    string `json:"contact"`
		Email      string `json:"email"`
		Address    string `json:"address"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Contact != "" {
		for _, ch := range req.Contact {
			if ch < '0' || ch > '9' {
				utils.RespondError(c, http.StatusBadRequest, errors.New("contact number should contain only digits"))
				return
			}
		}
	}

	tempPassword, err := utils.GenerateTempPassword(10)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	student := models.Student{
		Name:         req.Name,
		RollNo:       sc.nextRollNo(),
		Department:   req.Department,
		Contact:      req.Contact,
		Email:        req.Email,
		Address:      req.Address,
		PasswordHash: string(hashed),
		MessID:       c.GetUint("mess_id"),
	}

	if err := sc.DB.Create(&student).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Student added: %s (%s)", student.Name, student.RollNo)

	utils.RespondJSON(c, http.StatusCreated, "Student added successfully", gin.H{
		"student":       student,
		"temp_password": tempPassword,
	})
}

// UpdateStudent mengubah data kontak student.
func (sc *StudentController) UpdateStudent(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("student_id"))

	var student models.Student
	if err := sc.DB.First(&student, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if student.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("student belongs to another mess"))
		return
	}

	var req struct {
		Name       *string `json:"name"`
		Department *string `json:"department"`
		Contact    *string `json:"contact"`
		Email      *string `json:"email"`
		Address    *string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			utils.RespondError(c, http.StatusBadRequest, errors.New("name is required"))
			return
		}
		student.Name = *req.Name
	}
	if req.Department != nil {
		student.Department = *req.Department
	}
	if req.Contact != nil {
		student.Contact = *req.Contact
	}
	if req.Email != nil {
		student.Email = *req.Email
	}
	if req.Address != nil {
		student.Address = *req.Address
	}

	if err := sc.DB.Save(&student).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Student updated successfully", student)
}

// DeleteStudent menghapus student beserta attendance, bill dan payment-nya.
func (sc *StudentController) DeleteStudent(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("student_id"))

	var student models.Student
	if err := sc.DB.First(&student, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if student.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("student belongs to another mess"))
		return
	}

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", student.ID).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", student.ID).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", student.ID).Delete(&models.Bill{}).Error; err != nil {
			return err
		}
		return tx.Delete(&student).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Student deleted: %s (%s)", student.Name, student.RollNo)

	utils.RespondJSON(c, http.StatusOK, "Student and all associated records deleted", gin.H{
		"student_id": student.ID,
	})
}

// ResetStudentPassword membuat password sementara baru untuk student.
func (sc *StudentController) ResetStudentPassword(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("student_id"))

	var student models.Student
	if err := sc.DB.First(&student, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if student.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("student belongs to another mess"))
		return
	}

	newPassword, err := utils.GenerateTempPassword(10)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	student.PasswordHash = string(hashed)
	if err := sc.DB.Save(&student).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, fmt.Sprintf("Password reset for %s", student.Name), gin.H{
		"password": newPassword,
	})
}

// GetStudentQR -> PNG QR berisi identitas student untuk kartu ID.
func (sc *StudentController) GetStudentQR(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("student_id"))

	var student models.Student
	if err := sc.DB.First(&student, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if student.MessID != c.GetUint("mess_id") {
		utils.RespondError(c, http.StatusForbidden, errors.New("student belongs to another mess"))
		return
	}

	payload, err := json.Marshal(gin.H{
		"student_id": student.ID,
		"roll_no":    student.RollNo,
		"name":       student.Name,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	png, err := qrcode.Encode(string(payload), qrcode.High, 256)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
