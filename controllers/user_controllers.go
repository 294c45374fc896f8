package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// Signup membuat Mess baru sekaligus user admin pertamanya dalam satu transaksi.
func (uc *UserController) Signup(c *gin.Context) {
	type request struct {
		MessName      string  `json:"mess_name" binding:"required"`
		AdminUsername string  `json:"admin_username" binding:"required"`
		AdminPassword string  `json:"admin_password" binding:"required"`
		DailyMealRate float64 `json:"daily_meal_rate" binding:"required"`
		UpiID         string  `json:"upi_id"`
		UpiName       string  `json:"upi_name"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if len(req.AdminPassword) < 6 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("admin password must be at least 6 characters"))
		return
	}
	if req.DailyMealRate <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("daily meal rate must be positive"))
		return
	}

	var count int64
	uc.DB.Model(&models.Mess{}).Where("name = ?", req.MessName).Count(&count)
	if count > 0 {
		utils.RespondError(c, http.StatusConflict, errors.New("mess name already exists"))
		return
	}
	uc.DB.Model(&models.User{}).Where("username = ?", req.AdminUsername).Count(&count)
	if count > 0 {
		utils.RespondError(c, http.StatusConflict, errors.New("admin username already taken"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	mess := models.Mess{
		Name:          req.MessName,
		DailyMealRate: req.DailyMealRate,
		UpiID:         req.UpiID,
		UpiName:       req.UpiName,
		IsActive:      true,
	}
	admin := models.User{
		Username:     req.AdminUsername,
		PasswordHash: string(hashed),
		IsAdmin:      true,
	}

	err = uc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&mess).Error; err != nil {
			return err
		}
		admin.MessID = &mess.ID
		return tx.Create(&admin).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	token, err := utils.GenerateToken(admin.ID, admin.IsAdmin, mess.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New mess registered: %s (admin=%s)", mess.Name, admin.Username)

	utils.RespondJSON(c, http.StatusCreated, "Mess created and admin account registered", gin.H{
		"mess_id": mess.ID,
		"user_id": admin.ID,
		"token":   token,
	})
}

// Login staff/admin -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := uc.DB.Where("username = ?", input.Username).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid username or password"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid username or password"))
		return
	}

	var messID uint
	if user.MessID != nil {
		messID = *user.MessID
	}

	token, err := utils.GenerateToken(user.ID, user.IsAdmin, messID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s", user.Username)

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":    token,
		"is_admin": user.IsAdmin,
		"mess_id":  messID,
	})
}

// Logout memasukkan token ke blacklist sampai kadaluarsa.
func (uc *UserController) Logout(c *gin.Context) {
	token := c.GetString("token")
	if token != "" {
		utils.BlacklistToken(token)
	}
	utils.RespondJSON(c, http.StatusOK, "Logged out successfully", nil)
}

// GetProfile -> data user dari JWT
func (uc *UserController) GetProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := uc.DB.Preload("Mess").First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	resp := gin.H{
		"id":       user.ID,
		"username": user.Username,
		"is_admin": user.IsAdmin,
	}
	if user.Mess != nil {
		resp["mess"] = user.Mess
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", resp)
}

// UpdateProfile mengganti username (cek unik dulu).
func (uc *UserController) UpdateProfile(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	userID := c.GetUint("user_id")
	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if req.Username != user.Username {
		var count int64
		uc.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
		if count > 0 {
			utils.RespondError(c, http.StatusConflict, errors.New("username already taken"))
			return
		}
		user.Username = req.Username
		if err := uc.DB.Save(&user).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Profile updated successfully", gin.H{
		"username": user.Username,
	})
}

// ChangePassword memvalidasi password lama sebelum mengganti.
func (uc *UserController) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
		ConfirmPassword string `json:"confirm_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	userID := c.GetUint("user_id")
	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("current password is incorrect"))
		return
	}
	if len(req.NewPassword) < 6 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("new password must be at least 6 characters"))
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		utils.RespondError(c, http.StatusBadRequest, errors.New("new passwords do not match"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user.PasswordHash = string(hashed)
	if err := uc.DB.Save(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Password changed successfully", nil)
}
