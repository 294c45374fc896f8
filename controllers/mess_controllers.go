package controllers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/services"
	"github.com/yeremiapane/mess-management/utils"
	"gorm.io/gorm"
)

type MessController struct {
	DB *gorm.DB
}

func NewMessController(db *gorm.DB) *MessController {
	return &MessController{DB: db}
}

// GetSettings -> konfigurasi billing efektif untuk mess user yang login.
// Urutan fallback: nilai mess -> tabel settings -> env.
func (mc *MessController) GetSettings(c *gin.Context) {
	messID := c.GetUint("mess_id")

	defaultID := os.Getenv("UPI_ID")
	if defaultID == "" {
		defaultID = "mess@oksbi"
	}
	defaultName := os.Getenv("UPI_NAME")
	if defaultName == "" {
		defaultName = "Mess Management"
	}

	upiID, upiName := services.EffectiveUpi(mc.DB, messID, defaultID, defaultName)

	utils.RespondJSON(c, http.StatusOK, "Current settings", gin.H{
		"daily_meal_rate": services.EffectiveDailyRate(mc.DB, messID),
		"upi_id":          upiID,
		"upi_name":        upiName,
	})
}

// UpdateSettings mengubah tarif harian dan identitas UPI mess.
func (mc *MessController) UpdateSettings(c *gin.Context) {
	var req struct {
		DailyMealRate *float64 `json:"daily_meal_rate"`
		UpiID         *string  `json:"upi_id"`
		UpiName       *string  `json:"upi_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	messID := c.GetUint("mess_id")
	var mess models.Mess
	if err := mc.DB.First(&mess, messID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if req.DailyMealRate != nil {
		if *req.DailyMealRate <= 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("daily meal rate must be positive"))
			return
		}
		mess.DailyMealRate = *req.DailyMealRate
	}
	if req.UpiID != nil {
		mess.UpiID = *req.UpiID
	}
	if req.UpiName != nil {
		mess.UpiName = *req.UpiName
	}

	if err := mc.DB.Save(&mess).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Settings updated for mess %d", mess.ID)

	utils.RespondJSON(c, http.StatusOK, "Settings updated successfully", mess)
}
