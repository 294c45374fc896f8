package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yeremiapane/mess-management/config"
	"github.com/yeremiapane/mess-management/database"
	"github.com/yeremiapane/mess-management/models"
	"github.com/yeremiapane/mess-management/router"
	"github.com/yeremiapane/mess-management/services"
	"github.com/yeremiapane/mess-management/utils"
	"gorm.io/gorm"
)

func init() {
	// Load .env file di awal sebelum apapun
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	// Initialize DB
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	// Simpan koneksi database ke utils untuk digunakan di controller
	utils.InitDB(db)

	// Set gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Seed default mess + admin account kalau database masih kosong
	if err := database.Bootstrap(db); err != nil {
		utils.ErrorLogger.Fatalf("Bootstrap failed: %v", err)
	}

	// Sweeper untuk menonaktifkan QR session yang sudah expired
	sessionService := services.NewSessionService(db)
	sessionService.StartExpirySweeper()

	// Bersihkan token blacklist yang sudah kadaluarsa tiap jam
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			utils.CleanupBlacklist()
		}
	}()

	// Setup router (termasuk rate limiter global per IP)
	r := router.SetupRouter(db)

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	// Run server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
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
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
