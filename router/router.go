package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/mess-management/controllers"
	"github.com/yeremiapane/mess-management/middlewares"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// Rate limiter global per IP, harus dipasang sebelum registrasi route
	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(db)
	messCtrl := controllers.NewMessController(db)
	studentCtrl := controllers.NewStudentController(db)
	attendanceCtrl := controllers.NewAttendanceController(db)
	sessionCtrl := controllers.NewSessionController(db)
	billCtrl := controllers.NewBillController(db)
	paymentCtrl := controllers.NewPaymentController(db)
	portalCtrl := controllers.NewStudentPortalController(db)
	adminCtrl := controllers.NewAdminController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter untuk signup/login
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/signup", userCtrl.Signup)
		public.POST("/login", userCtrl.Login)
		public.POST("/student/login", portalCtrl.Login)
	}

	// QR scan endpoints - student membuka link dari QR, tanpa auth staff
	r.GET("/scan/:token", sessionCtrl.ScanInfo)
	r.POST("/scan/:token", sessionCtrl.SubmitScan)

	// ----------------------------------------------------------------
	//                      STAFF/ADMIN ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.POST("/logout", userCtrl.Logout)
	auth.GET("/profile", userCtrl.GetProfile)
	auth.PATCH("/profile", userCtrl.UpdateProfile)
	auth.POST("/profile/change-password", userCtrl.ChangePassword)

	// MESS SETTINGS
	auth.GET("/settings", messCtrl.GetSettings)
	auth.PATCH("/settings", messCtrl.UpdateSettings)

	// STUDENTS
	auth.GET("/students", studentCtrl.GetAllStudents)
	auth.POST("/students", studentCtrl.AddStudent)
	auth.PATCH("/students/:student_id", studentCtrl.UpdateStudent)
	auth.DELETE("/students/:student_id", studentCtrl.DeleteStudent)
	auth.POST("/students/:student_id/reset-password", studentCtrl.ResetStudentPassword)
	auth.GET("/students/:student_id/qr", studentCtrl.GetStudentQR)

	// ATTENDANCE
	auth.GET("/attendance", attendanceCtrl.GetAttendance)
	auth.POST("/attendance", attendanceCtrl.MarkAttendance)
	auth.PATCH("/attendance/:attendance_id", attendanceCtrl.UpdateAttendance)
	auth.DELETE("/attendance/:attendance_id", attendanceCtrl.DeleteAttendance)
	auth.GET("/attendance/export", attendanceCtrl.ExportAttendance)

	// QR SESSIONS
	auth.POST("/sessions", sessionCtrl.CreateSession)
	auth.GET("/sessions/active", sessionCtrl.GetActiveSessions)
	auth.GET("/sessions/:session_id/qr", sessionCtrl.GetSessionQR)
	auth.POST("/sessions/:session_id/close", sessionCtrl.CloseSession)

	// BILLS
	auth.POST("/bills", billCtrl.GenerateBill)
	auth.GET("/bills", billCtrl.GetAllBills)
	auth.GET("/bills/:bill_id", billCtrl.GetBillByID)
	auth.DELETE("/bills/:bill_id", billCtrl.DeleteBill)
	auth.GET("/bills/:bill_id/payments", billCtrl.GetBillPayments)
	auth.POST("/bills/:bill_id/mark-paid", billCtrl.MarkBillPaid)

	// PAYMENTS
	auth.GET("/payments/pending", paymentCtrl.GetPendingPayments)
	auth.POST("/payments/:payment_id/verify", paymentCtrl.VerifyPayment)
	auth.POST("/payments/:payment_id/reject", paymentCtrl.RejectPayment)

	// DASHBOARD
	auth.GET("/dashboard/stats", adminCtrl.GetDashboardStats)

	// ----------------------------------------------------------------
	//                      STUDENT PORTAL ROUTES
	// ----------------------------------------------------------------
	student := r.Group("/student")
	student.Use(middlewares.StudentAuthMiddleware())

	student.POST("/logout", portalCtrl.Logout)
	student.GET("/dashboard", portalCtrl.Dashboard)
	student.GET("/attendance", portalCtrl.GetMyAttendance)
	student.GET("/bills", portalCtrl.GetMyBills)
	student.GET("/bills/:bill_id/upi-link", portalCtrl.GenerateUpiLink)
	student.POST("/bills/:bill_id/payments", portalCtrl.SubmitPayment)
	student.GET("/bills/:bill_id/payments", portalCtrl.GetBillPayments)
	student.GET("/profile", portalCtrl.GetProfile)
	student.PATCH("/profile", portalCtrl.UpdateProfile)

	// WebSocket live feed untuk dashboard staff
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.AuthMiddleware())
	{
		wsGroup.GET("/feed", controllers.FeedHandler)
	}

	return r
}
