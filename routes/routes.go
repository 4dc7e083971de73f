package routes

import (
	"github.com/gin-gonic/gin"

	"urbanease/controllers"
	"urbanease/middleware"
)

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine) {
	// Public routes (no authentication required)
	public := r.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", controllers.Login)
			auth.POST("/register", controllers.Register)
		}

		// Announcements are readable without an account
		public.GET("/notices", controllers.GetActiveNotices)
	}

	// Protected routes (authentication required)
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/profile", controllers.GetUserProfile)
		protected.PUT("/profile", controllers.UpdateUserProfile)
		protected.POST("/profile/change-password", controllers.ChangePassword)

		// Bills
		bills := protected.Group("/bills")
		{
			bills.GET("", controllers.GetMyBills)
			bills.GET("/:id", controllers.GetBillByID)
			bills.POST("/pay", controllers.PayBill)
		}

		// Complaints
		complaints := protected.Group("/complaints")
		{
			complaints.POST("", middleware.ResidentAuthMiddleware(), controllers.CreateComplaint)
			complaints.GET("", middleware.ResidentAuthMiddleware(), controllers.GetMyComplaints)
		}

		// Chat
		chat := protected.Group("/chat")
		{
			chat.POST("", controllers.SendChatMessage)
			chat.GET("", controllers.GetChatMessages)
			chat.DELETE("/:id", controllers.DeleteChatMessage)
		}

		// Admin routes
		admin := protected.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			admin.GET("/dashboard", controllers.AdminDashboard)

			admin.GET("/residents", controllers.AdminGetResidents)
			admin.PATCH("/residents/:id/verify", controllers.AdminVerifyResident)
			admin.DELETE("/residents/:id", controllers.AdminDeleteResident)

			admin.POST("/bills/dispatch", controllers.DispatchBills)
			admin.GET("/bills", controllers.AdminGetBills)
			admin.PATCH("/bills/:id/status", controllers.AdminUpdateBillStatus)
			admin.DELETE("/bills/:id", controllers.AdminDeleteBill)

			admin.GET("/complaints", controllers.AdminGetComplaints)
			admin.PUT("/complaints/:id", controllers.AdminUpdateComplaint)

			admin.POST("/notices", controllers.AdminCreateNotice)
			admin.DELETE("/notices/:id", controllers.AdminDeleteNotice)
		}
	}
}
