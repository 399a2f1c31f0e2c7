package routes

import (
	"civiclens-api/controllers"
	"civiclens-api/middlewares"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up the user management routes. Admin-only
// enforcement happens in the handlers against the freshly resolved
// principal, not here.
func UserRoutes(r *gin.Engine) {
	users := r.Group("/api/users", middlewares.AuthMiddleware())
	{
		users.GET("", controllers.ListUsers)
		users.POST("", controllers.CreateStaff)
		users.GET("/:email", controllers.GetUserByEmail)
		users.GET("/:email/role", controllers.GetUserRole)
		users.PATCH("/:email", controllers.UpdateSelf)
		users.PATCH("/admin/:id", controllers.AdminUpdateUser)
		users.DELETE("/admin/:id", controllers.AdminDeleteUser)
	}
}
