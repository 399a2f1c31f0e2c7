package routes

import (
	"civiclens-api/controllers"
	"civiclens-api/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes. Creation sits behind the
// Redis throttle on top of the free-tier quota check in the handler.
func IssueRoutes(r *gin.Engine) {
	issue := r.Group("/api/issues")
	{
		issue.GET("", controllers.GetAllIssues)
		issue.GET("/analytics", controllers.GetIssueAnalytics)
		issue.GET("/:id", controllers.GetIssue)
		issue.GET("/count/:email", controllers.GetIssueCount)

		issue.POST("", middlewares.AuthMiddleware(), middlewares.IssueRateLimiter(10), controllers.CreateIssue)
		issue.GET("/my-issues/:email", middlewares.AuthMiddleware(), controllers.GetMyIssues)
		issue.GET("/assigned/:email", middlewares.AuthMiddleware(), controllers.GetAssignedIssues)
		issue.PATCH("/:id", middlewares.AuthMiddleware(), controllers.UpdateIssue)
		issue.DELETE("/:id", middlewares.AuthMiddleware(), controllers.DeleteIssue)
		issue.PATCH("/assign/:id", middlewares.AuthMiddleware(), controllers.AssignStaff)
		issue.PATCH("/status/:id", middlewares.AuthMiddleware(), controllers.UpdateStatus)
		issue.POST("/:id/upvote", middlewares.AuthMiddleware(), controllers.UpvoteIssue)
	}
}
