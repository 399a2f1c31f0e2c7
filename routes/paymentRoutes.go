package routes

import (
	"civiclens-api/controllers"
	"civiclens-api/middlewares"

	"github.com/gin-gonic/gin"
)

// PaymentRoutes sets up the payment routes
func PaymentRoutes(r *gin.Engine) {
	r.POST("/api/create-payment-intent", middlewares.AuthMiddleware(), controllers.CreatePaymentIntent)

	payment := r.Group("/api/payments", middlewares.AuthMiddleware())
	{
		payment.GET("", controllers.ListPayments)
		payment.POST("", controllers.RecordPayment)
		payment.GET("/:email", controllers.GetPaymentsByEmail)
	}
}
