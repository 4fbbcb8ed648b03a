package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quickbite/backend/payment/controllers"
)

func RegisterPaymentRoutes(r *gin.Engine, pc *controllers.PaymentController) {
	internal := r.Group("/internal")
	internal.POST("/process", pc.ProcessPayment)
	internal.GET("/transactions/by-order/:order_id", pc.GetTransactionByOrder)

	payments := r.Group("/payments")
	payments.GET("/", pc.ListTransactions)
}
