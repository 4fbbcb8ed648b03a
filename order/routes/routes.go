package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quickbite/backend/common/middleware"
	"github.com/quickbite/backend/order/controllers"
)

func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	orders := r.Group("/orders")
	orders.Use(middleware.RateLimitMiddleware())
	orders.POST("/", oc.CreateOrder)
	orders.GET("/", oc.GetOrders)
	orders.GET("/:id", oc.GetOrderByID)

	orders.PUT("/:id", middleware.AdminOnly(), oc.UpdateOrderStatus)
}
