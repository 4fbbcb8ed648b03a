package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quickbite/backend/user/controllers"
)

func RegisterUserRoutes(r *gin.Engine, uc *controllers.UserController) {
	internal := r.Group("/internal/users")
	internal.GET("/:id", uc.GetUser)
	internal.PUT("/:id/balance", uc.UpdateBalance)
}
