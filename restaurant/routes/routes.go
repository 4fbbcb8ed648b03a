package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quickbite/backend/restaurant/controllers"
)

func RegisterRestaurantRoutes(r *gin.Engine, rc *controllers.RestaurantController) {
	restaurants := r.Group("/restaurants")
	restaurants.GET("/", rc.ListRestaurants)
	restaurants.POST("/", rc.AddRestaurant)
	restaurants.GET("/:id/menu", rc.GetMenu)
	restaurants.POST("/:id/menu", rc.AddMenuItem)

	internal := r.Group("/internal")
	internal.GET("/menu-items/:id", rc.GetMenuItemInternal)
}
