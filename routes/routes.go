package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/olaysco/ecomm-api/controllers"
	"github.com/olaysco/ecomm-api/docs"
)

// RegisterRoutes mounts the product API at the root and under /api.
func RegisterRoutes(r *gin.Engine, productController *controllers.ProductController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	docs.RegisterRoutes(r)

	for _, prefix := range []string{"", "/api"} {
		registerProductRoutes(r.Group(prefix), productController)
	}
}

func registerProductRoutes(rg *gin.RouterGroup, pc *controllers.ProductController) {
	productRoutes := rg.Group("/products")
	{
		productRoutes.GET("", pc.GetProducts)
		productRoutes.GET("/:id", pc.GetProduct)
		productRoutes.POST("", pc.CreateProduct)
		productRoutes.PATCH("/:id", pc.UpdateProduct)
		productRoutes.DELETE("/:id", pc.DeleteProduct)
	}
}
