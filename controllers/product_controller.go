package controllers

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	apperrors "github.com/olaysco/ecomm-api/common/errors"
	"github.com/olaysco/ecomm-api/common/logger"
	"github.com/olaysco/ecomm-api/services"
	"go.uber.org/zap"
)

type ProductController struct {
	service   services.ProductService
	publicURL *url.URL
}

// NewProductController creates the controller. When baseURL is an absolute
// URL, pagination links are built on it instead of the request host.
func NewProductController(service services.ProductService, baseURL string) *ProductController {
	return &ProductController{service: service, publicURL: parsePublicURL(baseURL)}
}

// GetProducts lists products with filtering, sorting and pagination.
func (pc *ProductController) GetProducts(c *gin.Context) {
	q := services.BuildProductQuery(c.Request.URL.Query())

	products, count, err := pc.service.ListProducts(c.Request.Context(), q)
	if err != nil {
		pc.handleError(c, err)
		return
	}

	paginateResponse(c, pc.publicURL, q.Page, count, q.Limit, products)
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	product, err := pc.service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		pc.handleError(c, err)
		return
	}
	successResponse(c, http.StatusOK, product, "")
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := pc.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		pc.handleError(c, err)
		return
	}
	successResponse(c, http.StatusCreated, product, "")
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := pc.service.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		pc.handleError(c, err)
		return
	}
	successResponse(c, http.StatusOK, product, "")
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if err := pc.service.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		pc.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindJSON decodes the body into req. An empty body leaves req zeroed so the
// service reports the missing fields.
func bindJSON(c *gin.Context, req interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// handleError maps a service error onto the error envelope. Causes of 5xx
// errors are logged and never sent to the client.
func (pc *ProductController) handleError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	if appErr.Code >= http.StatusInternalServerError {
		logger.Error(c, "Product request failed", appErr.Err, zap.String("path", c.FullPath()))
	}
	_ = c.Error(err)
	errorResponse(c, appErr.Code, appErr.Message)
}
