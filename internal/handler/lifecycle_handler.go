package handler

import (
	"net/http"

	"assetms/internal/middleware"
	"assetms/internal/model"
	"assetms/internal/service"
	"assetms/pkg/pagination"
	"assetms/pkg/response"

	"github.com/gin-gonic/gin"
)

type LifecycleHandler struct {
	lifecycleService service.LifecycleService
}

func NewLifecycleHandler(lifecycleService service.LifecycleService) *LifecycleHandler {
	return &LifecycleHandler{lifecycleService: lifecycleService}
}

func (h *LifecycleHandler) RegisterRoutes(router *gin.RouterGroup) {
	transactions := router.Group("/api/transactions")
	{
		transactions.POST("/issue", middleware.RequireRole(model.RoleAssetManager), h.Issue)
		transactions.POST("/return", middleware.RequireRole(model.RoleAssetManager), h.Return)
		transactions.GET("/holder/:productId", middleware.RequireRole(model.RoleManager, model.RoleAssetManager), h.CurrentHolder)
		transactions.GET("/history/:productId", middleware.RequireRole(model.RoleManager, model.RoleAssetManager), h.History)
	}
}

// Issue hands a Free product to an employee
// @Summary      Issue asset
// @Description  Atomically appends an Issue ledger row and flips the product to Taken
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.IssueRequest  true  "Issue Payload"
// @Success      201      {object}  response.Response{data=service.TransactionResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/transactions/issue [post]
func (h *LifecycleHandler) Issue(c *gin.Context) {
	var req service.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tx, err := h.lifecycleService.Issue(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tx))
}

// Return closes an open checkout
// @Summary      Return asset
// @Description  Atomically appends a Return ledger row and flips the product back to Free; only the current holder may return
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ReturnRequest  true  "Return Payload"
// @Success      201      {object}  response.Response{data=service.TransactionResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/transactions/return [post]
func (h *LifecycleHandler) Return(c *gin.Context) {
	var req service.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tx, err := h.lifecycleService.Return(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tx))
}

// CurrentHolder reports who currently holds a product
// @Summary      Get current holder
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        productId  path      string  true  "Product ID"
// @Success      200        {object}  response.Response{data=service.HolderResponse}
// @Failure      404        {object}  response.Response
// @Router       /api/transactions/holder/{productId} [get]
func (h *LifecycleHandler) CurrentHolder(c *gin.Context) {
	holder, err := h.lifecycleService.CurrentHolder(c.Request.Context(), c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, holder))
}

// History returns a product's full audit trail oldest-first
// @Summary      Get product history
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        productId  path      string  true   "Product ID"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=object}
// @Failure      404        {object}  response.Response
// @Router       /api/transactions/history/{productId} [get]
func (h *LifecycleHandler) History(c *gin.Context) {
	params := pagination.Parse(c)

	history, total, err := h.lifecycleService.HistoryFor(c.Request.Context(), c.Param("productId"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transactions": history,
		"total":        total,
		"page":         params.Page,
		"limit":        params.Limit,
	}))
}
