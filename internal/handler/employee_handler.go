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

type EmployeeHandler struct {
	employeeService service.EmployeeService
}

func NewEmployeeHandler(employeeService service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeService: employeeService}
}

func (h *EmployeeHandler) RegisterRoutes(router *gin.RouterGroup) {
	employees := router.Group("/api/employees")
	{
		employees.POST("", middleware.RequireRole(model.RoleAssetManager), h.Create)
		employees.GET("", middleware.RequireRole(model.RoleManager, model.RoleAssetManager), h.List)
		employees.GET("/:id", middleware.RequireRole(model.RoleManager, model.RoleAssetManager), h.GetByID)
		employees.PUT("/:id", middleware.RequireRole(model.RoleAssetManager), h.Update)
		employees.PATCH("/:id/status", middleware.RequireRole(model.RoleAssetManager), h.SetStatus)
		employees.DELETE("/:id", middleware.RequireRole(model.RoleAssetManager), h.Delete)
	}
}

// Create registers a new employee
// @Summary      Create employee
// @Description  Creates an employee, hashing the password and validating uniqueness constraints
// @Tags         employees
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateEmployeeRequest  true  "Create Employee Payload"
// @Success      201      {object}  response.Response{data=service.EmployeeResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req service.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	employee, err := h.employeeService.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, employee))
}

// List retrieves paginated employees
// @Summary      List employees
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	employees, total, err := h.employeeService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"employees": employees,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// GetByID retrieves one employee
// @Summary      Get employee
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Employee ID"
// @Success      200  {object}  response.Response{data=service.EmployeeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/employees/{id} [get]
func (h *EmployeeHandler) GetByID(c *gin.Context) {
	employee, err := h.employeeService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

// Update edits an employee's directory fields
// @Summary      Update employee
// @Tags         employees
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Employee ID"
// @Param        payload  body      service.UpdateEmployeeRequest  true  "Update Employee Payload"
// @Success      200      {object}  response.Response{data=service.EmployeeResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/employees/{id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req service.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	employee, err := h.employeeService.Update(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

// SetStatus activates or deactivates an employee account
// @Summary      Set employee status
// @Tags         employees
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Employee ID"
// @Param        payload  body      object  true  "Status Payload"
// @Success      200      {object}  response.Response{data=service.EmployeeResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/employees/{id}/status [patch]
func (h *EmployeeHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	employee, err := h.employeeService.SetStatus(c.Request.Context(), actorID(c), c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

// Delete removes an employee who never appears in the ledger
// @Summary      Delete employee
// @Description  Fails with 409 while the asset ledger references the employee
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Employee ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/employees/{id} [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.employeeService.Delete(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Employee deleted successfully"))
}
