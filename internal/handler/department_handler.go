package handler

import (
	"net/http"

	"assetms/internal/middleware"
	"assetms/internal/model"
	"assetms/internal/service"
	"assetms/pkg/response"

	"github.com/gin-gonic/gin"
)

type DepartmentHandler struct {
	departmentService service.DepartmentService
}

func NewDepartmentHandler(departmentService service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

func (h *DepartmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	depts := router.Group("/api/departments")
	depts.Use(middleware.RequireRole(model.RoleAssetManager))
	{
		depts.POST("", h.Create)
		depts.GET("", h.List)
		depts.PUT("/:id", h.Update)
		depts.DELETE("/:id", h.Delete)
	}
}

// Create creates a new department
// @Summary      Create department
// @Tags         departments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateDepartmentRequest  true  "Create Department Payload"
// @Success      201      {object}  response.Response{data=service.DepartmentResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	dept, err := h.departmentService.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, dept))
}

// List lists all departments
// @Summary      List departments
// @Tags         departments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.DepartmentResponse}
// @Router       /api/departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	depts, err := h.departmentService.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, depts))
}

// Update renames a department
// @Summary      Update department
// @Tags         departments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Department ID"
// @Param        payload  body      service.UpdateDepartmentRequest  true  "Update Department Payload"
// @Success      200      {object}  response.Response{data=service.DepartmentResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/departments/{id} [put]
func (h *DepartmentHandler) Update(c *gin.Context) {
	var req service.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	dept, err := h.departmentService.Update(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dept))
}

// Delete removes a department with no remaining employees
// @Summary      Delete department
// @Description  Fails with 409 while any employee still references the department
// @Tags         departments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	if err := h.departmentService.Delete(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Department deleted successfully"))
}
