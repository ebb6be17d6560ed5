package handler

import (
	"net/http"

	"assetms/internal/middleware"
	"assetms/internal/model"
	"assetms/internal/service"
	"assetms/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	groups := router.Group("/api/asset-groups")
	{
		groups.POST("", middleware.RequireRole(model.RoleAssetManager), h.CreateGroup)
		groups.GET("", middleware.RequireRole(model.RoleManager, model.RoleAssetManager), h.ListGroups)
		groups.PUT("/:id", middleware.RequireRole(model.RoleAssetManager), h.UpdateGroup)
		groups.DELETE("/:id", middleware.RequireRole(model.RoleAssetManager), h.DeleteGroup)
	}

	types := router.Group("/api/asset-types")
	{
		types.POST("", middleware.RequireRole(model.RoleAssetManager), h.CreateType)
		types.GET("/by-group/:groupId", middleware.RequireRole(model.RoleManager, model.RoleAssetManager), h.ListTypesByGroup)
		types.PUT("/:id", middleware.RequireRole(model.RoleAssetManager), h.UpdateType)
		types.DELETE("/:id", middleware.RequireRole(model.RoleAssetManager), h.DeleteType)
	}
}

// CreateGroup creates a new asset group
// @Summary      Create asset group
// @Description  Creates a new top-level asset group with a unique name
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateAssetGroupRequest  true  "Create Asset Group Payload"
// @Success      201      {object}  response.Response{data=service.AssetGroupResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/asset-groups [post]
func (h *CatalogHandler) CreateGroup(c *gin.Context) {
	var req service.CreateAssetGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	group, err := h.catalogService.CreateGroup(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, group))
}

// ListGroups lists all asset groups
// @Summary      List asset groups
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.AssetGroupResponse}
// @Router       /api/asset-groups [get]
func (h *CatalogHandler) ListGroups(c *gin.Context) {
	groups, err := h.catalogService.ListGroups(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, groups))
}

// UpdateGroup renames an asset group
// @Summary      Update asset group
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Asset Group ID"
// @Param        payload  body      service.UpdateAssetGroupRequest  true  "Update Asset Group Payload"
// @Success      200      {object}  response.Response{data=service.AssetGroupResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/asset-groups/{id} [put]
func (h *CatalogHandler) UpdateGroup(c *gin.Context) {
	var req service.UpdateAssetGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	group, err := h.catalogService.UpdateGroup(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, group))
}

// DeleteGroup removes an asset group with no remaining types
// @Summary      Delete asset group
// @Description  Fails with 409 while any asset type still references the group
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Asset Group ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/asset-groups/{id} [delete]
func (h *CatalogHandler) DeleteGroup(c *gin.Context) {
	if err := h.catalogService.DeleteGroup(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Asset group deleted successfully"))
}

// CreateType creates an asset type under a group
// @Summary      Create asset type
// @Description  Creates an asset type; the name must be unique within its group
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateAssetTypeRequest  true  "Create Asset Type Payload"
// @Success      201      {object}  response.Response{data=service.AssetTypeResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/asset-types [post]
func (h *CatalogHandler) CreateType(c *gin.Context) {
	var req service.CreateAssetTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	t, err := h.catalogService.CreateType(c.Request.Context(), actorID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, t))
}

// ListTypesByGroup lists the types belonging to a group
// @Summary      List asset types by group
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        groupId  path      string  true  "Asset Group ID"
// @Success      200      {object}  response.Response{data=[]service.AssetTypeResponse}
// @Router       /api/asset-types/by-group/{groupId} [get]
func (h *CatalogHandler) ListTypesByGroup(c *gin.Context) {
	types, err := h.catalogService.ListTypesByGroup(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, types))
}

// UpdateType renames or re-parents an asset type
// @Summary      Update asset type
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Asset Type ID"
// @Param        payload  body      service.UpdateAssetTypeRequest  true  "Update Asset Type Payload"
// @Success      200      {object}  response.Response{data=service.AssetTypeResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/asset-types/{id} [put]
func (h *CatalogHandler) UpdateType(c *gin.Context) {
	var req service.UpdateAssetTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	t, err := h.catalogService.UpdateType(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, t))
}

// DeleteType removes an asset type with no remaining products
// @Summary      Delete asset type
// @Description  Fails with 409 while any product still references the type
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Asset Type ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/asset-types/{id} [delete]
func (h *CatalogHandler) DeleteType(c *gin.Context) {
	if err := h.catalogService.DeleteType(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Asset type deleted successfully"))
}
