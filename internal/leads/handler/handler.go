// Package handler exposes the lead pipeline over HTTP.
package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"terratip_backend/internal/auth"
	"terratip_backend/internal/leads/domain"
	"terratip_backend/internal/leads/service"
	"terratip_backend/internal/leads/transport"
	"terratip_backend/platform/httpkit"
	"terratip_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	// Uploads larger than this are rejected before parsing.
	maxImportBytes = 10 << 20
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts lead routes. rg must already require authentication;
// import and bulk delete additionally require the manager role.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/queues", h.Queues)
	rg.GET("/export", h.Export)
	rg.POST("", h.Create)
	rg.GET("/:key", h.Get)
	rg.PATCH("/:key", h.Update)
	rg.GET("/:key/whatsapp-qr", h.WhatsAppQR)

	managerOnly := httpkit.RequireRole(auth.RoleManager)
	rg.POST("/import", managerOnly, h.Import)
	rg.DELETE("", managerOnly, h.BulkDelete)
}

func viewer(c *gin.Context) (domain.Viewer, bool) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return domain.Viewer{}, false
	}
	return domain.Viewer{
		Username:    id.Username(),
		DisplayName: id.DisplayName(),
		Manager:     id.HasRole(auth.RoleManager),
	}, true
}

func (h *Handler) List(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	views, err := h.svc.List(c.Request.Context(), v)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, views)
}

func (h *Handler) Queues(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	queues, err := h.svc.Queues(c.Request.Context(), v)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, queues)
}

func (h *Handler) Export(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	data, err := h.svc.ExportXLSX(c.Request.Context(), v)
	if httpkit.HandleError(c, err) {
		return
	}

	filename := "leads_" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) Get(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	view, err := h.svc.Get(c.Request.Context(), c.Param("key"), v)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, view)
}

func (h *Handler) Create(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	view, err := h.svc.Create(c.Request.Context(), req, v)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, view)
}

func (h *Handler) Update(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	view, err := h.svc.Update(c.Request.Context(), c.Param("key"), req, v)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, view)
}

func (h *Handler) WhatsAppQR(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	png, err := h.svc.WhatsAppQR(c.Request.Context(), c.Param("key"), v)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) Import(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if fileHeader.Size > maxImportBytes {
		httpkit.Error(c, http.StatusBadRequest, "file too large", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not open file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}
	if len(data) > maxImportBytes {
		httpkit.Error(c, http.StatusBadRequest, "file too large", nil)
		return
	}

	// Repeated "agents" values pick the distribution list in order; the
	// single "assignTo" form stays accepted for older clients.
	agents := c.PostFormArray("agents")
	if len(agents) == 0 {
		if assignTo := c.PostForm("assignTo"); assignTo != "" {
			agents = []string{assignTo}
		}
	}

	report, err := h.svc.Import(c.Request.Context(), data, fileHeader.Filename, agents, v)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, report)
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var req transport.DeleteLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	deleted, err := h.svc.Delete(c.Request.Context(), req.Keys)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.DeleteLeadsResponse{Deleted: deleted})
}
