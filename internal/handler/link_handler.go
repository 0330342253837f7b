// internal/handler/link_handler.go
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"link-service/internal/linkuri"
	"link-service/internal/protocol"
	"link-service/internal/repository"
	"link-service/internal/service"
	"link-service/internal/utils"
)

// LinkHandler handles connection URI and link profile HTTP requests
type LinkHandler struct {
	linkService *service.LinkService
	logger      *utils.ServiceLogger
	upgrader    websocket.Upgrader
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(linkService *service.LinkService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
		logger:      utils.NewServiceLogger(logger, "link-handler"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are already filtered by the CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ParseURIRequest is the body of a parse request
type ParseURIRequest struct {
	URI string `json:"uri" binding:"required"`
}

// ParseURIResponse pairs the parsed descriptor with its effective endpoint
type ParseURIResponse struct {
	URI        string             `json:"uri"`
	Descriptor linkuri.Descriptor `json:"descriptor"`
	Endpoint   protocol.Endpoint  `json:"endpoint"`
}

// ListSchemes lists the accepted URI schemes
// @Summary List URI schemes
// @Description Get the scheme tokens accepted in connection URIs
// @Tags URI
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]linkuri.Scheme} "Schemes retrieved successfully"
// @Router /schemes [get]
func (h *LinkHandler) ListSchemes(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Schemes retrieved successfully", linkuri.Schemes())
}

// ParseURI parses a connection URI without storing it
// @Summary Parse a connection URI
// @Description Parse a connection URI into a descriptor and resolve its effective endpoint
// @Tags URI
// @Accept json
// @Produce json
// @Param request body ParseURIRequest true "URI to parse"
// @Success 200 {object} utils.APIResponse{data=ParseURIResponse} "URI parsed successfully"
// @Failure 400 {object} utils.APIResponse "Invalid request body"
// @Failure 422 {object} utils.APIResponse "URI rejected, error.code carries the kind"
// @Router /uri/parse [post]
func (h *LinkHandler) ParseURI(c *gin.Context) {
	var req ParseURIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	desc, ep, err := h.linkService.ParseURI(req.URI)
	if err != nil {
		h.respondError(c, "Failed to parse URI", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "URI parsed successfully", ParseURIResponse{
		URI:        req.URI,
		Descriptor: desc,
		Endpoint:   ep,
	})
}

// RegisterLink registers a new named link
// @Summary Register a link
// @Description Validate a connection URI and store it as a named link
// @Tags Links
// @Accept json
// @Produce json
// @Param request body service.RegisterLinkRequest true "Link registration request"
// @Success 201 {object} utils.APIResponse{data=model.Link} "Link registered successfully"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Link name already exists"
// @Failure 422 {object} utils.APIResponse "URI rejected"
// @Router /links [post]
func (h *LinkHandler) RegisterLink(c *gin.Context) {
	var req service.RegisterLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	link, err := h.linkService.RegisterLink(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to register link", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Link registered successfully", link)
}

// ListLinks lists links with filtering and pagination
// @Summary List links
// @Description Get stored links with filtering and pagination support
// @Tags Links
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search query string false "Match name or description"
// @Param scheme query string false "Filter by URI scheme" Enums(udp, tcp, serial, serial_flowcontrol, serial_fd)
// @Success 200 {object} utils.APIResponse{data=object{links=[]model.Link,pagination=service.PaginationResult}} "Links retrieved successfully"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /links [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	filter := &repository.LinkFilter{Page: 1, PerPage: 20}

	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if perPage := c.Query("per_page"); perPage != "" {
		if pp, err := strconv.Atoi(perPage); err == nil && pp > 0 && pp <= 100 {
			filter.PerPage = pp
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if scheme := c.Query("scheme"); scheme != "" {
		filter.Scheme = &scheme
	}

	links, pagination, err := h.linkService.ListLinks(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "Failed to list links", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Links retrieved successfully", gin.H{
		"links":      links,
		"pagination": pagination,
	})
}

// GetLink retrieves a link by id or name
// @Summary Get link details
// @Tags Links
// @Produce json
// @Param link_id path string true "Link ID or name"
// @Success 200 {object} utils.APIResponse{data=model.Link} "Link retrieved successfully"
// @Failure 404 {object} utils.APIResponse "Link not found"
// @Router /links/{link_id} [get]
func (h *LinkHandler) GetLink(c *gin.Context) {
	link, err := h.linkService.GetLink(c.Request.Context(), c.Param("link_id"))
	if err != nil {
		h.respondError(c, "Failed to get link", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Link retrieved successfully", link)
}

// UpdateLink applies a partial update to a link
// @Summary Update a link
// @Tags Links
// @Accept json
// @Produce json
// @Param link_id path string true "Link ID or name"
// @Param request body service.UpdateLinkRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=model.Link} "Link updated successfully"
// @Failure 404 {object} utils.APIResponse "Link not found"
// @Failure 409 {object} utils.APIResponse "Link is open or name taken"
// @Failure 422 {object} utils.APIResponse "URI rejected"
// @Router /links/{link_id} [put]
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	var req service.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	link, err := h.linkService.UpdateLink(c.Request.Context(), c.Param("link_id"), &req)
	if err != nil {
		h.respondError(c, "Failed to update link", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Link updated successfully", link)
}

// DeleteLink removes a closed link
// @Summary Delete a link
// @Tags Links
// @Produce json
// @Param link_id path string true "Link ID or name"
// @Success 200 {object} utils.APIResponse "Link deleted successfully"
// @Failure 404 {object} utils.APIResponse "Link not found"
// @Failure 409 {object} utils.APIResponse "Link is open"
// @Router /links/{link_id} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	if err := h.linkService.DeleteLink(c.Request.Context(), c.Param("link_id")); err != nil {
		h.respondError(c, "Failed to delete link", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Link deleted successfully", nil)
}

// OpenLink opens the transport behind a link
// @Summary Open a link
// @Tags Links
// @Produce json
// @Param link_id path string true "Link ID or name"
// @Success 200 {object} utils.APIResponse{data=service.LinkStatus} "Link opened successfully"
// @Failure 404 {object} utils.APIResponse "Link not found"
// @Failure 409 {object} utils.APIResponse "Link already open"
// @Failure 502 {object} utils.APIResponse "Transport failed to open"
// @Router /links/{link_id}/open [post]
func (h *LinkHandler) OpenLink(c *gin.Context) {
	status, err := h.linkService.OpenLink(c.Request.Context(), c.Param("link_id"))
	if err != nil {
		h.respondError(c, "Failed to open link", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Link opened successfully", status)
}

// CloseLink closes the transport behind a link
// @Summary Close a link
// @Tags Links
// @Produce json
// @Param link_id path string true "Link ID or name"
// @Success 200 {object} utils.APIResponse "Link closed successfully"
// @Failure 404 {object} utils.APIResponse "Link not found"
// @Failure 409 {object} utils.APIResponse "Link not open"
// @Router /links/{link_id}/close [post]
func (h *LinkHandler) CloseLink(c *gin.Context) {
	if err := h.linkService.CloseLink(c.Request.Context(), c.Param("link_id")); err != nil {
		h.respondError(c, "Failed to close link", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Link closed successfully", nil)
}

// LinkStatus reports a link's runtime state
// @Summary Get link status
// @Tags Links
// @Produce json
// @Param link_id path string true "Link ID or name"
// @Success 200 {object} utils.APIResponse{data=service.LinkStatus} "Link status retrieved successfully"
// @Failure 404 {object} utils.APIResponse "Link not found"
// @Router /links/{link_id}/status [get]
func (h *LinkHandler) LinkStatus(c *gin.Context) {
	status, err := h.linkService.LinkStatus(c.Request.Context(), c.Param("link_id"))
	if err != nil {
		h.respondError(c, "Failed to get link status", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Link status retrieved successfully", status)
}

// respondError maps service errors onto HTTP statuses
func (h *LinkHandler) respondError(c *gin.Context, message string, err error) {
	var pe *linkuri.ParseError
	switch {
	case errors.As(err, &pe):
		utils.ParseErrorResponse(c, err)
	case errors.Is(err, service.ErrInvalidRequest):
		utils.ErrorResponse(c, http.StatusBadRequest, message, err)
	case errors.Is(err, repository.ErrLinkNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Link not found", err)
	case errors.Is(err, repository.ErrLinkExists),
		errors.Is(err, service.ErrLinkOpen),
		errors.Is(err, service.ErrLinkNotOpen),
		errors.Is(err, service.ErrLinkStreaming):
		utils.ErrorResponse(c, http.StatusConflict, message, err)
	case errors.Is(err, protocol.ErrUnsupportedProtocol):
		utils.ErrorResponse(c, http.StatusBadRequest, message, err)
	case errors.Is(err, service.ErrTransport):
		h.logger.Warn(message, zap.Error(err), zap.String("link", c.Param("link_id")))
		utils.ErrorResponse(c, http.StatusBadGateway, message, err)
	default:
		h.logger.Error(message, zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, message, err)
	}
}
