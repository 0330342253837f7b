// internal/handler/discovery_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"link-service/internal/discovery"
	"link-service/internal/utils"
)

// DiscoveryHandler handles local port discovery requests
type DiscoveryHandler struct {
	scanners *discovery.ScannerManager
	logger   *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(scanners *discovery.ScannerManager, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		scanners: scanners,
		logger:   utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// ScanPorts lists local ports with suggested connection URIs
// @Summary Scan for ports
// @Description List local serial ports, each with a connection URI that can be registered as a link
// @Tags Discovery
// @Produce json
// @Param type query string false "Scanner type" Enums(all, serial) default(all)
// @Param timeout query string false "Scan timeout" default(10s)
// @Success 200 {object} utils.APIResponse{data=object{ports_found=int,ports=[]discovery.DiscoveredPort}} "Port scan completed"
// @Failure 400 {object} utils.APIResponse "Invalid timeout"
// @Failure 500 {object} utils.APIResponse "Scan failed"
// @Router /discovery/ports [get]
func (h *DiscoveryHandler) ScanPorts(c *gin.Context) {
	scanType := c.DefaultQuery("type", "all")
	timeout, err := time.ParseDuration(c.DefaultQuery("timeout", "10s"))
	if err != nil || timeout <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid timeout", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	var ports []*discovery.DiscoveredPort
	if scanType == "all" {
		ports, err = h.scanners.ScanAll(ctx)
	} else {
		ports, err = h.scanners.ScanByType(ctx, scanType)
	}
	if err != nil {
		h.logger.Error("Failed to scan ports", zap.Error(err), zap.String("type", scanType))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to scan ports", err)
		return
	}
	if ports == nil {
		ports = []*discovery.DiscoveredPort{}
	}

	utils.SuccessResponse(c, http.StatusOK, "Port scan completed", gin.H{
		"ports_found": len(ports),
		"ports":       ports,
	})
}

// GetScanners lists the available scanner types
// @Summary List scanners
// @Tags Discovery
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]string} "Scanners retrieved successfully"
// @Router /discovery/scanners [get]
func (h *DiscoveryHandler) GetScanners(c *gin.Context) {
	scanners := h.scanners.GetAvailableScanners()
	if scanners == nil {
		scanners = []string{}
	}
	utils.SuccessResponse(c, http.StatusOK, "Scanners retrieved successfully", scanners)
}
