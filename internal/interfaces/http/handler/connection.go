package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/channelsync/backend/internal/application/sync"
	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/interfaces/http/dto"
)

// ConnectionHandler handles channel connection API endpoints
type ConnectionHandler struct {
	BaseHandler
	service *appsync.ConnectionService
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(service *appsync.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{service: service}
}

// Connect handles POST /channels/connections
func (h *ConnectionHandler) Connect(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identity required")
		return
	}

	var req dto.ConnectChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	conn, err := h.service.Connect(c.Request.Context(), appsync.ConnectConnectionInput{
		SellerID:    sellerID,
		ChannelType: channel.Type(req.ChannelType),
		Credentials: req.Credentials,
		Replace:     req.Replace,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ConnectionResponseFromDomain(conn))
}

// List handles GET /channels/connections
func (h *ConnectionHandler) List(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identity required")
		return
	}

	filter := channel.ConnectionFilter{}
	if typeParam := c.Query("channel_type"); typeParam != "" {
		channelType := channel.Type(typeParam)
		filter.ChannelType = &channelType
	}
	if c.Query("active") == "true" {
		filter.ActiveOnly = true
	}

	connections, err := h.service.List(c.Request.Context(), sellerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.ConnectionResponse, len(connections))
	for i := range connections {
		responses[i] = dto.ConnectionResponseFromDomain(&connections[i])
	}
	h.Success(c, responses)
}

// Get handles GET /channels/connections/:id
func (h *ConnectionHandler) Get(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identity required")
		return
	}

	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connection ID")
		return
	}

	conn, err := h.service.Get(c.Request.Context(), sellerID, connectionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ConnectionResponseFromDomain(conn))
}

// Disconnect handles DELETE /channels/connections/:id
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identity required")
		return
	}

	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connection ID")
		return
	}

	if err := h.service.Disconnect(c.Request.Context(), sellerID, connectionID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
