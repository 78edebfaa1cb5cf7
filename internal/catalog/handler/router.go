package handler

import (
	"github.com/julienschmidt/httprouter"
)

// CatalogHandler bundles the property and room handlers behind a single
// route registrar.
type CatalogHandler struct {
	properties *PropertyHandler
	rooms      *RoomHandler
}

func NewCatalogHandler(properties *PropertyHandler, rooms *RoomHandler) *CatalogHandler {
	return &CatalogHandler{
		properties: properties,
		rooms:      rooms,
	}
}

func (h *CatalogHandler) RegisterRoutes(router *httprouter.Router) {
	h.properties.RegisterRoutes(router)
	h.rooms.RegisterRoutes(router)
}
