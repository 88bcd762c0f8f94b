package handler

import (
	"voicepods/backend/internal/podhub"
	"voicepods/backend/internal/storage"
)

// Handler carries the pod hub and storage into the HTTP routes.
type Handler struct {
	Hub     *podhub.ManagerService
	Storage storage.Storage
}

func NewHandler(hub *podhub.ManagerService, s storage.Storage) *Handler {
	return &Handler{Hub: hub, Storage: s}
}
