package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"questBoardAPI/internal/catalog"
	"questBoardAPI/middleware"
	"questBoardAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GetBoard returns the viewer's reconciled board: seeded and owned
// entries with the viewer's overrides applied and hidden entries
// filtered out, split into quests and shop items.
func (h *CatalogHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	board, err := h.catalogService.GetBoard(ctx, clerkID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

// GetEntry returns one canonical catalog row, without viewer overrides.
func (h *CatalogHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	entryID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	entry, err := h.catalogService.GetEntry(ctx, entryID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

func (h *CatalogHandler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	h.createEntry(w, r, catalog.KindQuest)
}

func (h *CatalogHandler) CreateShopItem(w http.ResponseWriter, r *http.Request) {
	h.createEntry(w, r, catalog.KindShopItem)
}

func (h *CatalogHandler) createEntry(w http.ResponseWriter, r *http.Request, kind catalog.Kind) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req catalog.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Kind = kind
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Reward < 0 || req.SecondaryAmount < 0 {
		respondWithError(w, http.StatusBadRequest, "Amounts must be non-negative")
		return
	}

	entry, err := h.catalogService.CreateEntry(ctx, clerkID, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, entry)
}

func (h *CatalogHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	entryID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	var req catalog.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Reward != nil && *req.Reward < 0 {
		respondWithError(w, http.StatusBadRequest, "Reward must be non-negative")
		return
	}

	eff, err := h.catalogService.UpdateEntry(ctx, clerkID, entryID, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, eff)
}

// DeleteEntry removes an owned entry, or hides a shared one from the
// caller's view. Both shapes answer 200; hiding twice is still 200.
func (h *CatalogHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	entryID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	if err := h.catalogService.DeleteEntry(ctx, clerkID, entryID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
