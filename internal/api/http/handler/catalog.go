package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

const maxUploadBytes = 10 << 20

// Catalog handles item and image endpoints.
type Catalog struct {
	catalogService CatalogService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewCatalog(catalogService CatalogService, contextManager model.ContextManager, logger *logger.Logger) *Catalog {
	return &Catalog{
		catalogService: catalogService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type createItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Image       string `json:"image"`
	LargeImage  string `json:"largeImage"`
}

type updateItemRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Image       *string `json:"image"`
	LargeImage  *string `json:"largeImage"`
}

type uploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Items handles GET /items?q=&page=&perPage=.
func (h *Catalog) Items(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))

	result, err := h.catalogService.Items(r.Context(), q.Get("q"), page, perPage)
	if err != nil {
		handleError(w, h.logger, "Catalog handler: items", err)
		return
	}

	resp := itemPageResponse{
		Items:   make([]itemResponse, 0, len(result.Items)),
		Total:   result.Total,
		Page:    result.Page,
		PerPage: result.PerPage,
	}
	for _, it := range result.Items {
		resp.Items = append(resp.Items, toItem(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Item handles GET /items/{id}.
func (h *Catalog) Item(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	item, err := h.catalogService.Item(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, "Catalog handler: item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(item))
}

// CreateItem handles POST /items.
func (h *Catalog) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := h.contextManager.PrincipalFromContext(r.Context())
	item, err := h.catalogService.CreateItem(r.Context(), p, model.CreateItemParams(req))
	if err != nil {
		handleError(w, h.logger, "Catalog handler: create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItem(item))
}

// UpdateItem handles PATCH /items/{id}.
func (h *Catalog) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	var req updateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := h.contextManager.PrincipalFromContext(r.Context())
	item, err := h.catalogService.UpdateItem(r.Context(), p, id, model.ItemPatch(req))
	if err != nil {
		handleError(w, h.logger, "Catalog handler: update item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(item))
}

// DeleteItem handles DELETE /items/{id}.
func (h *Catalog) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	p := h.contextManager.PrincipalFromContext(r.Context())
	item, err := h.catalogService.DeleteItem(r.Context(), p, id)
	if err != nil {
		handleError(w, h.logger, "Catalog handler: delete item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(item))
}

// Upload handles POST /uploads with a multipart "file" field.
func (h *Catalog) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	p := h.contextManager.PrincipalFromContext(r.Context())
	key, err := h.catalogService.UploadImage(r.Context(), p, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		handleError(w, h.logger, "Catalog handler: upload", err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{Key: key, URL: "/api/v1/images/" + key})
}

// Image handles GET /images/{key}.
func (h *Catalog) Image(w http.ResponseWriter, r *http.Request) {
	rc, err := h.catalogService.Image(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		handleError(w, h.logger, "Catalog handler: image", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Catalog handler: image stream interrupted",
			"error", err.Error())
	}
}
