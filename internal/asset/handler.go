package asset

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/radif/media/internal/response"
)

const (
	maxUploadBytes  = MaxSize + 1<<20
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler holds HTTP handlers for every configured collection.
type Handler struct {
	services map[string]*Service
}

// NewHandler creates a Handler serving the given services, keyed by table name.
func NewHandler(services ...*Service) *Handler {
	h := &Handler{services: make(map[string]*Service, len(services))}
	for _, svc := range services {
		h.services[svc.Lifecycle().Schema().Table()] = svc
	}
	return h
}

// Routes registers the collection routes on r. Mutating routes go through auth.
func (h *Handler) Routes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(auth).Post("/", h.Upload)
	r.With(auth).Delete("/{id}", h.Delete)
}

// View is a record with the public URLs of its stored objects.
type View struct {
	*Record
	URLs map[string]string `json:"urls,omitempty"`
}

// Page is a page of records.
type Page struct {
	Items  []View `json:"items"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func (h *Handler) service(w http.ResponseWriter, r *http.Request) (*Service, bool) {
	svc, ok := h.services[chi.URLParam(r, "collection")]
	if !ok {
		response.NotFound(w, "collection not found")
	}
	return svc, ok
}

func (h *Handler) id(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid asset id")
		return "", false
	}
	return id.String(), true
}

func view(svc *Service, rec *Record) View {
	return View{Record: rec, URLs: svc.Lifecycle().URLs(rec)}
}

// Upload godoc
//
//	@Summary		Upload image
//	@Description	Stores an image in the collection and publishes its resized variants.
//	@Tags			assets
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			collection	path		string	true	"Collection"	Enums(photos, avatars)
//	@Param			file		formData	file	true	"Image file"
//	@Success		201			{object}	response.Envelope{data=View}
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		422			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/{collection} [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	rec := &Record{}
	if err := rec.Attach(file); err != nil {
		response.BadRequest(w, "could not read upload")
		return
	}

	if err := svc.Save(r.Context(), rec); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			response.UnprocessableEntity(w, verr.Messages)
			return
		}
		log.Error().Err(err).Msg("upload asset")
		response.InternalError(w)
		return
	}

	response.Created(w, view(svc, rec))
}

// List godoc
//
//	@Summary		List images
//	@Tags			assets
//	@Produce		json
//	@Param			collection	path		string	true	"Collection"	Enums(photos, avatars)
//	@Param			limit		query		int		false	"Page size"	default(20)
//	@Param			offset		query		int		false	"Offset"	default(0)
//	@Success		200			{object}	response.Envelope{data=Page}
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/{collection} [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := max(queryInt(r, "offset", 0), 0)

	recs, total, err := svc.List(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("list assets")
		response.InternalError(w)
		return
	}

	page := Page{Items: make([]View, 0, len(recs)), Total: total, Limit: limit, Offset: offset}
	for _, rec := range recs {
		page.Items = append(page.Items, view(svc, rec))
	}
	response.OK(w, page)
}

// Get godoc
//
//	@Summary		Get image
//	@Tags			assets
//	@Produce		json
//	@Param			collection	path		string	true	"Collection"	Enums(photos, avatars)
//	@Param			id			path		string	true	"Asset ID"
//	@Success		200			{object}	response.Envelope{data=View}
//	@Failure		400			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/{collection}/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	rec, err := svc.Get(r.Context(), id)
	if err != nil {
		if svc.IsNotFound(err) {
			response.NotFound(w, "asset not found")
			return
		}
		log.Error().Err(err).Str("id", id).Msg("get asset")
		response.InternalError(w)
		return
	}
	response.OK(w, view(svc, rec))
}

// Delete godoc
//
//	@Summary		Delete image
//	@Description	Deletes the record, then the original and every variant from the object store.
//	@Tags			assets
//	@Security		BearerAuth
//	@Param			collection	path	string	true	"Collection"	Enums(photos, avatars)
//	@Param			id			path	string	true	"Asset ID"
//	@Success		204
//	@Failure		400	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/{collection}/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	if err := svc.Destroy(r.Context(), id); err != nil {
		if svc.IsNotFound(err) {
			response.NotFound(w, "asset not found")
			return
		}
		log.Error().Err(err).Str("id", id).Msg("delete asset")
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}
