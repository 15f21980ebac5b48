package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/plugreg/plugreg/internal/apperr"
	"github.com/plugreg/plugreg/internal/auth"
	"github.com/plugreg/plugreg/internal/pluginservice"
	"github.com/plugreg/plugreg/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	svc *pluginservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *pluginservice.Service) *Handler {
	return &Handler{svc: svc}
}

// packageIDParam extracts the package id path parameter. Scoped npm ids
// contain a slash, so clients send them percent-encoded
// (e.g. %40capacitor%2Fcamera).
func packageIDParam(r *http.Request) string {
	raw := chi.URLParam(r, "packageID")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func internalError(w http.ResponseWriter, op string, err error) {
	slog.Error(op+" failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// LookupNPMPackage handles GET /api/npm-package-lookup.
//
//	@Summary		Look up an npm package and verify it is a Capacitor plugin
//	@Tags			npm
//	@Produce		json
//	@Param			packageId	query		string	true	"npm package id"
//	@Success		200			{object}	map[string]any	"Manifest as served by the npm registry"
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Router			/npm-package-lookup [get]
func (h *Handler) LookupNPMPackage(w http.ResponseWriter, r *http.Request) {
	packageID := r.URL.Query().Get("packageId")
	if packageID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Package ID query param is required"))
		return
	}
	m, err := h.svc.Lookup(r.Context(), packageID)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotAPlugin):
			writeJSON(w, http.StatusBadRequest, errorBody("Not a Capacitor Plugin"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("Package Not Found"))
		case errors.Is(err, apperr.ErrBadRequest):
			writeJSON(w, http.StatusBadRequest, errorBody("Package ID query param is required"))
		default:
			internalError(w, "npm package lookup", err)
		}
		return
	}

	// The manifest is relayed as the registry served it.
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(m.Raw)
}

// GetPackageReadme handles GET /api/get-package-readme.
//
//	@Summary		Fetch the README for the latest version of a package
//	@Tags			npm
//	@Produce		json
//	@Param			packageId	query		string	true	"npm package id"
//	@Success		200			{object}	ReadmeResponse	"Served from cache"
//	@Success		201			{object}	ReadmeResponse	"Freshly extracted"
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Router			/get-package-readme [get]
func (h *Handler) GetPackageReadme(w http.ResponseWriter, r *http.Request) {
	packageID := r.URL.Query().Get("packageId")
	if packageID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Package ID query param is required"))
		return
	}
	contents, cached, err := h.svc.Readme(r.Context(), packageID)
	if err != nil {
		switch {
		case errors.Is(err, pluginservice.ErrNoVersion):
			writeJSON(w, http.StatusBadRequest, errorBody("Unable to locate package version"))
		case errors.Is(err, pluginservice.ErrNoTarball):
			writeJSON(w, http.StatusBadRequest, errorBody("Unable to locate package tarball"))
		case errors.Is(err, apperr.ErrNotAPlugin):
			writeJSON(w, http.StatusBadRequest, errorBody("Not a Capacitor Plugin"))
		case errors.Is(err, apperr.ErrReadmeNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("README Not Found"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("Package Not Found"))
		default:
			internalError(w, "get package readme", err)
		}
		return
	}

	status := http.StatusCreated
	if cached {
		status = http.StatusOK
	}
	writeJSON(w, status, ReadmeResponse{ReadmeContents: contents})
}

// SubmitNPMPackage handles POST /api/submit-npm-package.
//
//	@Summary		Submit a plugin to the registry
//	@Tags			plugins
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			packageId	formData	string	true	"npm package id"
//	@Param			category	formData	string	true	"Plugin category"
//	@Param			name		formData	string	false	"Display name (defaults to package id)"
//	@Param			keywords	formData	string	false	"Comma-separated keywords"
//	@Success		201			{object}	SubmitResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/submit-npm-package [post]
func (h *Handler) SubmitNPMPackage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid form body"))
		return
	}
	user, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
		return
	}

	req := pluginservice.SubmitRequest{
		PackageID: r.PostFormValue("packageId"),
		Name:      r.PostFormValue("name"),
		Keywords:  r.PostFormValue("keywords"),
		Category:  r.PostFormValue("category"),
	}
	pkg, err := h.svc.Submit(r.Context(), req, user)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotAPlugin):
			writeJSON(w, http.StatusBadRequest, errorBody("Not a Capacitor Plugin"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("Package Not Found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("package already submitted"))
		case errors.Is(err, apperr.ErrBadRequest):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		default:
			internalError(w, "submit npm package", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, SubmitResponse{PackageID: pkg.PackageID})
}

// ListPlugins handles GET /api/plugins.
//
//	@Summary		Search registered plugins
//	@Tags			plugins
//	@Produce		json
//	@Param			q			query		string	false	"Text query over ids, names and keywords"
//	@Param			category	query		string	false	"Category filter"
//	@Param			userId		query		string	false	"Owner filter"
//	@Param			sort		query		string	false	"Sort field"	Enums(package_id, name, likes)
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	PluginListResponse
//	@Failure		400			{object}	errResponse
//	@Router			/plugins [get]
func (h *Handler) ListPlugins(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	summaries, total, err := h.svc.Search(r.Context(), store.SearchQuery{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		UserID:   q.Get("userId"),
		Sort:     q.Get("sort"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrBadRequest) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		internalError(w, "list plugins", err)
		return
	}

	plugins := make([]Plugin, len(summaries))
	for i, s := range summaries {
		plugins[i] = toPlugin(s)
	}
	writeJSON(w, http.StatusOK, PluginListResponse{Plugins: plugins, Total: total})
}

// GetPlugin handles GET /api/plugins/{packageID}.
//
//	@Summary		Get a single plugin with its counters
//	@Tags			plugins
//	@Produce		json
//	@Param			packageID	path		string	true	"Percent-encoded package id"
//	@Success		200			{object}	Plugin
//	@Failure		404			{object}	errResponse
//	@Router			/plugins/{packageID} [get]
func (h *Handler) GetPlugin(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context(), packageIDParam(r))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("Package Not Found"))
			return
		}
		internalError(w, "get plugin", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlugin(*s))
}

// LikePlugin handles POST /api/plugins/{packageID}/like.
//
//	@Summary		Like a plugin
//	@Tags			plugins
//	@Produce		json
//	@Param			packageID	path		string	true	"Percent-encoded package id"
//	@Success		201			{object}	LikeResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plugins/{packageID}/like [post]
func (h *Handler) LikePlugin(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())
	count, err := h.svc.Like(r.Context(), packageIDParam(r), user)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("already liked"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("Package Not Found"))
		default:
			internalError(w, "like plugin", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, LikeResponse{LikeCount: count})
}

// UnlikePlugin handles DELETE /api/plugins/{packageID}/like.
//
//	@Summary		Remove a like from a plugin
//	@Tags			plugins
//	@Produce		json
//	@Param			packageID	path		string	true	"Percent-encoded package id"
//	@Success		200			{object}	LikeResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plugins/{packageID}/like [delete]
func (h *Handler) UnlikePlugin(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())
	count, err := h.svc.Unlike(r.Context(), packageIDParam(r), user)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		internalError(w, "unlike plugin", err)
		return
	}
	writeJSON(w, http.StatusOK, LikeResponse{LikeCount: count})
}

// RatePlugin handles PUT /api/plugins/{packageID}/rating.
//
//	@Summary		Rate a plugin from 1 to 5
//	@Tags			plugins
//	@Accept			json
//	@Produce		json
//	@Param			packageID	path		string			true	"Percent-encoded package id"
//	@Param			body		body		RatingRequest	true	"Rating"
//	@Success		200			{object}	RatingResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plugins/{packageID}/rating [put]
func (h *Handler) RatePlugin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	user, _ := auth.FromContext(r.Context())
	details, err := h.svc.Rate(r.Context(), packageIDParam(r), user, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrBadRequest):
			writeJSON(w, http.StatusBadRequest, errorBody("rating must be between 1 and 5"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("Package Not Found"))
		default:
			internalError(w, "rate plugin", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, RatingResponse{RatingCount: details.RatingCount, RatingSum: details.RatingSum})
}
