package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"shortlink-service/internal/model"
	"shortlink-service/internal/service"
	"shortlink-service/internal/throttle"

	"github.com/gorilla/mux"
)

type Handler struct {
	Service       *service.Service
	CreateLimiter *throttle.CreateLimiter
	Delayer       *throttle.Delayer
	Guard         *throttle.Guard
}

// Request bodies
type createRequest struct {
	URL         string `json:"url"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

type createResponse struct {
	ShortURL string `json:"shortUrl"`
}

type throttledResponse struct {
	Message   string    `json:"message"`
	Limit     int       `json:"limit"`
	Current   int       `json:"current"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"resetTime"`
}

func NewHandler(s *service.Service, limiter *throttle.CreateLimiter, delayer *throttle.Delayer, guard *throttle.Guard) *Handler {
	return &Handler{
		Service:       s,
		CreateLimiter: limiter,
		Delayer:       delayer,
		Guard:         guard,
	}
}

func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", h.Banner).Methods("GET")
	r.HandleFunc("/urls", h.ListURLs).Methods("GET")
	r.HandleFunc("/urls/count", h.CountURLs).Methods("GET")
	r.HandleFunc("/usages", h.ListUsages).Methods("GET")
	r.HandleFunc("/usage/{slug}", h.Usage).Methods("GET")
	r.HandleFunc("/url", h.CreateLimitMiddleware(h.CreateURL)).Methods("POST")
	r.HandleFunc("/tables", h.ResetTables).Methods("DELETE")
	// catch-all, registered last so fixed paths win
	r.HandleFunc("/{slug}", h.GuardMiddleware(h.Redirect)).Methods("GET")

	r.Use(h.logMiddleware)
	r.Use(h.delayMiddleware)

	return r
}

func (h *Handler) Banner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "This is a URL shortener microservice, UI is available elsewhere!",
	})
}

func (h *Handler) CreateURL(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	short, err := h.Service.Create(r.Context(), req.URL, req.Slug, req.Description)
	switch {
	case errors.Is(err, model.ErrInvalidURL):
		http.Error(w, "URL provided is not valid.", http.StatusBadRequest)
	case errors.Is(err, model.ErrInvalidSlug):
		http.Error(w, "Slug provided is not valid. Only characters a-Z, 0-9 are permitted.", http.StatusBadRequest)
	case errors.Is(err, model.ErrSlugTaken):
		http.Error(w, fmt.Sprintf("Slug '%s' exists, please use a different slug!", req.Slug), http.StatusConflict)
	case err != nil:
		http.Error(w, fmt.Sprintf("An error occurred: %v", err), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusCreated, createResponse{ShortURL: short})
	}
}

func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	dest, err := h.Service.Resolve(r.Context(), slug)
	switch {
	case errors.Is(err, model.ErrInvalidSlug):
		http.Error(w, "Slug provided is not valid.", http.StatusBadRequest)
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, "Sorry, url not found!", http.StatusNotFound)
	case err != nil:
		http.Error(w, fmt.Sprintf("An error occurred during redirect, sorry! %v", err), http.StatusInternalServerError)
	default:
		http.Redirect(w, r, dest, http.StatusFound)
	}
}

func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	m, usages, err := h.Service.Detail(r.Context(), slug)
	switch {
	case errors.Is(err, model.ErrInvalidSlug):
		http.Error(w, "Slug provided is not valid.", http.StatusBadRequest)
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, "Sorry, url not found!", http.StatusNotFound)
	case err != nil:
		http.Error(w, fmt.Sprintf("An error occurred: %v", err), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"url": m, "usages": usages})
	}
}

func (h *Handler) ListURLs(w http.ResponseWriter, r *http.Request) {
	urls, err := h.Service.List(r.Context())
	if err != nil {
		http.Error(w, "error listing urls", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"urls": urls})
}

func (h *Handler) CountURLs(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.Count(r.Context())
	if err != nil {
		http.Error(w, "error counting urls", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *Handler) ListUsages(w http.ResponseWriter, r *http.Request) {
	usages, err := h.Service.Usages(r.Context())
	if err != nil {
		http.Error(w, "error listing usages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"usages": usages})
}

func (h *Handler) ResetTables(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Reset(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("An error occurred: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("write response:", err)
	}
}
