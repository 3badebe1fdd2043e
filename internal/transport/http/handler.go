package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/oziev02/ResponsiveImages/internal/codec"
	"github.com/oziev02/ResponsiveImages/internal/domain"
	"github.com/oziev02/ResponsiveImages/internal/service"
)

type Handler struct {
	imageService service.ImageService
	producer     TaskProducer
	storageRepo  StorageReader
	defaults     domain.RunOptions
	logger       *slog.Logger
}

type StorageReader interface {
	Read(ctx context.Context, key string) (io.ReadCloser, error)
}

type TaskProducer interface {
	SendTask(ctx context.Context, task *domain.ProcessingTask) error
}

// NewHandler serves the record store and accepts jobs. storageRepo may be nil
// when objects are not kept on the local filesystem; defaults fill the
// fields a submitted job leaves empty.
func NewHandler(
	imageService service.ImageService,
	producer TaskProducer,
	storageRepo StorageReader,
	defaults domain.RunOptions,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		imageService: imageService,
		producer:     producer,
		storageRepo:  storageRepo,
		defaults:     defaults,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)

	r.Get("/api/images", h.ListImages)
	r.Get("/api/images/{name}", h.GetImageInfo)
	r.Post("/api/jobs", h.SubmitJob)

	if h.storageRepo != nil {
		r.Get("/files/*", h.GetFile)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) GetImageInfo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.Error(w, "image name is required", http.StatusBadRequest)
		return
	}

	record, err := h.imageService.GetByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			http.Error(w, "image not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get record", "name", name, "error", err)
		http.Error(w, fmt.Sprintf("failed to get image: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	records, err := h.imageService.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list records", "error", err)
		http.Error(w, fmt.Sprintf("failed to list images: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var opts domain.RunOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		http.Error(w, "invalid job body", http.StatusBadRequest)
		return
	}

	opts = h.withDefaults(opts)
	if err := opts.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task := domain.NewProcessingTask(opts)
	if err := h.producer.SendTask(r.Context(), task); err != nil {
		h.logger.Error("failed to enqueue task", "task_id", task.ID, "error", err)
		http.Error(w, "failed to enqueue job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"id": task.ID})
}

// GetFile serves an object from the local storage backend.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		http.Error(w, "file key is required", http.StatusBadRequest)
		return
	}

	reader, err := h.storageRepo.Read(r.Context(), key)
	if err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", codec.ContentType(path.Ext(key)))
	_, _ = io.Copy(w, reader)
}

func (h *Handler) withDefaults(opts domain.RunOptions) domain.RunOptions {
	if len(opts.Sizes) == 0 {
		opts.Sizes = append([]int(nil), h.defaults.Sizes...)
	}
	if opts.Codec == "" {
		opts.Codec = h.defaults.Codec
	}
	if opts.Quality == 0 {
		opts.Quality = h.defaults.Quality
	}
	return opts
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
