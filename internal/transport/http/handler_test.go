package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/oziev02/ResponsiveImages/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageService struct {
	records []domain.Record
	err     error
}

func (s *fakeImageService) Generate(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error) {
	return nil, errors.New("not used")
}

func (s *fakeImageService) GetByName(ctx context.Context, name string) (*domain.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.records {
		if s.records[i].Name == name {
			return &s.records[i], nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (s *fakeImageService) List(ctx context.Context) ([]domain.Record, error) {
	return s.records, s.err
}

type fakeProducer struct {
	tasks []*domain.ProcessingTask
	err   error
}

func (p *fakeProducer) SendTask(ctx context.Context, task *domain.ProcessingTask) error {
	if p.err != nil {
		return p.err
	}
	p.tasks = append(p.tasks, task)
	return nil
}

type fakeStorage map[string]string

func (s fakeStorage) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := s[key]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

var jobDefaults = domain.RunOptions{Sizes: []int{320, 480}, Codec: "webp", Quality: 85}

func newTestRouter(svc *fakeImageService, producer *fakeProducer, storage StorageReader) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc, producer, storage, jobDefaults, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(r)
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(newTestRouter(&fakeImageService{}, &fakeProducer{}, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestListImages(t *testing.T) {
	svc := &fakeImageService{records: []domain.Record{{Name: "robot-a.jpg"}, {Name: "robot-b.jpg"}}}
	rec := serve(newTestRouter(svc, &fakeProducer{}, nil), http.MethodGet, "/api/images", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestGetImageInfo(t *testing.T) {
	svc := &fakeImageService{records: []domain.Record{{Name: "robot-a.jpg", HQImage: "hq"}}}
	router := newTestRouter(svc, &fakeProducer{}, nil)

	rec := serve(router, http.MethodGet, "/api/images/robot-a.jpg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "hq", got.HQImage)

	rec = serve(router, http.MethodGet, "/api/images/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetImageInfo_StoreError(t *testing.T) {
	svc := &fakeImageService{err: errors.New("disk gone")}
	rec := serve(newTestRouter(svc, &fakeProducer{}, nil), http.MethodGet, "/api/images/robot", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSubmitJob(t *testing.T) {
	producer := &fakeProducer{}
	rec := serve(newTestRouter(&fakeImageService{}, producer, nil), http.MethodPost, "/api/jobs",
		`{"input_path":"/photos/robot.jpg","name":"robot","force":true}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, producer.tasks, 1)
	task := producer.tasks[0]

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, task.ID, body["id"])
	assert.Equal(t, []int{320, 480}, task.Options.Sizes)
	assert.Equal(t, "webp", task.Options.Codec)
	assert.True(t, task.Options.Force)
}

func TestSubmitJob_Invalid(t *testing.T) {
	router := newTestRouter(&fakeImageService{}, &fakeProducer{}, nil)

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/api/jobs", "{").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/api/jobs", `{"input_path":"a.jpg"}`).Code)
}

func TestSubmitJob_ProducerFailure(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	rec := serve(newTestRouter(&fakeImageService{}, producer, nil), http.MethodPost, "/api/jobs",
		`{"input_path":"a.jpg","name":"robot"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetFile(t *testing.T) {
	storage := fakeStorage{"images/2024/Mar/robot-320w.webp": "webp bytes"}
	router := newTestRouter(&fakeImageService{}, &fakeProducer{}, storage)

	rec := serve(router, http.MethodGet, "/files/images/2024/Mar/robot-320w.webp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.Equal(t, "webp bytes", rec.Body.String())

	rec = serve(router, http.MethodGet, "/files/missing.webp", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetFile_NotMountedWithoutLocalStorage(t *testing.T) {
	rec := serve(newTestRouter(&fakeImageService{}, &fakeProducer{}, nil), http.MethodGet, "/files/a.webp", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
