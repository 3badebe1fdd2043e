package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/oziev02/ResponsiveImages/internal/domain"
)

// DefaultDataFile is where records are written when no output is configured.
const DefaultDataFile = "./data/images.json"

type jsonRepo struct {
	mu   sync.Mutex
	path string
}

// NewJSONRepository stores records as a JSON array in a single file. A
// missing file is an empty store.
func NewJSONRepository(path string) RecordRepository {
	if path == "" {
		path = DefaultDataFile
	}
	return &jsonRepo{path: path}
}

func (r *jsonRepo) Exists(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return false, err
	}
	return indexOf(records, name) >= 0, nil
}

func (r *jsonRepo) Get(ctx context.Context, name string) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(records, name)
	if i < 0 {
		return nil, domain.ErrRecordNotFound
	}
	return &records[i], nil
}

func (r *jsonRepo) List(ctx context.Context) ([]domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

func (r *jsonRepo) Put(ctx context.Context, records []domain.Record, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.load()
	if err != nil {
		return err
	}

	for _, record := range records {
		i := indexOf(existing, record.Name)
		switch {
		case i < 0:
			existing = append(existing, record)
		case force:
			existing[i] = record
		default:
			return domain.Wrap(domain.KindCollision, "put", record.Name, domain.ErrKeyAlreadyExists)
		}
	}

	return r.save(existing)
}

func (r *jsonRepo) load() ([]domain.Record, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Record{}, nil
		}
		return nil, domain.Wrap(domain.KindMetadataIO, "read", r.path, err)
	}

	records := []domain.Record{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, domain.Wrap(domain.KindMetadataIO, "read", r.path, fmt.Errorf("failed to decode data file: %w", err))
	}
	return records, nil
}

// save writes through a temporary file so a failed write never leaves a
// truncated data file behind.
func (r *jsonRepo) save(records []domain.Record) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return domain.Wrap(domain.KindMetadataIO, "write", r.path, err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return domain.Wrap(domain.KindMetadataIO, "write", r.path, fmt.Errorf("failed to encode data file: %w", err))
	}

	tmp, err := os.CreateTemp(dir, ".images-*.json")
	if err != nil {
		return domain.Wrap(domain.KindMetadataIO, "write", r.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.Wrap(domain.KindMetadataIO, "write", r.path, err)
	}
	if err := tmp.Close(); err != nil {
		return domain.Wrap(domain.KindMetadataIO, "write", r.path, err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return domain.Wrap(domain.KindMetadataIO, "write", r.path, err)
	}
	return nil
}

func indexOf(records []domain.Record, name string) int {
	for i, record := range records {
		if record.Name == name {
			return i
		}
	}
	return -1
}
