package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"pharmacy/domain"
)

// FileSource is a JSON file-backed domain.ProductSource. The file uses the product
// service wire format; stock changes are written back atomically.
type FileSource struct {
	*MemorySource
	writeMu  sync.Mutex
	path     string
	rejected []error
}

// compile-time assertions
var (
	_ domain.ProductSource = (*FileSource)(nil)
	_ domain.StockSetter   = (*FileSource)(nil)
)

// NewFileSource constructs a FileSource at the given path. If the file exists it will be loaded.
func NewFileSource(path string) (*FileSource, error) {
	mem, err := NewMemorySource()
	if err != nil {
		return nil, err
	}
	s := &FileSource{MemorySource: mem, path: path}
	if err := s.loadFromFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rejected returns the records that were dropped while loading the file.
func (s *FileSource) Rejected() []error {
	return s.rejected
}

func (s *FileSource) loadFromFile() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// no file yet; that's fine
			return nil
		}
		return err
	}
	if len(b) == 0 {
		return nil
	}
	products, rejected, err := DecodeProducts(b)
	if err != nil {
		return err
	}
	s.rejected = rejected
	return s.MemorySource.Import(context.Background(), products)
}

func (s *FileSource) saveToFile() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	list, err := s.MemorySource.List(context.Background())
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileSource) Put(ctx context.Context, product domain.Product) error {
	if err := s.MemorySource.Put(ctx, product); err != nil {
		return err
	}
	return s.saveToFile()
}

func (s *FileSource) SetStock(ctx context.Context, id string, quantity int) error {
	if err := s.MemorySource.SetStock(ctx, id, quantity); err != nil {
		return err
	}
	return s.saveToFile()
}

func (s *FileSource) Import(ctx context.Context, products []domain.Product) error {
	importErr := s.MemorySource.Import(ctx, products)
	if err := s.saveToFile(); err != nil {
		return err
	}
	return importErr
}
