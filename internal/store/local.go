package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"
)

// productSlot is the fixed name of the single serialized-blob slot holding
// the full product backup when no remote database is configured.
const productSlot = "products.json"

// LocalStore keeps the whole product set in one JSON file slot. It is the
// no-database fallback backend; reads and writes are wholesale, there is no
// partial access to the slot.
type LocalStore struct {
	mu   sync.Mutex
	path string
}

// NewLocalStore creates a file-backed product store under dataDir.
func NewLocalStore(dataDir string) (*LocalStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &LocalStore{path: filepath.Join(dataDir, productSlot)}, nil
}

func (s *LocalStore) List(ctx context.Context, offset, limit int) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.read()
	if err != nil {
		return nil, err
	}

	// Same contract as the remote store: ordered by name, row-range paged.
	sort.SliceStable(products, func(i, j int) bool {
		return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
	})

	if offset >= len(products) {
		return []models.Product{}, nil
	}
	end := offset + limit
	if end > len(products) {
		end = len(products)
	}
	return products[offset:end], nil
}

func (s *LocalStore) UpsertBatch(ctx context.Context, batch []models.Product) error {
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.read()
	if err != nil {
		return err
	}

	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}
	for _, p := range batch {
		if i, ok := byID[p.ID]; ok {
			products[i] = p
			continue
		}
		byID[p.ID] = len(products)
		products = append(products, p)
	}

	return s.write(products)
}

func (s *LocalStore) Update(ctx context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.read()
	if err != nil {
		return err
	}

	for i := range products {
		if products[i].ID == p.ID {
			products[i] = p
			return s.write(products)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
}

// DeleteAll clears the slot.
func (s *LocalStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(nil)
}

func (s *LocalStore) read() ([]models.Product, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading product slot: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decoding product slot: %w", err)
	}
	return products, nil
}

func (s *LocalStore) write(products []models.Product) error {
	if products == nil {
		products = []models.Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encoding product slot: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing product slot: %w", err)
	}
	return nil
}

var _ ProductStore = (*LocalStore)(nil)
