package media

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Memory keeps images in process memory. URLs use baseURL + handle.
type Memory struct {
	mu      sync.Mutex
	baseURL string
	images  map[string][]byte
}

func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: baseURL, images: make(map[string][]byte)}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Upload(ctx context.Context, u Upload) (domain.ProductImage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProductImage{}, err
	}
	b, err := io.ReadAll(u.Body)
	if err != nil {
		return domain.ProductImage{}, fmt.Errorf("read %s: %w", u.Name, err)
	}
	handle := uuid.NewString()
	m.mu.Lock()
	m.images[handle] = b
	m.mu.Unlock()
	return domain.ProductImage{URL: m.baseURL + handle, Handle: handle}, nil
}

func (m *Memory) Delete(ctx context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[handle]; !ok {
		return fmt.Errorf("delete %s: %w", handle, ErrNotFound)
	}
	delete(m.images, handle)
	return nil
}

// Get returns stored image bytes.
func (m *Memory) Get(handle string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.images[handle]
	return b, ok
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images)
}
