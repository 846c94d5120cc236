// internal/adapters/out/memory/mint_record_repository_mem.go
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"critterforge/internal/domain/mintrecord"
)

// MintRecordRepositoryMem is an in-memory mintrecord.Repository for local
// development and tests. First writer of a hash wins, same as the durable
// backends.
type MintRecordRepositoryMem struct {
	mu      sync.Mutex
	records map[string]mintrecord.MintRecord
}

func NewMintRecordRepositoryMem() *MintRecordRepositoryMem {
	return &MintRecordRepositoryMem{records: make(map[string]mintrecord.MintRecord)}
}

func (r *MintRecordRepositoryMem) Create(_ context.Context, m mintrecord.MintRecord) (mintrecord.MintRecord, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := m.Validate(); err != nil {
		return mintrecord.MintRecord{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[m.TraitHash]; ok {
		return mintrecord.MintRecord{}, mintrecord.ErrConflict
	}
	r.records[m.TraitHash] = m
	return m, nil
}

func (r *MintRecordRepositoryMem) GetByTraitHash(_ context.Context, traitHash string) (mintrecord.MintRecord, error) {
	hash := strings.ToLower(strings.TrimSpace(traitHash))

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.records[hash]
	if !ok {
		return mintrecord.MintRecord{}, mintrecord.ErrNotFound
	}
	return m, nil
}

// Len reports the number of stored records.
func (r *MintRecordRepositoryMem) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
