// internal/domain/mintrecord/repository_port.go
package mintrecord

import "context"

// ------------------------------------------------------
// Repository Port for MintRecord (mint_records table)
// ------------------------------------------------------
//
// Output port in the hexagonal sense: concrete persistence lives under
// adapters/out, the domain and application layers see only this interface.
//
// The implementation is the authoritative uniqueness guard. The availability
// pre-check is a fast-fail optimization only; Create must re-validate via a
// storage-level unique constraint on the trait hash.

type Repository interface {
	// Create persists a new record.
	// - If r.ID is empty, the implementation assigns one and returns it.
	// - Returns ErrConflict when a record with the same trait hash already
	//   exists (a concurrent attempt won the race).
	Create(ctx context.Context, r MintRecord) (MintRecord, error)

	// GetByTraitHash returns the record for a canonical trait hash, or
	// ErrNotFound.
	GetByTraitHash(ctx context.Context, traitHash string) (MintRecord, error)
}
