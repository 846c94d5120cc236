// internal/application/mintflow/ports.go
package mintflow

import (
	"context"

	"critterforge/internal/domain/mintrecord"
)

// ------------------------------------------------------
// Collaborator ports
// ------------------------------------------------------
//
// The orchestrator composes five external collaborators: content storage,
// the wallet signer, the ledger network (submit/confirm), asset issuance,
// and payment verification. All are ports here; infra/solana, infra/arweave
// and adapters/out provide the implementations.

// ContentUploader pushes rendered bytes or a metadata document to the
// content-storage collaborator and returns a content URI.
type ContentUploader interface {
	UploadImage(ctx context.Context, data []byte) (string, error)
	UploadMetadata(ctx context.Context, data []byte) (string, error)
}

// PaymentIntent is an unsigned token-transfer instruction set, ready to be
// handed to the signing collaborator. UnsignedMessage is the serialized
// ledger message; the orchestrator never holds signing authority.
type PaymentIntent struct {
	UnsignedMessage []byte
	FromAddress     string
	ToAddress       string
	TokenMint       string
	Amount          uint64 // token base units
}

// TransferBuilder assembles the unsigned token transfer from the minting
// party to the treasury.
type TransferBuilder interface {
	BuildTransfer(ctx context.Context, from, to, tokenMint string, amount uint64) (PaymentIntent, error)
}

// TransactionSigner is the external wallet collaborator. It signs the
// message and returns the full serialized transaction.
type TransactionSigner interface {
	Sign(ctx context.Context, unsignedMessage []byte) ([]byte, error)
}

// LedgerSubmitter submits a signed transaction and blocks until the ledger
// finalizes it (or the submission fails).
type LedgerSubmitter interface {
	SubmitAndConfirm(ctx context.Context, signedTx []byte) (signature string, err error)
}

// AssetIssuer issues the non-fungible ledger asset to the owner wallet and
// returns the asset address plus the issuance transaction signature.
type AssetIssuer interface {
	IssueAsset(ctx context.Context, ownerAddress, name, symbol, metadataURI string) (assetAddress, txSignature string, err error)
}

// PaymentVerification is the verifier's judgement on a finalized payment.
type PaymentVerification struct {
	Valid        bool
	ActualAmount uint64
	Reason       string // human-readable, names the failing field
}

// PaymentVerifier inspects a finalized ledger transaction and confirms
// sender, recipient, token and amount. The error return is reserved for
// fetch/shape failures (not found, on-chain failure, no matching transfer);
// field mismatches come back as Valid=false with a Reason.
type PaymentVerifier interface {
	Verify(ctx context.Context, signature, expectedSender string, expectedAmount uint64) (PaymentVerification, error)
}

// ReceiptNotifier delivers a mint receipt after a successful run. Optional;
// failures are logged, never propagated.
type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, email string, rec mintrecord.MintRecord) error
}
