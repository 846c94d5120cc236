// internal/application/mintflow/workflow.go
package mintflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"critterforge/internal/application/availability"
	"critterforge/internal/domain/mintrecord"
	"critterforge/internal/domain/rarity"
	"critterforge/internal/domain/trait"
)

// ------------------------------------------------------
// Mint Orchestrator (finite state machine)
// ------------------------------------------------------
//
// One Workflow instance per in-flight mint attempt. Stages run strictly in
// order; many instances may run concurrently, including two targeting the
// identical trait hash. Only the registry's unique constraint decides that
// race — no lock is taken earlier, so the losing instance's payment and
// asset issuance are not reversed. Ledger state is ground truth; the
// conflict is logged and surfaced in the Result while the outcome stays
// Success.

var (
	ErrNotIdle           = errors.New("mintflow: workflow is not idle")
	ErrCancelled         = errors.New("mintflow: workflow cancelled")
	ErrCancelTooLate     = errors.New("mintflow: payment already submitted, cannot cancel")
	ErrNotResettable     = errors.New("mintflow: only error/unavailable states reset to idle")
	ErrMissingDependency = errors.New("mintflow: missing dependency")
)

type Config struct {
	TreasuryAddress string
	TokenMint       string
	TokenDecimals   int

	AssetNamePrefix string // e.g. "Critter"
	AssetSymbol     string // e.g. "CRIT"

	// PermissiveUploads substitutes a clearly-flagged placeholder URI when
	// content storage fails, instead of aborting the workflow.
	PermissiveUploads bool

	// StrictPaymentVerify makes a failed payment verification fatal. Off by
	// default: verification is advisory and only logged.
	StrictPaymentVerify bool
}

type Deps struct {
	Catalog      *trait.Catalog
	Availability *availability.Usecase
	Uploader     ContentUploader
	Transfers    TransferBuilder
	Signer       TransactionSigner
	Ledger       LedgerSubmitter
	Issuer       AssetIssuer
	Verifier     PaymentVerifier
	Registry     mintrecord.Repository
	Metadata     *MetadataBuilder

	// Optional
	Notifier ReceiptNotifier
}

// MintInput starts one attempt. Image carries the externally rendered bytes;
// BuyerEmail is optional and only used for the receipt mail.
type MintInput struct {
	Traits        trait.TraitSet
	OwnerAddress  string
	MinterAddress string
	Image         []byte
	BuyerEmail    string
}

// Artifacts accumulates what the workflow has produced so far. Exposed for
// manual reconciliation when a run ends in Error.
type Artifacts struct {
	TraitHash        string      `json:"traitHash"`
	RarityScore      int         `json:"rarityScore"`
	RarityTier       rarity.Tier `json:"rarityTier"`
	Price            int         `json:"price"`
	ImageURI         string      `json:"imageUri"`
	ImagePlaceholder bool        `json:"imagePlaceholder"`
	MetadataURI      string      `json:"metadataUri"`
	PaymentSignature string      `json:"paymentSignature"`
	AssetAddress     string      `json:"assetAddress"`
	MintTxSignature  string      `json:"mintTxSignature"`
}

type Result struct {
	Outcome Outcome

	// FailedStage is set when Outcome is Error: the stage whose work failed.
	FailedStage Stage
	Err         string

	// ExistingTier is set when Outcome is Unavailable.
	ExistingTier rarity.Tier

	// RegistryConflict marks the documented policy gap: the registry write
	// lost a uniqueness race after the ledger payment and issuance already
	// executed. The ledger-level outcome is still Success.
	RegistryConflict bool

	Record    mintrecord.MintRecord
	Artifacts Artifacts
}

type Workflow struct {
	cfg  Config
	deps Deps

	mu        sync.Mutex
	stage     Stage
	subs      []func(Transition)
	artifacts Artifacts
	lastErr   error

	cancelRequested atomic.Bool
	paymentStarted  atomic.Bool
}

func New(cfg Config, deps Deps) (*Workflow, error) {
	switch {
	case deps.Catalog == nil:
		return nil, fmt.Errorf("%w: catalog", ErrMissingDependency)
	case deps.Availability == nil:
		return nil, fmt.Errorf("%w: availability", ErrMissingDependency)
	case deps.Uploader == nil:
		return nil, fmt.Errorf("%w: uploader", ErrMissingDependency)
	case deps.Transfers == nil:
		return nil, fmt.Errorf("%w: transfer builder", ErrMissingDependency)
	case deps.Signer == nil:
		return nil, fmt.Errorf("%w: signer", ErrMissingDependency)
	case deps.Ledger == nil:
		return nil, fmt.Errorf("%w: ledger submitter", ErrMissingDependency)
	case deps.Issuer == nil:
		return nil, fmt.Errorf("%w: asset issuer", ErrMissingDependency)
	case deps.Verifier == nil:
		return nil, fmt.Errorf("%w: payment verifier", ErrMissingDependency)
	case deps.Registry == nil:
		return nil, fmt.Errorf("%w: registry", ErrMissingDependency)
	}
	if strings.TrimSpace(cfg.TreasuryAddress) == "" {
		return nil, fmt.Errorf("%w: treasury address", ErrMissingDependency)
	}
	if strings.TrimSpace(cfg.TokenMint) == "" {
		return nil, fmt.Errorf("%w: token mint", ErrMissingDependency)
	}
	if deps.Metadata == nil {
		deps.Metadata = NewMetadataBuilder()
	}
	if cfg.AssetNamePrefix == "" {
		cfg.AssetNamePrefix = "Critter"
	}
	if cfg.AssetSymbol == "" {
		cfg.AssetSymbol = "CRIT"
	}
	return &Workflow{cfg: cfg, deps: deps, stage: StageIdle}, nil
}

// Subscribe registers a stage-change observer. Observers are called
// synchronously in registration order on every transition.
func (w *Workflow) Subscribe(fn func(Transition)) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs = append(w.subs, fn)
}

// Stage returns the current stage.
func (w *Workflow) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// Snapshot returns the current stage and accumulated artifacts for manual
// reconciliation.
func (w *Workflow) Snapshot() (Stage, Artifacts) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage, w.artifacts
}

// Cancel requests cooperative cancellation. Honored only at stage
// boundaries before the payment is handed to the signer; once the payment
// stage has started the workflow must run to Success or Error.
func (w *Workflow) Cancel() error {
	if w.paymentStarted.Load() {
		return ErrCancelTooLate
	}
	w.cancelRequested.Store(true)
	return nil
}

// Reset returns an Error or Unavailable workflow to Idle, discarding all
// accumulated state.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	if w.stage != StageError && w.stage != StageUnavailable {
		w.mu.Unlock()
		return ErrNotResettable
	}
	from := w.stage
	w.stage = StageIdle
	w.artifacts = Artifacts{}
	w.lastErr = nil
	w.cancelRequested.Store(false)
	w.paymentStarted.Store(false)
	w.mu.Unlock()
	w.notify(Transition{From: from, To: StageIdle})
	return nil
}

// Run drives one mint attempt from Idle to a terminal stage. It returns a
// structured Result for the three documented outcomes; the error return is
// reserved for misuse (not idle) and cancellation.
func (w *Workflow) Run(ctx context.Context, in MintInput) (Result, error) {
	w.mu.Lock()
	if w.stage != StageIdle {
		w.mu.Unlock()
		return Result{}, ErrNotIdle
	}
	w.mu.Unlock()

	// ---- CheckingAvailability -------------------------------------------
	w.transition(StageCheckingAvailability, nil)

	if err := in.Traits.Validate(w.deps.Catalog); err != nil {
		return w.fail(StageCheckingAvailability, err)
	}
	owner := strings.TrimSpace(in.OwnerAddress)
	minter := strings.TrimSpace(in.MinterAddress)
	if owner == "" || minter == "" {
		return w.fail(StageCheckingAvailability, errors.New("mintflow: owner and minter addresses are required"))
	}

	hash := trait.Hash(in.Traits)
	score, err := rarity.Score(w.deps.Catalog, in.Traits)
	if err != nil {
		return w.fail(StageCheckingAvailability, err)
	}
	tier := rarity.TierForScore(score)
	w.setArtifacts(func(a *Artifacts) {
		a.TraitHash = hash
		a.RarityScore = score
		a.RarityTier = tier
	})

	avail, err := w.deps.Availability.Check(ctx, hash)
	if err != nil {
		return w.fail(StageCheckingAvailability, err)
	}
	if !avail.Available {
		w.transition(StageUnavailable, nil)
		return Result{
			Outcome:      OutcomeUnavailable,
			ExistingTier: avail.ExistingTier,
			Artifacts:    w.artifactsCopy(),
		}, nil
	}
	price := w.deps.Availability.PriceFor(tier)
	w.setArtifacts(func(a *Artifacts) { a.Price = price })

	if res, err, done := w.cancelCheckpoint(); done {
		return res, err
	}

	// ---- UploadingImage --------------------------------------------------
	w.transition(StageUploadingImage, nil)

	imageURI, imagePlaceholder, err := w.uploadWithFallback(hash, "image", func() (string, error) {
		return w.deps.Uploader.UploadImage(ctx, in.Image)
	})
	if err != nil {
		return w.fail(StageUploadingImage, err)
	}
	w.setArtifacts(func(a *Artifacts) {
		a.ImageURI = imageURI
		a.ImagePlaceholder = imagePlaceholder
	})

	if res, err, done := w.cancelCheckpoint(); done {
		return res, err
	}

	// ---- UploadingMetadata ----------------------------------------------
	w.transition(StageUploadingMetadata, nil)

	assetName := fmt.Sprintf("%s #%s", w.cfg.AssetNamePrefix, hash[:8])
	metaDoc, err := w.deps.Metadata.Build(assetName, w.cfg.AssetSymbol, in.Traits, hash, score, tier, imageURI)
	if err != nil {
		return w.fail(StageUploadingMetadata, err)
	}
	metadataURI, metaPlaceholder, err := w.uploadWithFallback(hash, "metadata", func() (string, error) {
		return w.deps.Uploader.UploadMetadata(ctx, metaDoc)
	})
	if err != nil {
		return w.fail(StageUploadingMetadata, err)
	}
	placeholder := imagePlaceholder || metaPlaceholder
	w.setArtifacts(func(a *Artifacts) {
		a.MetadataURI = metadataURI
		a.ImagePlaceholder = placeholder
	})

	// Last chance to cancel: once the payment stage starts, the workflow
	// runs to a terminal state.
	if res, err, done := w.cancelCheckpoint(); done {
		return res, err
	}

	// ---- AwaitingPayment -------------------------------------------------
	w.transition(StageAwaitingPayment, nil)
	w.paymentStarted.Store(true)

	// A Cancel accepted in the window before paymentStarted flipped is still
	// honored here: nothing has been handed to the signer yet.
	if res, err, done := w.cancelCheckpoint(); done {
		return res, err
	}

	amount := baseUnits(price, w.cfg.TokenDecimals)
	intent, err := w.deps.Transfers.BuildTransfer(ctx, minter, w.cfg.TreasuryAddress, w.cfg.TokenMint, amount)
	if err != nil {
		return w.fail(StageAwaitingPayment, err)
	}
	signedTx, err := w.deps.Signer.Sign(ctx, intent.UnsignedMessage)
	if err != nil {
		return w.fail(StageAwaitingPayment, err)
	}

	// ---- ConfirmingPayment -----------------------------------------------
	w.transition(StageConfirmingPayment, nil)

	paySig, err := w.deps.Ledger.SubmitAndConfirm(ctx, signedTx)
	if err != nil {
		// Fatal, no automatic retry: the user restarts from Idle.
		return w.fail(StageConfirmingPayment, err)
	}
	w.setArtifacts(func(a *Artifacts) { a.PaymentSignature = paySig })

	if v, verr := w.deps.Verifier.Verify(ctx, paySig, minter, amount); verr != nil || !v.Valid {
		reason := ""
		if verr != nil {
			reason = verr.Error()
		} else {
			reason = v.Reason
		}
		if w.cfg.StrictPaymentVerify {
			return w.fail(StageConfirmingPayment, fmt.Errorf("mintflow: payment verification failed: %s", reason))
		}
		log.Printf("[mintflow] WARN payment verification failed (advisory) sig=%s reason=%s", maskShort(paySig), reason)
	}

	// ---- MintingAsset ----------------------------------------------------
	w.transition(StageMintingAsset, nil)

	assetAddr, mintSig, err := w.deps.Issuer.IssueAsset(ctx, owner, assetName, w.cfg.AssetSymbol, metadataURI)
	if err != nil {
		return w.fail(StageMintingAsset, err)
	}
	w.setArtifacts(func(a *Artifacts) {
		a.AssetAddress = assetAddr
		a.MintTxSignature = mintSig
	})

	// ---- Recording -------------------------------------------------------
	w.transition(StageRecording, nil)

	rec, err := mintrecord.NewMintRecord(
		hash, in.Traits,
		owner, minter,
		assetAddr, mintSig,
		metadataURI, imageURI, placeholder,
		paySig, price, score, tier,
		time.Now().UTC(),
	)
	if err != nil {
		return w.fail(StageRecording, err)
	}

	conflict := false
	saved, err := w.deps.Registry.Create(ctx, rec)
	if err != nil {
		if errors.Is(err, mintrecord.ErrConflict) {
			// A concurrent attempt won the race. The payment and asset
			// issuance already executed on the ledger and are not rolled
			// back; ledger state is ground truth.
			log.Printf("[mintflow] registry conflict hash=%s asset=%s paySig=%s (not rolled back)",
				hash[:8], maskShort(assetAddr), maskShort(paySig))
			conflict = true
			saved = rec
		} else {
			return w.fail(StageRecording, err)
		}
	}

	// ---- Success ---------------------------------------------------------
	w.transition(StageSuccess, nil)
	log.Printf("[mintflow] mint complete hash=%s tier=%s score=%d asset=%s conflict=%t",
		hash[:8], tier, score, maskShort(assetAddr), conflict)

	if w.deps.Notifier != nil && strings.TrimSpace(in.BuyerEmail) != "" {
		if err := w.deps.Notifier.SendReceipt(ctx, in.BuyerEmail, saved); err != nil {
			log.Printf("[mintflow] WARN receipt mail failed: %v", err)
		}
	}

	return Result{
		Outcome:          OutcomeSuccess,
		RegistryConflict: conflict,
		Record:           saved,
		Artifacts:        w.artifactsCopy(),
	}, nil
}

// ------------------------------------------------------
// internals
// ------------------------------------------------------

func (w *Workflow) transition(to Stage, err error) {
	w.mu.Lock()
	from := w.stage
	w.stage = to
	if err != nil {
		w.lastErr = err
	}
	w.mu.Unlock()
	w.notify(Transition{From: from, To: to, Err: err})
}

// notify must not hold w.mu while calling observers: an observer may read
// the workflow back (Stage, Snapshot).
func (w *Workflow) notify(t Transition) {
	w.mu.Lock()
	subs := make([]func(Transition), len(w.subs))
	copy(subs, w.subs)
	w.mu.Unlock()
	for _, fn := range subs {
		fn(t)
	}
}

func (w *Workflow) setArtifacts(mut func(*Artifacts)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	mut(&w.artifacts)
}

func (w *Workflow) artifactsCopy() Artifacts {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.artifacts
}

// cancelCheckpoint honors a pending cancellation between stages. The
// workflow drops straight back to Idle: no ledger side effects exist yet.
func (w *Workflow) cancelCheckpoint() (Result, error, bool) {
	if !w.cancelRequested.Load() {
		return Result{}, nil, false
	}
	w.mu.Lock()
	from := w.stage
	w.stage = StageIdle
	w.artifacts = Artifacts{}
	w.cancelRequested.Store(false)
	w.paymentStarted.Store(false)
	w.mu.Unlock()
	w.notify(Transition{From: from, To: StageIdle})
	log.Printf("[mintflow] cancelled at stage %s", from)
	return Result{}, ErrCancelled, true
}

func (w *Workflow) fail(failedAt Stage, err error) (Result, error) {
	log.Printf("[mintflow] stage %s failed: %v", failedAt, err)
	w.transition(StageError, err)
	return Result{
		Outcome:     OutcomeError,
		FailedStage: failedAt,
		Err:         err.Error(),
		Artifacts:   w.artifactsCopy(),
	}, nil
}

// uploadWithFallback runs one upload. In permissive deployments a failure
// degrades to a flagged placeholder URI instead of aborting.
func (w *Workflow) uploadWithFallback(hash, kind string, upload func() (string, error)) (string, bool, error) {
	uri, err := upload()
	if err == nil {
		return uri, false, nil
	}
	if !w.cfg.PermissiveUploads {
		return "", false, err
	}
	placeholder := fmt.Sprintf("placeholder://critter/%s/%s", hash, kind)
	log.Printf("[mintflow] WARN %s upload failed, substituting placeholder uri=%s err=%v", kind, placeholder, err)
	return placeholder, true, nil
}

func baseUnits(wholeTokens, decimals int) uint64 {
	amount := uint64(wholeTokens)
	for i := 0; i < decimals; i++ {
		amount *= 10
	}
	return amount
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
