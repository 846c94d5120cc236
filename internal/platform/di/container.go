// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"

	httpin "critterforge/internal/adapters/in/http"
	"critterforge/internal/adapters/in/http/handlers"
	"critterforge/internal/adapters/in/http/middleware"
	dbrepo "critterforge/internal/adapters/out/db"
	fsrepo "critterforge/internal/adapters/out/firestore"
	gcsout "critterforge/internal/adapters/out/gcs"
	"critterforge/internal/adapters/out/mail"
	"critterforge/internal/adapters/out/memory"
	"critterforge/internal/application/availability"
	"critterforge/internal/application/mintflow"
	"critterforge/internal/domain/mintrecord"
	"critterforge/internal/domain/rarity"
	"critterforge/internal/domain/trait"
	"critterforge/internal/infra/arweave"
	"critterforge/internal/infra/config"
	"critterforge/internal/infra/database"
	firestoreinfra "critterforge/internal/infra/firestore"
	"critterforge/internal/infra/solana"
)

// Container bundles everything main needs. The goal is a thin main: Build
// wires config → infra → usecases → router, Close releases the resources.
type Container struct {
	Cfg    *config.Config
	Router http.Handler

	Registry mintrecord.Repository
	Flow     handlers.WorkflowFactory

	db      *database.DB
	fs      *firestoreinfra.ClientWrapper
	gcs     *storage.Client
	cleanup []func()
}

// Close releases held resources. Safe to call on a partially built container.
func (c *Container) Close() {
	if c.db != nil {
		_ = c.db.Close()
	}
	if c.fs != nil {
		_ = c.fs.Close()
	}
	if c.gcs != nil {
		_ = c.gcs.Close()
	}
	for _, fn := range c.cleanup {
		fn()
	}
}

// Build assembles the container. Collaborators that cannot be wired (missing
// env, unreachable backends) are logged and skipped; the router mounts only
// what exists, so /healthz keeps serving either way.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Cfg: cfg}

	catalog := trait.DefaultCatalog()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	gen, err := trait.NewGenerator(catalog, rng)
	if err != nil {
		return nil, fmt.Errorf("di: generator: %w", err)
	}

	prices := rarity.DefaultPriceTable()
	if cfg.BasePrice > 0 {
		prices = rarity.PriceTable{BaseUnitPrice: cfg.BasePrice}
	}

	registry, err := c.buildRegistry(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("di: registry: %w", err)
	}
	c.Registry = registry

	availUC := availability.NewUsecase(registry, prices)

	// The verifier serves both the workflow and the record-submission
	// re-check, so it is built independently of the full mint wiring.
	var verifier mintflow.PaymentVerifier
	if cfg.ForgeTokenMint != "" && cfg.TreasuryAddress != "" {
		rpc := solana.NewJSONRPCClient(cfg.SolanaRPCEndpoint)
		verifier = solana.NewPaymentVerifierSolana(rpc, cfg.ForgeTokenMint, cfg.TreasuryAddress)
	} else {
		log.Printf("[di] FORGE_TOKEN_MINT / TREASURY_ADDRESS unset, payment re-check disabled")
	}

	uploader := c.buildUploader(ctx, cfg)
	flowFactory := c.buildFlowFactory(ctx, cfg, catalog, availUC, uploader, registry, verifier)
	c.Flow = flowFactory

	var fbAuth *middleware.FirebaseAuthClient
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID})
		if err != nil {
			log.Printf("[di] firebase app init failed, auth disabled: %v", err)
		} else if client, err := app.Auth(ctx); err != nil {
			log.Printf("[di] firebase auth init failed, auth disabled: %v", err)
		} else {
			fbAuth = client
		}
	}

	c.Router = httpin.NewRouter(httpin.RouterDeps{
		Catalog:        catalog,
		Generator:      gen,
		AvailabilityUC: availUC,
		Registry:       registry,
		NewFlow:        flowFactory,
		Verifier:       verifier,
		StrictVerify:   cfg.PaymentVerifyStrict,
		TokenDecimals:  cfg.ForgeTokenDecimal,
		AllowedOrigin:  cfg.AllowedOrigin,
		FirebaseAuth:   fbAuth,
	})

	return c, nil
}

func (c *Container) buildRegistry(ctx context.Context, cfg *config.Config) (mintrecord.Repository, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.RegistryBackend)) {
	case "", "pg":
		db, err := database.NewConnection(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		if err != nil {
			return nil, err
		}
		c.db = db
		repo := dbrepo.NewMintRecordRepositoryPG(db.Client)
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		log.Printf("[di] registry backend: postgres (%s/%s)", cfg.DBHost, cfg.DBName)
		return repo, nil

	case "firestore":
		fs, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
		if err != nil {
			return nil, err
		}
		c.fs = fs
		log.Printf("[di] registry backend: firestore (%s)", cfg.FirestoreProjectID)
		return fsrepo.NewMintRecordRepositoryFS(fs.Client), nil

	case "memory":
		log.Printf("[di] registry backend: memory (non-durable)")
		return memory.NewMintRecordRepositoryMem(), nil

	default:
		return nil, fmt.Errorf("unknown REGISTRY_BACKEND %q", cfg.RegistryBackend)
	}
}

func (c *Container) buildUploader(ctx context.Context, cfg *config.Config) mintflow.ContentUploader {
	switch strings.ToLower(strings.TrimSpace(cfg.AssetBackend)) {
	case "gcs":
		if cfg.AssetBucket == "" {
			log.Printf("[di] ASSET_BUCKET unset, uploads disabled")
			return nil
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			log.Printf("[di] gcs client init failed, uploads disabled: %v", err)
			return nil
		}
		c.gcs = client
		return gcsout.NewAssetUploaderGCS(client, cfg.AssetBucket)

	default: // "arweave"
		if cfg.ArweaveBaseURL == "" {
			log.Printf("[di] ARWEAVE_BASE_URL unset, uploads disabled")
			return nil
		}
		return arweave.NewHTTPUploader(cfg.ArweaveBaseURL, cfg.ArweaveAPIKey)
	}
}

// buildFlowFactory wires the full mint workflow. Missing ledger settings
// disable minting (the read endpoints stay up).
func (c *Container) buildFlowFactory(
	ctx context.Context,
	cfg *config.Config,
	catalog *trait.Catalog,
	availUC *availability.Usecase,
	uploader mintflow.ContentUploader,
	registry mintrecord.Repository,
	verifier mintflow.PaymentVerifier,
) handlers.WorkflowFactory {
	if verifier == nil {
		log.Printf("[di] payment verifier unconfigured, minting disabled")
		return nil
	}
	if uploader == nil {
		log.Printf("[di] no content uploader, minting disabled")
		return nil
	}

	authority, err := solana.LoadMintAuthority(ctx, cfg.GCPProjectID, cfg.TreasurySecretID)
	if err != nil {
		log.Printf("[di] mint authority unavailable, minting disabled: %v", err)
		return nil
	}

	transfers := solana.NewTransferBuilderSolana(cfg.SolanaRPCEndpoint, uint8(cfg.ForgeTokenDecimal))
	ledger := solana.NewLedgerClientSolana(cfg.SolanaRPCEndpoint)
	issuer := solana.NewAssetIssuerSolana(cfg.SolanaRPCEndpoint, authority)
	signer := solana.NewLocalWalletSigner(authority)

	var notifier mintflow.ReceiptNotifier
	if cfg.SendGridAPIKey != "" && cfg.ReceiptFromEmail != "" {
		notifier = mail.NewReceiptMailer(cfg.SendGridAPIKey, cfg.ReceiptFromEmail)
	}

	wfCfg := mintflow.Config{
		TreasuryAddress:     cfg.TreasuryAddress,
		TokenMint:           cfg.ForgeTokenMint,
		TokenDecimals:       cfg.ForgeTokenDecimal,
		AssetNamePrefix:     "Critter",
		AssetSymbol:         "CRIT",
		PermissiveUploads:   cfg.PermissiveUploads,
		StrictPaymentVerify: cfg.PaymentVerifyStrict,
	}
	deps := mintflow.Deps{
		Catalog:      catalog,
		Availability: availUC,
		Uploader:     uploader,
		Transfers:    transfers,
		Signer:       signer,
		Ledger:       ledger,
		Issuer:       issuer,
		Verifier:     verifier,
		Registry:     registry,
		Metadata:     mintflow.NewMetadataBuilder(),
		Notifier:     notifier,
	}

	return func() (*mintflow.Workflow, error) {
		return mintflow.New(wfCfg, deps)
	}
}
