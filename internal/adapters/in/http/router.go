// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"critterforge/internal/adapters/in/http/handlers"
	"critterforge/internal/adapters/in/http/middleware"
	"critterforge/internal/application/availability"
	"critterforge/internal/application/mintflow"
	"critterforge/internal/domain/mintrecord"
	"critterforge/internal/domain/trait"
)

// RouterDeps collects everything injected from main. Nil entries keep their
// routes unmounted so a partially-wired deploy still boots and serves
// /healthz.
type RouterDeps struct {
	Catalog        *trait.Catalog
	Generator      *trait.Generator
	AvailabilityUC *availability.Usecase
	Registry       mintrecord.Repository
	NewFlow        handlers.WorkflowFactory

	// Submission re-validation policy (POST /mints/records).
	Verifier      mintflow.PaymentVerifier
	StrictVerify  bool
	TokenDecimals int

	AllowedOrigin string
	FirebaseAuth  *middleware.FirebaseAuthClient
}

// NewRouter mounts the mint API.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover)
	r.Use(middleware.CORS(deps.AllowedOrigin))

	// Health check (always on)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if deps.AvailabilityUC != nil {
		ah := handlers.NewAvailabilityHandler(deps.AvailabilityUC)
		r.Get("/mints/availability/{hash}", ah.Check)
		r.Get("/pricing/{tier}", ah.Price)
	}

	if deps.Generator != nil && deps.AvailabilityUC != nil {
		th := handlers.NewTraitHandler(deps.Generator, deps.Catalog, deps.AvailabilityUC)
		r.Post("/traits/roll", th.Roll)
	}

	if deps.Registry != nil {
		auth := &middleware.AuthMiddleware{FirebaseAuth: deps.FirebaseAuth}

		mh := handlers.NewMintHandler(deps.Catalog, deps.Registry, deps.NewFlow)
		r.Get("/mints/{hash}", mh.Get)

		if deps.NewFlow != nil {
			r.With(auth.Handler).Post("/mints", mh.Create)
		}

		// Client-side flows execute payment and issuance before the backend
		// sees the attempt; they submit the finished artifacts here.
		sh := handlers.NewSubmissionHandler(deps.Registry, deps.Verifier, deps.StrictVerify, deps.TokenDecimals)
		r.With(auth.Handler).Post("/mints/records", sh.Submit)
	}

	return r
}
