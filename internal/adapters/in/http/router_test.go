// internal/adapters/in/http/router_test.go
package httpin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	httpin "critterforge/internal/adapters/in/http"
	"critterforge/internal/adapters/out/memory"
	"critterforge/internal/application/availability"
	"critterforge/internal/application/mintflow"
	"critterforge/internal/domain/mintrecord"
	"critterforge/internal/domain/rarity"
	"critterforge/internal/domain/trait"
)

// ------------------------------------------------------
// minimal workflow collaborators for end-to-end handler runs
// ------------------------------------------------------

type stubUploader struct{}

func (stubUploader) UploadImage(context.Context, []byte) (string, error) {
	return "ar://image/1", nil
}
func (stubUploader) UploadMetadata(context.Context, []byte) (string, error) {
	return "ar://metadata/1", nil
}

type stubTransfers struct{}

func (stubTransfers) BuildTransfer(_ context.Context, from, to, mint string, amount uint64) (mintflow.PaymentIntent, error) {
	return mintflow.PaymentIntent{
		UnsignedMessage: []byte("msg"), FromAddress: from, ToAddress: to,
		TokenMint: mint, Amount: amount,
	}, nil
}

type stubSigner struct{}

func (stubSigner) Sign(_ context.Context, msg []byte) ([]byte, error) { return msg, nil }

type stubLedger struct{}

func (stubLedger) SubmitAndConfirm(context.Context, []byte) (string, error) {
	return "PAYSIG1", nil
}

type stubIssuer struct{}

func (stubIssuer) IssueAsset(context.Context, string, string, string, string) (string, string, error) {
	return "ASSET1", "MINTSIG1", nil
}

type stubVerifier struct{}

func (stubVerifier) Verify(context.Context, string, string, uint64) (mintflow.PaymentVerification, error) {
	return mintflow.PaymentVerification{Valid: true}, nil
}

type rejectingVerifier struct{ reason string }

func (v rejectingVerifier) Verify(context.Context, string, string, uint64) (mintflow.PaymentVerification, error) {
	return mintflow.PaymentVerification{Valid: false, Reason: v.reason}, nil
}

// ------------------------------------------------------
// harness
// ------------------------------------------------------

type env struct {
	registry *memory.MintRecordRepositoryMem
	catalog  *trait.Catalog
	server   *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, nil)
}

func newEnvWith(t *testing.T, mutate func(*httpin.RouterDeps)) *env {
	t.Helper()

	catalog := trait.DefaultCatalog()
	registry := memory.NewMintRecordRepositoryMem()
	availUC := availability.NewUsecase(registry, rarity.DefaultPriceTable())
	gen, err := trait.NewGenerator(catalog, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	factory := func() (*mintflow.Workflow, error) {
		return mintflow.New(mintflow.Config{
			TreasuryAddress: "TREASURY1",
			TokenMint:       "FORGEMINT1",
			TokenDecimals:   6,
		}, mintflow.Deps{
			Catalog:      catalog,
			Availability: availUC,
			Uploader:     stubUploader{},
			Transfers:    stubTransfers{},
			Signer:       stubSigner{},
			Ledger:       stubLedger{},
			Issuer:       stubIssuer{},
			Verifier:     stubVerifier{},
			Registry:     registry,
		})
	}

	deps := httpin.RouterDeps{
		Catalog:        catalog,
		Generator:      gen,
		AvailabilityUC: availUC,
		Registry:       registry,
		NewFlow:        factory,
		TokenDecimals:  6,
		AllowedOrigin:  "*",
	}
	if mutate != nil {
		mutate(&deps)
	}

	srv := httptest.NewServer(httpin.NewRouter(deps))
	t.Cleanup(srv.Close)
	return &env{registry: registry, catalog: catalog, server: srv}
}

func (e *env) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (e *env) post(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func testTraits() trait.TraitSet {
	return trait.TraitSet{
		Head: "round", Eyes: "dot", Mouth: "smile", Body: "slim",
		Feet: "paws", Accessory: "none", Background: "meadow",
		Palette: trait.Palette{Primary: "moss", Accent: "bark", Tier: "common"},
	}
}

func seedRecord(t *testing.T, e *env) mintrecord.MintRecord {
	t.Helper()
	ts := testTraits()
	rec, err := mintrecord.NewMintRecord(
		trait.Hash(ts), ts,
		"owner", "minter", "asset", "mintsig",
		"ar://meta", "ar://img", false,
		"paysig", 10000, 653, rarity.TierRare,
		time.Now(),
	)
	require.NoError(t, err)
	saved, err := e.registry.Create(context.Background(), rec)
	require.NoError(t, err)
	return saved
}

// ------------------------------------------------------
// tests
// ------------------------------------------------------

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	resp, body := e.get(t, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(body))
}

func TestAvailabilityEndpoint(t *testing.T) {
	e := newEnv(t)

	// malformed hash
	resp, _ := e.get(t, "/mints/availability/zzz")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// unminted hash
	resp, body := e.get(t, "/mints/availability/"+strings.Repeat("a", 64))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res availability.Result
	require.NoError(t, json.Unmarshal(body, &res))
	require.True(t, res.Available)

	// minted hash
	rec := seedRecord(t, e)
	resp, body = e.get(t, "/mints/availability/"+rec.TraitHash)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &res))
	require.False(t, res.Available)
	require.Equal(t, rarity.TierRare, res.ExistingTier)
}

func TestPricingEndpoint(t *testing.T) {
	e := newEnv(t)

	resp, body := e.get(t, "/pricing/legendary")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Tier  string `json:"tier"`
		Price int    `json:"price"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, "legendary", out.Tier)
	require.Equal(t, 25000, out.Price)

	resp, _ = e.get(t, "/pricing/mythic")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMintEndpoint(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.get(t, "/mints/"+strings.Repeat("a", 64))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	rec := seedRecord(t, e)
	resp, body := e.get(t, "/mints/"+rec.TraitHash)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got mintrecord.MintRecord
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, rec.TraitHash, got.TraitHash)
	require.Equal(t, rec.AssetAddress, got.AssetAddress)
}

func TestTraitsRollEndpoint(t *testing.T) {
	e := newEnv(t)

	resp, body := e.post(t, "/traits/roll", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Traits    trait.TraitSet `json:"traits"`
		TraitHash string         `json:"traitHash"`
		Score     int            `json:"rarityScore"`
		Tier      string         `json:"rarityTier"`
		Price     int            `json:"price"`
		Available bool           `json:"available"`
	}
	require.NoError(t, json.Unmarshal(body, &out))

	require.NoError(t, out.Traits.Validate(e.catalog))
	require.Equal(t, trait.Hash(out.Traits), out.TraitHash)
	require.GreaterOrEqual(t, out.Score, 0)
	require.LessOrEqual(t, out.Score, 1000)
	require.Equal(t, string(rarity.TierForScore(out.Score)), out.Tier)
	require.True(t, out.Available)
	require.Positive(t, out.Price)
}

func TestPostMintSuccess(t *testing.T) {
	e := newEnv(t)

	resp, body := e.post(t, "/mints", map[string]any{
		"traits":        testTraits(),
		"ownerAddress":  "OWNER1",
		"minterAddress": "MINTER1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Outcome string                 `json:"outcome"`
		Record  *mintrecord.MintRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, "success", out.Outcome)
	require.NotNil(t, out.Record)
	require.Equal(t, trait.Hash(testTraits()), out.Record.TraitHash)

	// persisted
	_, err := e.registry.GetByTraitHash(context.Background(), out.Record.TraitHash)
	require.NoError(t, err)
}

func TestPostMintDuplicateHashConflicts(t *testing.T) {
	e := newEnv(t)
	seedRecord(t, e)

	resp, body := e.post(t, "/mints", map[string]any{
		"traits":        testTraits(),
		"ownerAddress":  "OWNER1",
		"minterAddress": "MINTER1",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var out struct {
		Outcome      string `json:"outcome"`
		ExistingTier string `json:"existingTier"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, "unavailable", out.Outcome)
	require.Equal(t, "rare", out.ExistingTier)
}

func TestPostMintRejectsInvalidInput(t *testing.T) {
	e := newEnv(t)

	// unknown variant
	bad := testTraits()
	bad.Eyes = "laser"
	resp, _ := e.post(t, "/mints", map[string]any{
		"traits": bad, "ownerAddress": "O", "minterAddress": "M",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// missing addresses
	resp, _ = e.post(t, "/mints", map[string]any{"traits": testTraits()})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// malformed body
	r, err := http.Post(e.server.URL+"/mints", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer r.Body.Close()
	require.Equal(t, http.StatusBadRequest, r.StatusCode)

	// malformed image encoding
	resp, _ = e.post(t, "/mints", map[string]any{
		"traits": testTraits(), "ownerAddress": "O", "minterAddress": "M",
		"imageBase64": "!!not-base64!!",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t)

	req, err := http.NewRequest(http.MethodOptions, e.server.URL+"/mints", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func submitPayload() map[string]any {
	ts := testTraits()
	return map[string]any{
		"traitHash":          trait.Hash(ts),
		"traits":             ts,
		"ownerAddress":       "OWNER1",
		"minterAddress":      "MINTER1",
		"assetAddress":       "ASSET1",
		"mintTxSignature":    "MINTSIG1",
		"metadataUri":        "ar://metadata/1",
		"imageUri":           "ar://image/1",
		"paymentTxSignature": "PAYSIG1",
		"paymentAmount":      5000,
		"rarityScore":        653,
		"rarityTier":         "rare",
	}
}

func TestSubmitRecordsClientSideMint(t *testing.T) {
	e := newEnv(t)

	resp, body := e.post(t, "/mints/records", submitPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		ID        string `json:"id"`
		TraitHash string `json:"traitHash"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.ID)
	require.Equal(t, trait.Hash(testTraits()), out.TraitHash)

	// the record is now served and the hash is no longer available
	resp, _ = e.get(t, "/mints/"+out.TraitHash)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, avail := e.get(t, "/mints/availability/"+out.TraitHash)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res availability.Result
	require.NoError(t, json.Unmarshal(avail, &res))
	require.False(t, res.Available)
}

func TestSubmitDuplicateHashConflicts(t *testing.T) {
	e := newEnv(t)
	seedRecord(t, e)

	resp, _ := e.post(t, "/mints/records", submitPayload())
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSubmitRejectsInvalidRecords(t *testing.T) {
	e := newEnv(t)

	// score out of range
	p := submitPayload()
	p["rarityScore"] = 1001
	resp, _ := e.post(t, "/mints/records", p)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// hash does not match the carried traits
	p = submitPayload()
	p["traitHash"] = strings.Repeat("a", 64)
	resp, _ = e.post(t, "/mints/records", p)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// unknown tier
	p = submitPayload()
	p["rarityTier"] = "mythic"
	resp, _ = e.post(t, "/mints/records", p)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// malformed body
	r, err := http.Post(e.server.URL+"/mints/records", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer r.Body.Close()
	require.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestSubmitStrictVerificationBlocksRecord(t *testing.T) {
	e := newEnvWith(t, func(d *httpin.RouterDeps) {
		d.Verifier = rejectingVerifier{reason: "amount mismatch"}
		d.StrictVerify = true
	})

	resp, body := e.post(t, "/mints/records", submitPayload())
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, string(body), "amount mismatch")

	// nothing persisted
	require.Equal(t, 0, e.registry.Len())
}

func TestSubmitAdvisoryVerificationStillRecords(t *testing.T) {
	e := newEnvWith(t, func(d *httpin.RouterDeps) {
		d.Verifier = rejectingVerifier{reason: "amount mismatch"}
	})

	resp, _ := e.post(t, "/mints/records", submitPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, 1, e.registry.Len())
}

func TestUnavailableRollReportsExisting(t *testing.T) {
	e := newEnv(t)
	rec := seedRecord(t, e)

	resp, body := e.get(t, fmt.Sprintf("/mints/availability/%s", strings.ToUpper(rec.TraitHash)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res availability.Result
	require.NoError(t, json.Unmarshal(body, &res))
	require.False(t, res.Available)
}
