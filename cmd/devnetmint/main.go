// cmd/devnetmint/main.go
package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log"
	"math/rand"
	"time"

	"critterforge/internal/application/mintflow"
	"critterforge/internal/domain/trait"
	"critterforge/internal/infra/config"
	"critterforge/internal/platform/di"
)

// devnetmint drives one full mint workflow end to end against devnet, using
// the same container wiring as the API server. Intended for manual smoke
// runs after RPC or token configuration changes.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := config.Load()
	container, err := di.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("[devnetmint] container init failed: %v", err)
	}
	defer container.Close()

	if container.Flow == nil {
		log.Fatalf("[devnetmint] mint workflow is disabled (check FORGE_TOKEN_MINT / TREASURY_* / uploader env)")
	}

	flow, err := container.Flow()
	if err != nil {
		log.Fatalf("[devnetmint] workflow build failed: %v", err)
	}
	flow.Subscribe(func(t mintflow.Transition) {
		if t.Err != nil {
			log.Printf("[devnetmint] %s -> %s err=%v", t.From, t.To, t.Err)
			return
		}
		log.Printf("[devnetmint] %s -> %s", t.From, t.To)
	})

	gen, err := trait.NewGenerator(trait.DefaultCatalog(), rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		log.Fatalf("[devnetmint] trait roll setup failed: %v", err)
	}

	traits, err := gen.Generate()
	if err != nil {
		log.Fatalf("[devnetmint] trait roll failed: %v", err)
	}

	res, err := flow.Run(ctx, mintflow.MintInput{
		Traits:        traits,
		OwnerAddress:  cfg.TreasuryAddress,
		MinterAddress: cfg.TreasuryAddress,
		Image:         smokeImage(trait.Hash(traits)),
	})
	if err != nil {
		log.Printf("[devnetmint] run error: %v", err)
	}

	log.Printf("[devnetmint] outcome=%s hash=%s score=%d tier=%s",
		res.Outcome, res.Artifacts.TraitHash, res.Artifacts.RarityScore, res.Artifacts.RarityTier)
	if res.Outcome == mintflow.OutcomeSuccess {
		log.Printf("[devnetmint] asset=%s mintTx=%s paymentTx=%s metadata=%s",
			res.Record.AssetAddress, res.Record.MintTxSignature,
			res.Record.PaymentTxSignature, res.Record.MetadataURI)
	}
}

// smokeImage renders a 64x64 PNG tinted from the trait hash, so the upload
// stages run against real image bytes. The real renderer lives client-side.
func smokeImage(hash string) []byte {
	tint := color.RGBA{R: hash[0], G: hash[1], B: hash[2], A: 0xff}
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, tint)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Fatalf("[devnetmint] smoke image encode failed: %v", err)
	}
	return buf.Bytes()
}
