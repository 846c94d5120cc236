// internal/infra/solana/transfer_builder.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"

	"critterforge/internal/application/mintflow"
)

var (
	ErrTransferNotConfigured   = errors.New("transfer_builder: not configured")
	ErrTransferMintEmpty       = errors.New("transfer_builder: token mint is empty")
	ErrTransferFromEmpty       = errors.New("transfer_builder: from address is empty")
	ErrTransferToEmpty         = errors.New("transfer_builder: to address is empty")
	ErrTransferZeroAmount      = errors.New("transfer_builder: amount is zero")
	ErrTransferSourceAtaAbsent = errors.New("transfer_builder: source token account not found")
)

// TransferBuilderSolana assembles the unsigned FORGE transfer from the
// minting party to the treasury:
//   - derive ATA(from, mint) / ATA(to, mint)
//   - create the destination ATA if missing (payer = from)
//   - transferChecked for the requested amount
//
// The serialized message goes to the external signer; this component never
// holds a private key.
type TransferBuilderSolana struct {
	RPC *client.Client

	TokenDecimals uint8
	Commitment    string        // e.g. "finalized"
	Timeout       time.Duration // RPC timeout hint (best-effort)
}

// NewTransferBuilderSolana constructs the builder. RPC URL falls back to
// devnet when empty.
func NewTransferBuilderSolana(rpcURL string, tokenDecimals uint8) *TransferBuilderSolana {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = DevnetEndpoint
	}
	return &TransferBuilderSolana{
		RPC:           client.NewClient(u),
		TokenDecimals: tokenDecimals,
		Commitment:    "finalized",
		Timeout:       20 * time.Second,
	}
}

func (b *TransferBuilderSolana) BuildTransfer(ctx context.Context, from, to, tokenMint string, amount uint64) (mintflow.PaymentIntent, error) {
	if b == nil || b.RPC == nil {
		return mintflow.PaymentIntent{}, ErrTransferNotConfigured
	}

	from = strings.TrimSpace(from)
	if from == "" {
		return mintflow.PaymentIntent{}, ErrTransferFromEmpty
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return mintflow.PaymentIntent{}, ErrTransferToEmpty
	}
	mintAddr := strings.TrimSpace(tokenMint)
	if mintAddr == "" {
		return mintflow.PaymentIntent{}, ErrTransferMintEmpty
	}
	if amount == 0 {
		return mintflow.PaymentIntent{}, ErrTransferZeroAmount
	}

	mint := common.PublicKeyFromString(mintAddr)
	fromOwner := common.PublicKeyFromString(from)
	toOwner := common.PublicKeyFromString(to)

	fromATA, _, err := common.FindAssociatedTokenAddress(fromOwner, mint)
	if err != nil {
		return mintflow.PaymentIntent{}, fmt.Errorf("transfer_builder: derive from ATA failed: %w", err)
	}
	toATA, _, err := common.FindAssociatedTokenAddress(toOwner, mint)
	if err != nil {
		return mintflow.PaymentIntent{}, fmt.Errorf("transfer_builder: derive to ATA failed: %w", err)
	}

	log.Printf("[transfer_builder] build mint=%s amount=%d from=%s to=%s",
		maskShort(mintAddr), amount, maskShort(from), maskShort(to))

	// 1) existence checks
	fromExists, err := b.accountExists(ctx, fromATA.ToBase58())
	if err != nil {
		return mintflow.PaymentIntent{}, fmt.Errorf("transfer_builder: check from ATA failed: %w", err)
	}
	if !fromExists {
		return mintflow.PaymentIntent{}, ErrTransferSourceAtaAbsent
	}

	toExists, err := b.accountExists(ctx, toATA.ToBase58())
	if err != nil {
		return mintflow.PaymentIntent{}, fmt.Errorf("transfer_builder: check to ATA failed: %w", err)
	}

	// 2) build instructions
	ins := make([]types.Instruction, 0, 2)
	if !toExists {
		ins = append(ins, associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 fromOwner,
				Owner:                  toOwner,
				Mint:                   mint,
				AssociatedTokenAccount: toATA,
			},
		))
		log.Printf("[transfer_builder] will create ATA: owner=%s mint=%s ata=%s payer=%s",
			maskShort(to), maskShort(mintAddr), maskShort(toATA.ToBase58()), maskShort(from))
	}

	// transferChecked carries the mint in the parsed instruction, which the
	// payment verifier matches on.
	ins = append(ins, token.TransferChecked(token.TransferCheckedParam{
		From:     fromATA,
		To:       toATA,
		Mint:     mint,
		Auth:     fromOwner,
		Amount:   amount,
		Decimals: b.TokenDecimals,
	}))

	// 3) recent blockhash
	latest, err := b.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return mintflow.PaymentIntent{}, fmt.Errorf("transfer_builder: GetLatestBlockhash: %w", err)
	}

	// 4) unsigned message (fee payer = sender; the wallet signs)
	msg := types.NewMessage(types.NewMessageParam{
		FeePayer:        fromOwner,
		RecentBlockhash: latest.Blockhash,
		Instructions:    ins,
	})
	raw, err := msg.Serialize()
	if err != nil {
		return mintflow.PaymentIntent{}, fmt.Errorf("transfer_builder: serialize message: %w", err)
	}

	return mintflow.PaymentIntent{
		UnsignedMessage: raw,
		FromAddress:     from,
		ToAddress:       to,
		TokenMint:       mintAddr,
		Amount:          amount,
	}, nil
}

func (b *TransferBuilderSolana) accountExists(ctx context.Context, address string) (bool, error) {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return false, nil
	}

	_, err := b.RPC.GetAccountInfo(ctx, addr)
	if err == nil {
		return true, nil
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") ||
		strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "invalid param") ||
		strings.Contains(msg, "account does not exist") {
		return false, nil
	}
	return false, err
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
