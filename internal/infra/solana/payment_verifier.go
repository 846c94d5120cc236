// internal/infra/solana/payment_verifier.go
package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/blocto/solana-go-sdk/common"

	"critterforge/internal/application/mintflow"
)

// ------------------------------------------------------
// Payment Verifier
// ------------------------------------------------------
//
// Inspects a finalized transaction and confirms that it carries a FORGE
// token transfer from the expected sender to the treasury for the expected
// amount (0.1% tolerance). Transfer instructions are located in both the
// top-level and nested (inner) instruction lists.
//
// Fetch/shape failures are errors; field mismatches come back as
// Valid=false with a reason naming the failing field.

var (
	ErrVerifierNotConfigured = errors.New("payment_verifier: not configured")
	ErrPaymentNotFound       = errors.New("payment_verifier: transaction not found")
	ErrOnChainFailure        = errors.New("payment_verifier: transaction failed on chain")
	ErrNoTransferFound       = errors.New("payment_verifier: no matching token transfer instruction")
)

// Amount tolerance: |actual - expected| <= 0.1% of expected.
const toleranceDenominator = 1000

type PaymentVerifierSolana struct {
	RPC             *JSONRPCClient
	TokenMint       string
	TreasuryAddress string
}

func NewPaymentVerifierSolana(rpc *JSONRPCClient, tokenMint, treasuryAddress string) *PaymentVerifierSolana {
	return &PaymentVerifierSolana{
		RPC:             rpc,
		TokenMint:       strings.TrimSpace(tokenMint),
		TreasuryAddress: strings.TrimSpace(treasuryAddress),
	}
}

// transferInfo is the jsonParsed info payload of spl-token transfer /
// transferChecked instructions. Mint and TokenAmount are present only for
// transferChecked.
type transferInfo struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Authority   string `json:"authority"`
	Mint        string `json:"mint"`
	Amount      string `json:"amount"`
	TokenAmount struct {
		Amount   string `json:"amount"`
		Decimals int    `json:"decimals"`
	} `json:"tokenAmount"`
}

func (v *PaymentVerifierSolana) Verify(ctx context.Context, signature, expectedSender string, expectedAmount uint64) (mintflow.PaymentVerification, error) {
	if v == nil || v.RPC == nil || v.TokenMint == "" || v.TreasuryAddress == "" {
		return mintflow.PaymentVerification{}, ErrVerifierNotConfigured
	}

	tx, err := v.RPC.GetTransaction(ctx, signature)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return mintflow.PaymentVerification{}, fmt.Errorf("%w: %s", ErrPaymentNotFound, maskShort(signature))
		}
		return mintflow.PaymentVerification{}, fmt.Errorf("payment_verifier: fetch transaction: %w", err)
	}
	if tx.Meta != nil && tx.Meta.Err != nil {
		return mintflow.PaymentVerification{}, fmt.Errorf("%w: %v", ErrOnChainFailure, tx.Meta.Err)
	}

	// Map token-account pubkey -> (mint, owner) from the post balances, so
	// plain `transfer` instructions (no mint in info) can be resolved too.
	ownerByAccount := map[string]TokenBalance{}
	if tx.Meta != nil {
		for _, tb := range tx.Meta.PostTokenBalances {
			if tb.AccountIndex >= 0 && tb.AccountIndex < len(tx.Transaction.Message.AccountKeys) {
				ownerByAccount[tx.Transaction.Message.AccountKeys[tb.AccountIndex].Pubkey] = tb
			}
		}
	}

	all := make([]ParsedInstruction, 0, len(tx.Transaction.Message.Instructions))
	all = append(all, tx.Transaction.Message.Instructions...)
	if tx.Meta != nil {
		for _, inner := range tx.Meta.InnerInstructions {
			all = append(all, inner.Instructions...)
		}
	}

	for _, ix := range all {
		info, ok := v.decodeTokenTransfer(ix, ownerByAccount)
		if !ok {
			continue
		}
		return v.check(info, ownerByAccount, expectedSender, expectedAmount)
	}

	return mintflow.PaymentVerification{}, fmt.Errorf("%w: mint=%s", ErrNoTransferFound, maskShort(v.TokenMint))
}

// decodeTokenTransfer returns the transfer info when ix is a FORGE token
// transfer. Plain transfers resolve their mint through the destination's
// token balance entry.
func (v *PaymentVerifierSolana) decodeTokenTransfer(ix ParsedInstruction, ownerByAccount map[string]TokenBalance) (transferInfo, bool) {
	if ix.Program != "spl-token" || ix.Parsed == nil {
		return transferInfo{}, false
	}
	if ix.Parsed.Type != "transfer" && ix.Parsed.Type != "transferChecked" {
		return transferInfo{}, false
	}

	var info transferInfo
	if err := json.Unmarshal(ix.Parsed.Info, &info); err != nil {
		log.Printf("[payment_verifier] WARN undecodable transfer info: %v", err)
		return transferInfo{}, false
	}

	mint := info.Mint
	if mint == "" {
		if tb, ok := ownerByAccount[info.Destination]; ok {
			mint = tb.Mint
		}
	}
	if mint != v.TokenMint {
		return transferInfo{}, false
	}
	info.Mint = mint
	return info, true
}

func (v *PaymentVerifierSolana) check(info transferInfo, ownerByAccount map[string]TokenBalance, expectedSender string, expectedAmount uint64) (mintflow.PaymentVerification, error) {
	if info.Authority != strings.TrimSpace(expectedSender) {
		return mintflow.PaymentVerification{
			Reason: fmt.Sprintf("sender mismatch: got %s, want %s", maskShort(info.Authority), maskShort(expectedSender)),
		}, nil
	}

	if !v.destinationIsTreasury(info.Destination, ownerByAccount) {
		return mintflow.PaymentVerification{
			Reason: fmt.Sprintf("recipient mismatch: destination %s is not the treasury token account", maskShort(info.Destination)),
		}, nil
	}

	amountStr := info.Amount
	if amountStr == "" {
		amountStr = info.TokenAmount.Amount
	}
	actual, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		return mintflow.PaymentVerification{}, fmt.Errorf("payment_verifier: parse amount %q: %w", amountStr, err)
	}

	diff := actual - expectedAmount
	if actual < expectedAmount {
		diff = expectedAmount - actual
	}
	if diff*toleranceDenominator > expectedAmount {
		return mintflow.PaymentVerification{
			ActualAmount: actual,
			Reason:       fmt.Sprintf("amount mismatch: got %d, want %d (tolerance 0.1%%)", actual, expectedAmount),
		}, nil
	}

	return mintflow.PaymentVerification{Valid: true, ActualAmount: actual}, nil
}

// destinationIsTreasury accepts either the owner recorded in the token
// balances, or the treasury's derived associated token account when the
// balance entry is missing.
func (v *PaymentVerifierSolana) destinationIsTreasury(destination string, ownerByAccount map[string]TokenBalance) bool {
	if tb, ok := ownerByAccount[destination]; ok && tb.Owner != "" {
		return tb.Owner == v.TreasuryAddress
	}
	treasury := common.PublicKeyFromString(v.TreasuryAddress)
	mint := common.PublicKeyFromString(v.TokenMint)
	ata, _, err := common.FindAssociatedTokenAddress(treasury, mint)
	if err != nil {
		return false
	}
	return destination == ata.ToBase58()
}
