// internal/infra/solana/ledger_client.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/types"
)

var (
	ErrLedgerNotConfigured  = errors.New("ledger_client: not configured")
	ErrLedgerTxFailed       = errors.New("ledger_client: transaction failed on chain")
	ErrConfirmationTimedOut = errors.New("ledger_client: confirmation timed out")
)

// LedgerClientSolana submits signed transactions and polls until the ledger
// finalizes them. Implements mintflow.LedgerSubmitter. Confirmation failure
// is terminal for the caller; no retry happens here.
type LedgerClientSolana struct {
	RPC    *client.Client
	Status *JSONRPCClient

	PollInterval   time.Duration
	ConfirmTimeout time.Duration
}

func NewLedgerClientSolana(rpcURL string) *LedgerClientSolana {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = DevnetEndpoint
	}
	return &LedgerClientSolana{
		RPC:            client.NewClient(u),
		Status:         NewJSONRPCClient(u),
		PollInterval:   2 * time.Second,
		ConfirmTimeout: 90 * time.Second,
	}
}

func (l *LedgerClientSolana) SubmitAndConfirm(ctx context.Context, signedTx []byte) (string, error) {
	if l == nil || l.RPC == nil || l.Status == nil {
		return "", ErrLedgerNotConfigured
	}

	tx, err := types.TransactionDeserialize(signedTx)
	if err != nil {
		return "", fmt.Errorf("ledger_client: deserialize transaction: %w", err)
	}

	sig, err := l.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("ledger_client: SendTransaction: %w", err)
	}
	log.Printf("[ledger_client] submitted tx=%s", maskShort(sig))

	if err := l.awaitFinalized(ctx, sig); err != nil {
		return "", err
	}
	log.Printf("[ledger_client] finalized tx=%s", maskShort(sig))
	return sig, nil
}

func (l *LedgerClientSolana) awaitFinalized(ctx context.Context, sig string) error {
	deadline := time.Now().Add(l.ConfirmTimeout)
	ticker := time.NewTicker(l.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("ledger_client: await confirmation: %w", ctx.Err())
		case <-ticker.C:
		}

		st, err := l.Status.GetSignatureStatus(ctx, sig)
		if err != nil {
			// transient RPC trouble; keep polling until the deadline
			log.Printf("[ledger_client] WARN status poll failed tx=%s err=%v", maskShort(sig), err)
		} else if st != nil {
			if st.Err != nil {
				return fmt.Errorf("%w: %v", ErrLedgerTxFailed, st.Err)
			}
			if st.ConfirmationStatus == "finalized" {
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: tx=%s after %s", ErrConfirmationTimedOut, maskShort(sig), l.ConfirmTimeout)
		}
	}
}
