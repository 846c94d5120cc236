// internal/infra/solana/wallet_signer.go
package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/types"
)

var ErrSignerNoAccount = errors.New("wallet_signer: no signing account")

// LocalWalletSigner signs unsigned transfer messages with an in-process
// keypair. This is the devnet/server-held stand-in for the external wallet
// collaborator; in production the browser wallet fills this port and the
// private key never reaches the backend.
type LocalWalletSigner struct {
	Account types.Account
}

func NewLocalWalletSigner(acc types.Account) *LocalWalletSigner {
	return &LocalWalletSigner{Account: acc}
}

func (s *LocalWalletSigner) Sign(ctx context.Context, unsignedMessage []byte) ([]byte, error) {
	if s == nil || len(s.Account.PrivateKey) == 0 {
		return nil, ErrSignerNoAccount
	}

	msg, err := types.MessageDeserialize(unsignedMessage)
	if err != nil {
		return nil, fmt.Errorf("wallet_signer: deserialize message: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: msg,
		Signers: []types.Account{s.Account},
	})
	if err != nil {
		return nil, fmt.Errorf("wallet_signer: sign: %w", err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		return nil, fmt.Errorf("wallet_signer: serialize transaction: %w", err)
	}
	return raw, nil
}
