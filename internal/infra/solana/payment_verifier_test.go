// internal/infra/solana/payment_verifier_test.go
package solana_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"critterforge/internal/infra/solana"
)

const (
	mintAddr     = "ForgeMint111111111111111111111111111111111"
	treasuryAddr = "Treasury1111111111111111111111111111111111"
	senderAddr   = "Sender111111111111111111111111111111111111"
	sourceATA    = "SourceAta11111111111111111111111111111111"
	destATA      = "DestAta111111111111111111111111111111111111"
)

// rpcServer returns a test server answering every getTransaction call with
// the given RPC `result` payload.
func rpcServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, result)
	}))
}

func verifierFor(srv *httptest.Server) *solana.PaymentVerifierSolana {
	return solana.NewPaymentVerifierSolana(solana.NewJSONRPCClient(srv.URL), mintAddr, treasuryAddr)
}

// transferCheckedTx renders a finalized transaction whose single top-level
// instruction is an spl-token transferChecked for `amount` base units.
func transferCheckedTx(authority, destOwner, amount string) string {
	return fmt.Sprintf(`{
	  "slot": 1234,
	  "meta": {
	    "err": null,
	    "innerInstructions": [],
	    "preTokenBalances": [],
	    "postTokenBalances": [
	      {"accountIndex": 2, "mint": %q, "owner": %q, "uiTokenAmount": {"amount": %q, "decimals": 6}}
	    ]
	  },
	  "transaction": {
	    "signatures": ["sig1"],
	    "message": {
	      "accountKeys": [
	        {"pubkey": %q, "signer": true, "writable": true},
	        {"pubkey": %q, "signer": false, "writable": true},
	        {"pubkey": %q, "signer": false, "writable": true}
	      ],
	      "instructions": [
	        {"program": "spl-token", "programId": "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
	         "parsed": {"type": "transferChecked", "info": {
	           "source": %q, "destination": %q, "authority": %q, "mint": %q,
	           "tokenAmount": {"amount": %q, "decimals": 6}
	         }}}
	      ]
	    }
	  }
	}`, mintAddr, destOwner, amount,
		authority, sourceATA, destATA,
		sourceATA, destATA, authority, mintAddr, amount)
}

func TestVerifyValidTransferChecked(t *testing.T) {
	srv := rpcServer(t, transferCheckedTx(senderAddr, treasuryAddr, "10000"))
	defer srv.Close()

	v, err := verifierFor(srv).Verify(context.Background(), "sig1", senderAddr, 10000)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, uint64(10000), v.ActualAmount)
}

func TestVerifyAmountWithinTolerance(t *testing.T) {
	// |10009 - 10000| * 1000 = 9000 <= 10000: inside the 0.1% band
	srv := rpcServer(t, transferCheckedTx(senderAddr, treasuryAddr, "10009"))
	defer srv.Close()

	v, err := verifierFor(srv).Verify(context.Background(), "sig1", senderAddr, 10000)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, uint64(10009), v.ActualAmount)
}

func TestVerifyAmountOutsideTolerance(t *testing.T) {
	// |10050 - 10000| * 1000 = 50000 > 10000: rejected
	srv := rpcServer(t, transferCheckedTx(senderAddr, treasuryAddr, "10050"))
	defer srv.Close()

	v, err := verifierFor(srv).Verify(context.Background(), "sig1", senderAddr, 10000)
	require.NoError(t, err)
	require.False(t, v.Valid)
	require.Contains(t, v.Reason, "amount mismatch")
}

func TestVerifySenderMismatch(t *testing.T) {
	srv := rpcServer(t, transferCheckedTx("Mallory11111111111111111111111111111111111", treasuryAddr, "10000"))
	defer srv.Close()

	v, err := verifierFor(srv).Verify(context.Background(), "sig1", senderAddr, 10000)
	require.NoError(t, err)
	require.False(t, v.Valid)
	require.Contains(t, v.Reason, "sender mismatch")
}

func TestVerifyRecipientMismatch(t *testing.T) {
	srv := rpcServer(t, transferCheckedTx(senderAddr, "SomeoneElse1111111111111111111111111111111", "10000"))
	defer srv.Close()

	v, err := verifierFor(srv).Verify(context.Background(), "sig1", senderAddr, 10000)
	require.NoError(t, err)
	require.False(t, v.Valid)
	require.Contains(t, v.Reason, "recipient mismatch")
}

// A plain `transfer` has no mint in its info; the verifier resolves it from
// the destination's post token balance entry.
func TestVerifyPlainTransferResolvesMintFromBalances(t *testing.T) {
	result := fmt.Sprintf(`{
	  "slot": 1234,
	  "meta": {
	    "err": null,
	    "innerInstructions": [],
	    "postTokenBalances": [
	      {"accountIndex": 2, "mint": %q, "owner": %q, "uiTokenAmount": {"amount": "10000", "decimals": 6}}
	    ]
	  },
	  "transaction": {
	    "signatures": ["sig1"],
	    "message": {
	      "accountKeys": [
	        {"pubkey": %q}, {"pubkey": %q}, {"pubkey": %q}
	      ],
	      "instructions": [
	        {"program": "spl-token", "programId": "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
	         "parsed": {"type": "transfer", "info": {
	           "source": %q, "destination": %q, "authority": %q, "amount": "10000"
	         }}}
	      ]
	    }
	  }
	}`, mintAddr, treasuryAddr, senderAddr, sourceATA, destATA, sourceATA, destATA, senderAddr)

	srv := rpcServer(t, result)
	defer srv.Close()

	v, err := verifierFor(srv).Verify(context.Background(), "sig1", senderAddr, 10000)
	require.NoError(t, err)
	require.True(t, v.Valid)
}

// Transfers buried in inner instructions (e.g. behind a wallet program) are
// found too.
func TestVerifyFindsInnerInstructionTransfer(t *testing.T) {
	result := fmt.Sprintf(`{
	  "slot": 1234,
	  "meta": {
	    "err": null,
	    "innerInstructions": [
	      {"index": 0, "instructions": [
	        {"program": "spl-token", "programId": "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
	         "parsed": {"type": "transferChecked", "info": {
	           "source": %q, "destination": %q, "authority": %q, "mint": %q,
	           "tokenAmount": {"amount": "10000", "decimals": 6}
	         }}}
	      ]}
	    ],
	    "postTokenBalances": [
	      {"accountIndex": 2, "mint": %q, "owner": %q, "uiTokenAmount": {"amount": "10000", "decimals": 6}}
	    ]
	  },
	  "transaction": {
	    "signatures": ["sig1"],
	    "message": {
	      "accountKeys": [{"pubkey": %q}, {"pubkey": %q}, {"pubkey": %q}],
	      "instructions": [
	        {"program": "some-wallet", "programId": "Wallet1111111111111111111111111111111111111", "parsed": null}
	      ]
	    }
	  }
	}`, sourceATA, destATA, senderAddr, mintAddr,
		mintAddr, treasuryAddr,
		senderAddr, sourceATA, destATA)

	srv := rpcServer(t, result)
	defer srv.Close()

	v, err := verifierFor(srv).Verify(context.Background(), "sig1", senderAddr, 10000)
	require.NoError(t, err)
	require.True(t, v.Valid)
}

func TestVerifyTransactionNotFound(t *testing.T) {
	srv := rpcServer(t, "null")
	defer srv.Close()

	_, err := verifierFor(srv).Verify(context.Background(), "sig1", senderAddr, 10000)
	require.ErrorIs(t, err, solana.ErrPaymentNotFound)
}

func TestVerifyOnChainFailure(t *testing.T) {
	failed := rpcServer(t, `{
	  "slot": 1,
	  "meta": {"err": {"InstructionError": [0, "Custom"]}, "innerInstructions": [], "postTokenBalances": []},
	  "transaction": {"signatures": ["sig1"], "message": {"accountKeys": [], "instructions": []}}
	}`)
	defer failed.Close()

	_, err := verifierFor(failed).Verify(context.Background(), "sig1", senderAddr, 10000)
	require.ErrorIs(t, err, solana.ErrOnChainFailure)
}

func TestVerifyNoMatchingTransfer(t *testing.T) {
	result := `{
	  "slot": 1,
	  "meta": {"err": null, "innerInstructions": [], "postTokenBalances": []},
	  "transaction": {"signatures": ["sig1"], "message": {"accountKeys": [], "instructions": [
	    {"program": "system", "programId": "11111111111111111111111111111111",
	     "parsed": {"type": "transfer", "info": {"source": "a", "destination": "b", "lamports": 1}}}
	  ]}}
	}`
	srv := rpcServer(t, result)
	defer srv.Close()

	_, err := verifierFor(srv).Verify(context.Background(), "sig1", senderAddr, 10000)
	require.ErrorIs(t, err, solana.ErrNoTransferFound)
}

func TestVerifyUnconfiguredVerifier(t *testing.T) {
	v := solana.NewPaymentVerifierSolana(nil, "", "")
	_, err := v.Verify(context.Background(), "sig1", senderAddr, 10000)
	require.ErrorIs(t, err, solana.ErrVerifierNotConfigured)
}
