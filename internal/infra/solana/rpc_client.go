// internal/infra/solana/rpc_client.go
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Solana Devnet RPC endpoint (default)
const DevnetEndpoint = "https://api.devnet.solana.com"

// SPL Token Program ID (Tokenkeg...)
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

var ErrTransactionNotFound = errors.New("solana rpc: transaction not found")

// JSONRPCClient is a simple HTTP JSON-RPC client for Solana. The blocto SDK
// covers transaction assembly; this client covers the read paths we need
// with jsonParsed encoding, which the SDK does not decode for us.
type JSONRPCClient struct {
	Endpoint string
	HTTP     *http.Client
}

// NewJSONRPCClient creates a Solana JSON-RPC client.
// Endpoint resolution order:
// 1) explicit endpoint argument
// 2) SOLANA_RPC_ENDPOINT env
// 3) DevnetEndpoint (default)
func NewJSONRPCClient(endpoint string) *JSONRPCClient {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = strings.TrimSpace(os.Getenv("SOLANA_RPC_ENDPOINT"))
	}
	if ep == "" {
		ep = DevnetEndpoint
	}
	return &JSONRPCClient{
		Endpoint: ep,
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (c *JSONRPCClient) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if c == nil || c.Endpoint == "" || c.HTTP == nil {
		return nil, fmt.Errorf("solana rpc: client not configured")
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("solana rpc: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("solana rpc: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("solana rpc: http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("solana rpc: http status=%d", resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("solana rpc: decode response: %w", err)
	}
	if rr.Error != nil {
		return nil, fmt.Errorf("solana rpc: error code=%d message=%s", rr.Error.Code, rr.Error.Message)
	}
	return rr.Result, nil
}

// ------------------------------------------------------
// getTransaction (jsonParsed)
// ------------------------------------------------------

// ParsedInstruction is one jsonParsed instruction; Parsed is nil for
// programs the RPC node cannot decode.
type ParsedInstruction struct {
	Program   string `json:"program"`
	ProgramID string `json:"programId"`
	Parsed    *struct {
		Type string          `json:"type"`
		Info json.RawMessage `json:"info"`
	} `json:"parsed"`
}

// TokenBalance is one entry of pre/postTokenBalances.
type TokenBalance struct {
	AccountIndex  int    `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		Amount   string `json:"amount"` // string integer, base units
		Decimals int    `json:"decimals"`
	} `json:"uiTokenAmount"`
}

// GetTransactionResult is the decoded `result` object for getTransaction
// with jsonParsed encoding.
type GetTransactionResult struct {
	Slot      uint64 `json:"slot"`
	BlockTime *int64 `json:"blockTime"`
	Meta      *struct {
		Err               any `json:"err"`
		InnerInstructions []struct {
			Index        int                 `json:"index"`
			Instructions []ParsedInstruction `json:"instructions"`
		} `json:"innerInstructions"`
		PreTokenBalances  []TokenBalance `json:"preTokenBalances"`
		PostTokenBalances []TokenBalance `json:"postTokenBalances"`
	} `json:"meta"`
	Transaction struct {
		Signatures []string `json:"signatures"`
		Message    struct {
			AccountKeys []struct {
				Pubkey   string `json:"pubkey"`
				Signer   bool   `json:"signer"`
				Writable bool   `json:"writable"`
			} `json:"accountKeys"`
			Instructions []ParsedInstruction `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

// GetTransaction fetches a finalized transaction. Returns
// ErrTransactionNotFound when the ledger has no such signature.
func (c *JSONRPCClient) GetTransaction(ctx context.Context, signature string) (*GetTransactionResult, error) {
	sig := strings.TrimSpace(signature)
	if sig == "" {
		return nil, fmt.Errorf("solana rpc: signature is empty")
	}

	params := []any{
		sig,
		map[string]any{
			"encoding":                       "jsonParsed",
			"commitment":                     "finalized",
			"maxSupportedTransactionVersion": 0,
		},
	}

	raw, err := c.call(ctx, "getTransaction", params)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrTransactionNotFound
	}

	var out GetTransactionResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("solana rpc: unmarshal getTransaction result: %w", err)
	}
	return &out, nil
}

// ------------------------------------------------------
// getSignatureStatuses
// ------------------------------------------------------

type SignatureStatus struct {
	Slot               uint64 `json:"slot"`
	Confirmations      *int   `json:"confirmations"`
	Err                any    `json:"err"`
	ConfirmationStatus string `json:"confirmationStatus"` // processed|confirmed|finalized
}

// GetSignatureStatus returns the status of one signature (searching the
// full transaction history), or nil when the ledger does not know it yet.
func (c *JSONRPCClient) GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	sig := strings.TrimSpace(signature)
	if sig == "" {
		return nil, fmt.Errorf("solana rpc: signature is empty")
	}

	params := []any{
		[]string{sig},
		map[string]any{"searchTransactionHistory": true},
	}

	raw, err := c.call(ctx, "getSignatureStatuses", params)
	if err != nil {
		return nil, err
	}

	var out struct {
		Value []*SignatureStatus `json:"value"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("solana rpc: unmarshal getSignatureStatuses result: %w", err)
	}
	if len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}
