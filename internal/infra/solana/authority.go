// internal/infra/solana/authority.go
package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	smpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
)

var (
	ErrAuthoritySecretEmpty   = errors.New("authority: secret payload is empty")
	ErrAuthorityInvalidKey    = errors.New("authority: invalid private key bytes")
	ErrAuthorityNotConfigured = errors.New("authority: not configured")
)

// LoadMintAuthority reads the mint-authority keypair from GCP Secret
// Manager. The secret payload is a JSON int array ([1,2,...], 64 bytes),
// the format solana-keygen writes.
func LoadMintAuthority(ctx context.Context, projectID, secretID string) (types.Account, error) {
	pid := strings.TrimSpace(projectID)
	sid := strings.TrimSpace(secretID)
	if pid == "" || sid == "" {
		return types.Account{}, ErrAuthorityNotConfigured
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return types.Account{}, fmt.Errorf("authority: secretmanager.NewClient: %w", err)
	}
	defer client.Close()

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", pid, sid)
	res, err := client.AccessSecretVersion(ctx, &smpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return types.Account{}, fmt.Errorf("authority: access secret version %s: %w", name, err)
	}
	if res == nil || res.Payload == nil || len(res.Payload.Data) == 0 {
		return types.Account{}, ErrAuthoritySecretEmpty
	}

	return AccountFromJSONKey(res.Payload.Data)
}

// AccountFromJSONKey restores a keypair from a JSON int array.
func AccountFromJSONKey(data []byte) (types.Account, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return types.Account{}, fmt.Errorf("authority: unmarshal secret json: %w", err)
	}
	if len(ints) != 64 {
		return types.Account{}, fmt.Errorf("%w: want 64 bytes, got %d", ErrAuthorityInvalidKey, len(ints))
	}

	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return types.Account{}, fmt.Errorf("%w: byte out of range at %d: %d", ErrAuthorityInvalidKey, i, v)
		}
		b[i] = byte(v)
	}

	acc, err := types.AccountFromBytes(b)
	if err != nil {
		return types.Account{}, fmt.Errorf("authority: AccountFromBytes: %w", err)
	}
	return acc, nil
}
