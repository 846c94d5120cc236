// internal/infra/solana/asset_issuer.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
)

var ErrIssuerNotConfigured = errors.New("asset_issuer: not configured")

// AssetIssuerSolana issues the collectible as a 1-of-1 NFT: new mint
// account with decimals 0, Metaplex metadata pointing at the uploaded
// metadata URI, one token minted to the owner's ATA, and a MasterEdition
// with MaxSupply 1. The mint authority is also the fee payer.
type AssetIssuerSolana struct {
	RPC       *client.Client
	Authority types.Account

	SellerFeeBasisPoints uint16
}

func NewAssetIssuerSolana(rpcURL string, authority types.Account) *AssetIssuerSolana {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = DevnetEndpoint
	}
	return &AssetIssuerSolana{
		RPC:       client.NewClient(u),
		Authority: authority,
	}
}

func (i *AssetIssuerSolana) IssueAsset(ctx context.Context, ownerAddress, name, symbol, metadataURI string) (string, string, error) {
	if i == nil || i.RPC == nil || len(i.Authority.PrivateKey) == 0 {
		return "", "", ErrIssuerNotConfigured
	}

	ownerAddress = strings.TrimSpace(ownerAddress)
	if ownerAddress == "" {
		return "", "", fmt.Errorf("asset_issuer: owner address is empty")
	}

	feePayer := i.Authority
	owner := common.PublicKeyFromString(ownerAddress)
	mint := types.NewAccount() // fresh mint account per collectible

	ata, _, err := common.FindAssociatedTokenAddress(owner, mint.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("asset_issuer: FindAssociatedTokenAddress: %w", err)
	}

	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("asset_issuer: GetTokenMetaPubkey: %w", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("asset_issuer: GetMasterEdition: %w", err)
	}

	mintRent, err := i.RPC.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return "", "", fmt.Errorf("asset_issuer: GetMinimumBalanceForRentExemption: %w", err)
	}

	recent, err := i.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", "", fmt.Errorf("asset_issuer: GetLatestBlockhash: %w", err)
	}

	// 1 combination = 1 token, fixed at the protocol level
	maxSupply := uint64(1)

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{mint, feePayer},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        feePayer.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				system.CreateAccount(system.CreateAccountParam{
					From:     feePayer.PublicKey,
					New:      mint.PublicKey,
					Owner:    common.TokenProgramID,
					Lamports: mintRent,
					Space:    token.MintAccountSize,
				}),
				token.InitializeMint(token.InitializeMintParam{
					Decimals:   0,
					Mint:       mint.PublicKey,
					MintAuth:   feePayer.PublicKey,
					FreezeAuth: &feePayer.PublicKey,
				}),
				token_metadata.CreateMetadataAccountV3(
					token_metadata.CreateMetadataAccountV3Param{
						Metadata:                metadataPubkey,
						Mint:                    mint.PublicKey,
						MintAuthority:           feePayer.PublicKey,
						UpdateAuthority:         feePayer.PublicKey,
						Payer:                   feePayer.PublicKey,
						UpdateAuthorityIsSigner: true,
						IsMutable:               true,
						Data: token_metadata.DataV2{
							Name:                 name,
							Symbol:               symbol,
							Uri:                  metadataURI,
							SellerFeeBasisPoints: i.SellerFeeBasisPoints,
							Creators: &[]token_metadata.Creator{
								{
									Address:  feePayer.PublicKey,
									Verified: true,
									Share:    100,
								},
							},
						},
						CollectionDetails: nil,
					},
				),
				associated_token_account.CreateAssociatedTokenAccount(
					associated_token_account.CreateAssociatedTokenAccountParam{
						Funder:                 feePayer.PublicKey,
						Owner:                  owner,
						Mint:                   mint.PublicKey,
						AssociatedTokenAccount: ata,
					},
				),
				token.MintTo(token.MintToParam{
					Mint:   mint.PublicKey,
					To:     ata,
					Auth:   feePayer.PublicKey,
					Amount: 1,
				}),
				token_metadata.CreateMasterEditionV3(
					token_metadata.CreateMasterEditionParam{
						Edition:         masterEditionPubkey,
						Mint:            mint.PublicKey,
						UpdateAuthority: feePayer.PublicKey,
						MintAuthority:   feePayer.PublicKey,
						Metadata:        metadataPubkey,
						Payer:           feePayer.PublicKey,
						MaxSupply:       &maxSupply,
					},
				),
			},
		}),
	})
	if err != nil {
		return "", "", fmt.Errorf("asset_issuer: NewTransaction: %w", err)
	}

	sig, err := i.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", "", fmt.Errorf("asset_issuer: SendTransaction: %w", err)
	}

	return mint.PublicKey.ToBase58(), sig, nil
}
