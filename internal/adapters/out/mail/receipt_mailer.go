// internal/adapters/out/mail/receipt_mailer.go
package mail

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"critterforge/internal/domain/mintrecord"
)

// ReceiptMailer sends a mint receipt through SendGrid. It implements
// mintflow.ReceiptNotifier; delivery failures are reported to the caller but
// never affect the mint outcome.
type ReceiptMailer struct {
	apiKey string
	from   string
}

func NewReceiptMailer(apiKey, from string) *ReceiptMailer {
	return &ReceiptMailer{
		apiKey: strings.TrimSpace(apiKey),
		from:   strings.TrimSpace(from),
	}
}

func (m *ReceiptMailer) SendReceipt(_ context.Context, email string, rec mintrecord.MintRecord) error {
	if m.apiKey == "" {
		return fmt.Errorf("receipt_mailer: api key is empty")
	}
	if m.from == "" {
		return fmt.Errorf("receipt_mailer: from address is empty")
	}
	to := strings.TrimSpace(email)
	if to == "" {
		return fmt.Errorf("receipt_mailer: to address is empty")
	}

	subject := fmt.Sprintf("Your critter is minted (%s, score %d)", rec.RarityTier, rec.RarityScore)
	body := fmt.Sprintf(
		"Your critter has been minted.\n\n"+
			"Asset: %s\n"+
			"Trait hash: %s\n"+
			"Rarity: %s (score %d)\n"+
			"Metadata: %s\n"+
			"Mint transaction: %s\n",
		rec.AssetAddress,
		rec.TraitHash,
		rec.RarityTier,
		rec.RarityScore,
		rec.MetadataURI,
		rec.MintTxSignature,
	)

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail("CritterForge", m.from),
		subject,
		sgmail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	resp, err := sendgrid.NewSendClient(m.apiKey).Send(message)
	if err != nil {
		return fmt.Errorf("receipt_mailer: send: %w", err)
	}
	if resp.StatusCode >= 400 {
		log.Printf("[mail] receipt send failed status=%d body=%s", resp.StatusCode, resp.Body)
		return fmt.Errorf("receipt_mailer: send failed: status=%d", resp.StatusCode)
	}

	log.Printf("[mail] receipt sent status=%d to=%s", resp.StatusCode, to)
	return nil
}
