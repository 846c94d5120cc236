// internal/application/mintflow/stage.go
package mintflow

// Stage is one step of the mint workflow. Stages are strictly sequential
// within one workflow instance; there are no parallel branches.
type Stage string

const (
	StageIdle                 Stage = "idle"
	StageCheckingAvailability Stage = "checking_availability"
	StageUnavailable          Stage = "unavailable"
	StageUploadingImage       Stage = "uploading_image"
	StageUploadingMetadata    Stage = "uploading_metadata"
	StageAwaitingPayment      Stage = "awaiting_payment"
	StageConfirmingPayment    Stage = "confirming_payment"
	StageMintingAsset         Stage = "minting_asset"
	StageRecording            Stage = "recording"
	StageSuccess              Stage = "success"
	StageError                Stage = "error"
)

// Terminal reports whether the stage ends the workflow. Error and
// Unavailable can be reset back to Idle explicitly.
func (s Stage) Terminal() bool {
	switch s {
	case StageUnavailable, StageSuccess, StageError:
		return true
	default:
		return false
	}
}

// Outcome is the user-visible result of a finished workflow. Exactly one of
// these is reported.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeError       Outcome = "error"
)

// Transition is published to subscribers on every stage change.
type Transition struct {
	From Stage
	To   Stage
	Err  error // non-nil only when To == StageError
}
