package campaign

import "errors"

var (
	ErrAssetNotFound       = errors.New("asset not found")
	ErrDuplicateAsset      = errors.New("asset already exists for campaign, type and day")
	ErrFinalDraftImmutable = errors.New("final draft already set")
	ErrInvalidTransition   = errors.New("invalid campaign status transition")
	ErrNoDraft             = errors.New("no campaign draft available")
	ErrInvalidStrategy     = errors.New("invalid strategy draft")
	ErrUnknownAssetKind    = errors.New("unknown asset kind")
)
