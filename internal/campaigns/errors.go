package campaigns

import pkgerrors "github.com/crowdvault/crowdvault-backend/pkg/errors"

// Record and lifecycle failures shared by the campaign service and the
// funding engine.
var (
	ErrCampaignNotFound         = pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	ErrInactiveCampaign         = pkgerrors.New(pkgerrors.CodeStateConflict, "campaign is inactive")
	ErrNotCampaignCreator       = pkgerrors.New(pkgerrors.CodeForbidden, "caller is not the campaign creator")
	ErrWithdrawalExceedsBalance = pkgerrors.New(pkgerrors.CodeInsufficient, "withdrawal exceeds campaign balance")

	ErrTitleTooLong       = pkgerrors.New(pkgerrors.CodeValidation, "title exceeds 64 characters")
	ErrDescriptionTooLong = pkgerrors.New(pkgerrors.CodeValidation, "description exceeds 512 characters")
	ErrImageURLTooLong    = pkgerrors.New(pkgerrors.CodeValidation, "image url exceeds 256 characters")
	ErrGoalTooSmall       = pkgerrors.New(pkgerrors.CodeValidation, "goal is below the minimum of one token")
)
