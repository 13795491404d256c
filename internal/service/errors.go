package service

import "errors"

var (
	ErrAccessDenied        = errors.New("access denied")
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrNegotiationNotFound = errors.New("negotiation not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid refresh token")
	ErrAlreadyMember       = errors.New("user is already a campaign member")
)
