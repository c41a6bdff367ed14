package services

import "errors"

// Sentinel errors shared across services. Handlers translate these into the
// API error taxonomy; anything else surfaces as a generic internal error.
var (
	ErrTemplateNotFound  = errors.New("template service: template not found")
	ErrInviteNotFound    = errors.New("invite service: generated invite not found")
	ErrUserNotFound      = errors.New("user service: user not found")
	ErrEmailExists       = errors.New("user service: email already registered")
	ErrInvalidLogin      = errors.New("user service: invalid credentials")
	ErrInvalidTemplateID = errors.New("invite service: template id is malformed")
)
