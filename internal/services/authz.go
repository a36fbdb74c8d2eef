package services

import "recipe-share-backend/internal/apperr"

// AuthorizeOwner allows a mutation only when the caller is the stored owner.
// An absent caller is an authentication failure, a mismatch an authorization
// failure.
func AuthorizeOwner(ownerID, callerID string) error {
	if callerID == "" {
		return apperr.ErrAuthenticationRequired
	}
	if ownerID != callerID {
		return apperr.ErrUnauthorized
	}
	return nil
}
