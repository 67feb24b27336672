package services

import "errors"

// Sentinel errors for the contact request lifecycle and supporting services.
// Handlers map these to HTTP statuses with errors.Is.
var (
	// ErrNotFound: referenced product, request or user does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden: caller is not the expected party for the action.
	ErrForbidden = errors.New("caller is not permitted to perform this action")

	// ErrSelfRequest: a farmer tried to open a contact request on their own product.
	ErrSelfRequest = errors.New("cannot create a contact request for your own product")

	// ErrInvalidQuantity: requested quantity is non-positive, below the
	// product's minimum order quantity or above its available quantity.
	ErrInvalidQuantity = errors.New("requested quantity is out of range")

	// ErrAlreadyProcessed: the request is not in the state the action expects.
	ErrAlreadyProcessed = errors.New("request has already been processed")

	// ErrAlreadyConfirmed: the caller has already recorded their confirmation.
	ErrAlreadyConfirmed = errors.New("confirmation already recorded")

	// ErrDuplicatePending: a pending request already exists for the same
	// (requester, farmer, product) triple. The existing request is returned
	// alongside this error.
	ErrDuplicatePending = errors.New("a pending request already exists for this product")

	// ErrQuotaExceeded: the requester hit their daily creation quota.
	ErrQuotaExceeded = errors.New("daily contact request limit exceeded")

	// ErrBlocked: an unresolved accepted request older than the cutoff
	// prevents the caller from creating or accepting new requests.
	ErrBlocked = errors.New("unresolved accepted requests must be confirmed first")

	// ErrInvalidResolutionStatus: admin supplied a status outside the allowed
	// dispute resolution set.
	ErrInvalidResolutionStatus = errors.New("invalid dispute resolution status")

	// ErrEmailTaken: registration attempted with an email already in use.
	ErrEmailTaken = errors.New("email address already registered")

	// ErrInvalidCredentials: login failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserSuspended: the account is suspended and cannot authenticate.
	ErrUserSuspended = errors.New("user account is suspended")
)
