package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus is the primary state of a contact request.
type RequestStatus string

const (
	StatusPending      RequestStatus = "pending"
	StatusAccepted     RequestStatus = "accepted"
	StatusCompleted    RequestStatus = "completed"
	StatusDisputed     RequestStatus = "disputed"
	StatusExpired      RequestStatus = "expired"
	StatusRejected     RequestStatus = "rejected"
	StatusNotCompleted RequestStatus = "not_completed"
)

// ConfirmationStatus tracks the post-acceptance confirmation sub-protocol.
// It stays "pending" until both parties have acted or one declines.
type ConfirmationStatus string

const (
	ConfirmationPending      ConfirmationStatus = "pending"
	ConfirmationCompleted    ConfirmationStatus = "completed"
	ConfirmationDisputed     ConfirmationStatus = "disputed"
	ConfirmationNotCompleted ConfirmationStatus = "not_completed"
	ConfirmationExpired      ConfirmationStatus = "expired"
)

// ContactRequest represents one requester's attempt to negotiate a purchase
// with one farmer over one product.
type ContactRequest struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID     primitive.ObjectID `bson:"product_id" json:"product_id"`
	FarmerID      primitive.ObjectID `bson:"farmer_id" json:"farmer_id"`
	RequesterID   primitive.ObjectID `bson:"requester_id" json:"requester_id"`
	RequesterRole Role               `bson:"requester_role" json:"requester_role"`

	// Immutable after creation. Only the final figures below vary post-hoc.
	RequestedQuantity float64 `bson:"requested_quantity" json:"requested_quantity"`

	Status             RequestStatus      `bson:"status" json:"status"`
	ConfirmationStatus ConfirmationStatus `bson:"confirmation_status" json:"confirmation_status"`

	RequestedAt          time.Time  `bson:"requested_at" json:"requested_at"`
	AcceptedAt           *time.Time `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
	RejectedAt           *time.Time `bson:"rejected_at,omitempty" json:"rejected_at,omitempty"`
	UserConfirmationAt   *time.Time `bson:"user_confirmation_at,omitempty" json:"user_confirmation_at,omitempty"`
	FarmerConfirmationAt *time.Time `bson:"farmer_confirmation_at,omitempty" json:"farmer_confirmation_at,omitempty"`
	ResolvedAt           *time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"` // Admin override only

	UserConfirmed   bool `bson:"user_confirmed" json:"user_confirmed"`
	FarmerConfirmed bool `bson:"farmer_confirmed" json:"farmer_confirmed"`

	// Requester-supplied figures, stored when the requester confirms.
	FinalQuantity *float64 `bson:"final_quantity,omitempty" json:"final_quantity,omitempty"`
	FinalPrice    *float64 `bson:"final_price,omitempty" json:"final_price,omitempty"`
	UserFeedback  string   `bson:"user_feedback,omitempty" json:"user_feedback,omitempty"`

	// Farmer-supplied figures, stored when the farmer confirms.
	FarmerFinalQuantity *float64 `bson:"farmer_final_quantity,omitempty" json:"farmer_final_quantity,omitempty"`
	FarmerFinalPrice    *float64 `bson:"farmer_final_price,omitempty" json:"farmer_final_price,omitempty"`
	FarmerFeedback      string   `bson:"farmer_feedback,omitempty" json:"farmer_feedback,omitempty"`

	AdminNote string `bson:"admin_note,omitempty" json:"admin_note,omitempty"`
}

// IsTerminalStatus reports whether s admits no further transitions.
func IsTerminalStatus(s RequestStatus) bool {
	switch s {
	case StatusCompleted, StatusDisputed, StatusExpired, StatusRejected, StatusNotCompleted:
		return true
	}
	return false
}

// IsAllowedDisputeResolution reports whether an admin may force a disputed
// request into status s.
func IsAllowedDisputeResolution(s RequestStatus) bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusNotCompleted:
		return true
	}
	return false
}

// BothConfirmed reports whether both parties have recorded a confirmation.
func (r *ContactRequest) BothConfirmed() bool {
	return r.UserConfirmed && r.FarmerConfirmed
}

// Reconcile compares both parties' final figures and returns the resolved
// status: completed when quantity and price match exactly, disputed on any
// mismatch. The second return value is false while either confirmation is
// still outstanding, in which case the request must stay accepted.
//
// Pure function of the record so the completed/disputed branch is testable
// without a database.
func (r *ContactRequest) Reconcile() (RequestStatus, bool) {
	if !r.BothConfirmed() {
		return r.Status, false
	}
	if floatEq(r.FinalQuantity, r.FarmerFinalQuantity) && floatEq(r.FinalPrice, r.FarmerFinalPrice) {
		return StatusCompleted, true
	}
	return StatusDisputed, true
}

func floatEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
