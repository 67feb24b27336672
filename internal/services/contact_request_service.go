package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agriconnect/backend/internal/config"
	"agriconnect/backend/internal/db"
	"agriconnect/backend/internal/metrics"
	"agriconnect/backend/internal/models"
)

// Confirmation carries one party's post-acceptance declaration of whether the
// transaction happened, with the final agreed figures.
type Confirmation struct {
	DidBuy        bool
	FinalQuantity float64
	FinalPrice    float64
	Feedback      string
}

// IContactRequestService defines the interface for the contact request
// lifecycle.
type IContactRequestService interface {
	CreateRequest(ctx context.Context, requesterID primitive.ObjectID, requesterRole models.Role, productID primitive.ObjectID, requestedQuantity float64, sourceIP string) (*models.ContactRequest, error)
	AcceptRequest(ctx context.Context, farmerID, requestID primitive.ObjectID) (*models.ContactRequest, error)
	RejectRequest(ctx context.Context, farmerID, requestID primitive.ObjectID) (*models.ContactRequest, error)
	ConfirmAsRequester(ctx context.Context, requesterID, requestID primitive.ObjectID, conf Confirmation) (*models.ContactRequest, error)
	ConfirmAsFarmer(ctx context.Context, farmerID, requestID primitive.ObjectID, conf Confirmation) (*models.ContactRequest, error)
	HasUnresolvedAcceptedRequests(ctx context.Context, requesterID primitive.ObjectID) (bool, error)
	FarmerHasUnresolvedAcceptedRequests(ctx context.Context, farmerID primitive.ObjectID) (bool, error)
	ExpireOldRequests(ctx context.Context) (int64, error)
	ResolveDispute(ctx context.Context, adminID, requestID primitive.ObjectID, finalStatus models.RequestStatus, adminNote string) (*models.ContactRequest, error)
	FindRequestByID(ctx context.Context, requestID primitive.ObjectID) (*models.ContactRequest, error)
	FindRequestsByRequester(ctx context.Context, requesterID primitive.ObjectID, limit int) ([]models.ContactRequest, error)
	FindRequestsByFarmer(ctx context.Context, farmerID primitive.ObjectID, limit int) ([]models.ContactRequest, error)
	ListDisputedRequests(ctx context.Context, limit int) ([]models.ContactRequest, error)
	CountPendingCreatedToday(ctx context.Context, requesterID primitive.ObjectID) (int64, error)
}

const requestsCollection = "contact_requests"

// contactRequestService implements IContactRequestService.
type contactRequestService struct {
	db       *mongo.Database
	cfg      *config.Config
	activity IActivityService
	metrics  *metrics.RequestMetrics
}

// NewContactRequestService creates a new ContactRequestService.
func NewContactRequestService(db *mongo.Database, cfg *config.Config, activity IActivityService, m *metrics.RequestMetrics) IContactRequestService {
	return &contactRequestService{db: db, cfg: cfg, activity: activity, metrics: m}
}

// CreateRequest validates and persists a new pending contact request.
// Validation order: unresolved blocking, product existence, quantity range,
// self-request, daily quota, duplicate pending.
func (s *contactRequestService) CreateRequest(ctx context.Context, requesterID primitive.ObjectID, requesterRole models.Role, productID primitive.ObjectID, requestedQuantity float64, sourceIP string) (*models.ContactRequest, error) {
	blocked, err := s.HasUnresolvedAcceptedRequests(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if blocked {
		s.metrics.RecordError("blocked")
		return nil, ErrBlocked
	}

	var product models.Product
	err = s.db.Collection(productsCollection).
		FindOne(ctx, bson.M{"_id": productID, "deleted": false}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.metrics.RecordError("product_not_found")
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding product %s: %w", productID.Hex(), err)
	}

	if requestedQuantity <= 0 || requestedQuantity < product.MinimumOrderQuantity || requestedQuantity > product.AvailableQuantity {
		s.metrics.RecordError("invalid_quantity")
		return nil, ErrInvalidQuantity
	}

	if product.FarmerID == requesterID {
		s.metrics.RecordError("self_request")
		return nil, ErrSelfRequest
	}

	count, err := s.CountPendingCreatedToday(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.cfg.DailyRequestLimitForRole(string(requesterRole))) {
		s.metrics.RecordError("quota_exceeded")
		return nil, ErrQuotaExceeded
	}

	collection := s.db.Collection(requestsCollection)

	request := &models.ContactRequest{
		ID:                 primitive.NewObjectID(),
		ProductID:          productID,
		FarmerID:           product.FarmerID,
		RequesterID:        requesterID,
		RequesterRole:      requesterRole,
		RequestedQuantity:  requestedQuantity,
		Status:             models.StatusPending,
		ConfirmationStatus: models.ConfirmationPending,
		RequestedAt:        time.Now().UTC(),
	}

	_, err = collection.InsertOne(ctx, request)
	if err != nil {
		// The partial unique index on pending (requester, farmer, product)
		// rejects duplicates even under concurrent creates. Surface the
		// existing request instead of the raw index error.
		if db.IsMongoDuplicateKeyError(err) {
			existing, findErr := s.findPendingByTriple(ctx, requesterID, product.FarmerID, productID)
			if findErr != nil {
				return nil, findErr
			}
			s.metrics.RecordError("duplicate_pending")
			return existing, ErrDuplicatePending
		}
		return nil, fmt.Errorf("failed to insert contact request for requester %s: %w", requesterID.Hex(), err)
	}

	s.metrics.RecordCreated(string(requesterRole))
	s.activity.Record(ctx, requesterID, "request_created", "contact_request", request.ID,
		map[string]string{"product_id": productID.Hex()}, sourceIP)

	return request, nil
}

func (s *contactRequestService) findPendingByTriple(ctx context.Context, requesterID, farmerID, productID primitive.ObjectID) (*models.ContactRequest, error) {
	var existing models.ContactRequest
	filter := bson.M{
		"requester_id": requesterID,
		"farmer_id":    farmerID,
		"product_id":   productID,
		"status":       models.StatusPending,
	}
	err := s.db.Collection(requestsCollection).FindOne(ctx, filter).Decode(&existing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// The duplicate resolved between our insert attempt and this read
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("error finding pending duplicate: %w", err)
	}
	return &existing, nil
}

// AcceptRequest transitions a pending request to accepted. Farmers with their
// own stale accepted requests must resolve those first.
func (s *contactRequestService) AcceptRequest(ctx context.Context, farmerID, requestID primitive.ObjectID) (*models.ContactRequest, error) {
	blocked, err := s.FarmerHasUnresolvedAcceptedRequests(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	if blocked {
		s.metrics.RecordError("blocked")
		return nil, ErrBlocked
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":      models.StatusAccepted,
		"accepted_at": now,
	}}

	request, err := s.respondToRequest(ctx, farmerID, requestID, update)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(models.StatusAccepted))
	s.activity.Record(ctx, farmerID, "request_accepted", "contact_request", requestID, nil, "")
	return request, nil
}

// RejectRequest transitions a pending request to rejected. Terminal.
func (s *contactRequestService) RejectRequest(ctx context.Context, farmerID, requestID primitive.ObjectID) (*models.ContactRequest, error) {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":      models.StatusRejected,
		"rejected_at": now,
	}}

	request, err := s.respondToRequest(ctx, farmerID, requestID, update)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(models.StatusRejected))
	s.activity.Record(ctx, farmerID, "request_rejected", "contact_request", requestID, nil, "")
	return request, nil
}

// respondToRequest applies a farmer response through a guarded update. The
// filter encodes every precondition; a miss is diagnosed afterwards.
func (s *contactRequestService) respondToRequest(ctx context.Context, farmerID, requestID primitive.ObjectID, update bson.M) (*models.ContactRequest, error) {
	collection := s.db.Collection(requestsCollection)

	filter := bson.M{
		"_id":       requestID,
		"farmer_id": farmerID,
		"status":    models.StatusPending,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.ContactRequest
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("db error responding to request %s: %w", requestID.Hex(), err)
	}

	// Diagnose why the guarded update matched nothing
	var request models.ContactRequest
	checkErr := collection.FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if errors.Is(checkErr, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if checkErr != nil {
		return nil, fmt.Errorf("error finding request %s: %w", requestID.Hex(), checkErr)
	}
	if request.FarmerID != farmerID {
		return nil, ErrForbidden
	}
	return nil, ErrAlreadyProcessed
}

// ConfirmAsRequester records the requester's confirmation and reconciles if
// the farmer has already confirmed.
func (s *contactRequestService) ConfirmAsRequester(ctx context.Context, requesterID, requestID primitive.ObjectID, conf Confirmation) (*models.ContactRequest, error) {
	set := bson.M{
		"user_confirmed":       true,
		"user_confirmation_at": time.Now().UTC(),
		"final_quantity":       conf.FinalQuantity,
		"final_price":          conf.FinalPrice,
		"user_feedback":        conf.Feedback,
	}
	return s.confirm(ctx, requestID, confirmParams{
		partyID:        requesterID,
		partyField:     "requester_id",
		confirmedField: "user_confirmed",
		set:            set,
		didHappen:      conf.DidBuy,
		action:         "request_confirmed_by_requester",
	})
}

// ConfirmAsFarmer records the farmer's confirmation, mirror of
// ConfirmAsRequester.
func (s *contactRequestService) ConfirmAsFarmer(ctx context.Context, farmerID, requestID primitive.ObjectID, conf Confirmation) (*models.ContactRequest, error) {
	set := bson.M{
		"farmer_confirmed":       true,
		"farmer_confirmation_at": time.Now().UTC(),
		"farmer_final_quantity":  conf.FinalQuantity,
		"farmer_final_price":     conf.FinalPrice,
		"farmer_feedback":        conf.Feedback,
	}
	return s.confirm(ctx, requestID, confirmParams{
		partyID:        farmerID,
		partyField:     "farmer_id",
		confirmedField: "farmer_confirmed",
		set:            set,
		didHappen:      conf.DidBuy,
		action:         "request_confirmed_by_farmer",
	})
}

type confirmParams struct {
	partyID        primitive.ObjectID
	partyField     string // "requester_id" or "farmer_id"
	confirmedField string // "user_confirmed" or "farmer_confirmed"
	set            bson.M
	didHappen      bool
	action         string
}

// confirm applies one party's confirmation through a single guarded
// FindOneAndUpdate and evaluates reconciliation on the post-write document.
// Guarding on the party's own confirmed flag makes re-confirmation and
// concurrent double-submission collapse into the AlreadyConfirmed path;
// returning the post-write state means whichever party confirms second sees
// both flags set and triggers the comparison exactly once.
func (s *contactRequestService) confirm(ctx context.Context, requestID primitive.ObjectID, p confirmParams) (*models.ContactRequest, error) {
	collection := s.db.Collection(requestsCollection)

	if !p.didHappen {
		// One negative confirmation unilaterally ends the deal
		p.set["status"] = models.StatusNotCompleted
		p.set["confirmation_status"] = models.ConfirmationNotCompleted
	}

	filter := bson.M{
		"_id":            requestID,
		p.partyField:     p.partyID,
		"status":         models.StatusAccepted,
		p.confirmedField: false,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.ContactRequest
	err := collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": p.set}, opts).Decode(&updated)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("db error confirming request %s: %w", requestID.Hex(), err)
		}
		return nil, s.diagnoseConfirmFailure(ctx, requestID, p)
	}

	if updated.AcceptedAt != nil {
		s.metrics.RecordConfirmationLag(time.Since(*updated.AcceptedAt).Seconds())
	}
	s.activity.Record(ctx, p.partyID, p.action, "contact_request", requestID,
		map[string]string{"did_happen": fmt.Sprintf("%t", p.didHappen)}, "")

	if !p.didHappen {
		s.metrics.RecordTransition(string(models.StatusNotCompleted))
		return &updated, nil
	}

	resolved, ready := updated.Reconcile()
	if !ready {
		// Other party has not confirmed yet; stays accepted
		return &updated, nil
	}

	return s.applyReconciliation(ctx, requestID, &updated, resolved)
}

// applyReconciliation persists the completed/disputed outcome. The write is
// guarded on both confirmation flags so a concurrent sweep or duplicate
// reconciliation cannot overwrite an already-terminal status.
func (s *contactRequestService) applyReconciliation(ctx context.Context, requestID primitive.ObjectID, current *models.ContactRequest, resolved models.RequestStatus) (*models.ContactRequest, error) {
	collection := s.db.Collection(requestsCollection)

	filter := bson.M{
		"_id":              requestID,
		"status":           models.StatusAccepted,
		"user_confirmed":   true,
		"farmer_confirmed": true,
	}
	update := bson.M{"$set": bson.M{
		"status":              resolved,
		"confirmation_status": models.ConfirmationStatus(resolved),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var final models.ContactRequest
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&final)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Another writer resolved the request first; report what landed
			var landed models.ContactRequest
			checkErr := collection.FindOne(ctx, bson.M{"_id": requestID}).Decode(&landed)
			if checkErr != nil {
				return current, nil
			}
			return &landed, nil
		}
		return nil, fmt.Errorf("db error reconciling request %s: %w", requestID.Hex(), err)
	}

	s.metrics.RecordTransition(string(resolved))
	return &final, nil
}

func (s *contactRequestService) diagnoseConfirmFailure(ctx context.Context, requestID primitive.ObjectID, p confirmParams) error {
	var request models.ContactRequest
	err := s.db.Collection(requestsCollection).FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error finding request %s: %w", requestID.Hex(), err)
	}

	var expected primitive.ObjectID
	var alreadyConfirmed bool
	if p.partyField == "requester_id" {
		expected = request.RequesterID
		alreadyConfirmed = request.UserConfirmed
	} else {
		expected = request.FarmerID
		alreadyConfirmed = request.FarmerConfirmed
	}

	if expected != p.partyID {
		return ErrForbidden
	}
	if request.Status != models.StatusAccepted {
		return ErrAlreadyProcessed
	}
	if alreadyConfirmed {
		return ErrAlreadyConfirmed
	}
	return fmt.Errorf("request %s cannot be confirmed (condition not met)", requestID.Hex())
}

// HasUnresolvedAcceptedRequests reports whether the requester has an accepted
// request older than the cutoff still awaiting confirmation.
func (s *contactRequestService) HasUnresolvedAcceptedRequests(ctx context.Context, requesterID primitive.ObjectID) (bool, error) {
	return s.hasUnresolved(ctx, "requester_id", requesterID)
}

// FarmerHasUnresolvedAcceptedRequests is the farmer-side variant.
func (s *contactRequestService) FarmerHasUnresolvedAcceptedRequests(ctx context.Context, farmerID primitive.ObjectID) (bool, error) {
	return s.hasUnresolved(ctx, "farmer_id", farmerID)
}

func (s *contactRequestService) hasUnresolved(ctx context.Context, partyField string, partyID primitive.ObjectID) (bool, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.RequestUnresolvedAge)
	filter := bson.M{
		partyField:            partyID,
		"status":              models.StatusAccepted,
		"accepted_at":         bson.M{"$lt": cutoff},
		"confirmation_status": models.ConfirmationPending,
	}

	count, err := s.db.Collection(requestsCollection).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error counting unresolved requests for %s %s: %w", partyField, partyID.Hex(), err)
	}
	return count > 0, nil
}

// ExpireOldRequests transitions all stale accepted requests to expired and
// returns how many changed. Idempotent; safe to re-run on any schedule.
func (s *contactRequestService) ExpireOldRequests(ctx context.Context) (int64, error) {
	collection := s.db.Collection(requestsCollection)
	cutoff := time.Now().UTC().Add(-s.cfg.RequestUnresolvedAge)

	filter := bson.M{
		"status":              models.StatusAccepted,
		"accepted_at":         bson.M{"$lt": cutoff},
		"confirmation_status": models.ConfirmationPending,
	}

	// Snapshot the matching ids first so each expired request gets its own
	// audit entry. The bulk update reuses the same guarded filter, so a
	// request confirmed between the two operations is simply not expired.
	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to select stale requests: %w", err)
	}
	var stale []models.ContactRequest
	if err = cursor.All(ctx, &stale); err != nil {
		return 0, fmt.Errorf("failed to decode stale requests: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	update := bson.M{"$set": bson.M{
		"status":              models.StatusExpired,
		"confirmation_status": models.ConfirmationExpired,
	}}
	result, err := collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale requests: %w", err)
	}

	for _, r := range stale {
		// Attributed to the requester; Record swallows its own failures so
		// one bad entry never stops the sweep
		s.activity.Record(ctx, r.RequesterID, "request_expired", "contact_request", r.ID, nil, "")
	}

	if result.ModifiedCount > 0 {
		s.metrics.RecordExpired(result.ModifiedCount)
		log.Printf("Expired %d stale contact requests (accepted before %s)", result.ModifiedCount, cutoff.Format(time.RFC3339))
	}
	return result.ModifiedCount, nil
}

// ResolveDispute forces a disputed request into an admin-chosen terminal
// status.
func (s *contactRequestService) ResolveDispute(ctx context.Context, adminID, requestID primitive.ObjectID, finalStatus models.RequestStatus, adminNote string) (*models.ContactRequest, error) {
	if !models.IsAllowedDisputeResolution(finalStatus) {
		s.metrics.RecordError("invalid_resolution_status")
		return nil, ErrInvalidResolutionStatus
	}

	collection := s.db.Collection(requestsCollection)
	now := time.Now().UTC()

	filter := bson.M{
		"_id":    requestID,
		"status": models.StatusDisputed,
	}
	update := bson.M{"$set": bson.M{
		"status":              finalStatus,
		"confirmation_status": models.ConfirmationStatus(finalStatus),
		"admin_note":          adminNote,
		"resolved_at":         now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var resolved models.ContactRequest
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&resolved)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("db error resolving dispute for request %s: %w", requestID.Hex(), err)
		}
		var request models.ContactRequest
		checkErr := collection.FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
		if errors.Is(checkErr, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if checkErr != nil {
			return nil, fmt.Errorf("error finding request %s: %w", requestID.Hex(), checkErr)
		}
		return nil, ErrAlreadyProcessed
	}

	s.metrics.RecordDisputeResolved(string(finalStatus))
	s.activity.Record(ctx, adminID, "dispute_resolved", "contact_request", requestID,
		map[string]string{"final_status": string(finalStatus)}, "")

	return &resolved, nil
}

// FindRequestByID finds a request by its ID. It does NOT check ownership.
func (s *contactRequestService) FindRequestByID(ctx context.Context, requestID primitive.ObjectID) (*models.ContactRequest, error) {
	var request models.ContactRequest
	err := s.db.Collection(requestsCollection).FindOne(ctx, bson.M{"_id": requestID}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding request %s: %w", requestID.Hex(), err)
	}
	return &request, nil
}

// FindRequestsByRequester returns the requester's requests, newest first.
func (s *contactRequestService) FindRequestsByRequester(ctx context.Context, requesterID primitive.ObjectID, limit int) ([]models.ContactRequest, error) {
	return s.findByParty(ctx, "requester_id", requesterID, limit)
}

// FindRequestsByFarmer returns the farmer's incoming requests, newest first.
func (s *contactRequestService) FindRequestsByFarmer(ctx context.Context, farmerID primitive.ObjectID, limit int) ([]models.ContactRequest, error) {
	return s.findByParty(ctx, "farmer_id", farmerID, limit)
}

func (s *contactRequestService) findByParty(ctx context.Context, partyField string, partyID primitive.ObjectID, limit int) ([]models.ContactRequest, error) {
	filter := bson.M{partyField: partyID}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "requested_at", Value: -1}})

	cursor, err := s.db.Collection(requestsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing requests for %s %s: %w", partyField, partyID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var results []models.ContactRequest
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("error decoding requests for %s %s: %w", partyField, partyID.Hex(), err)
	}
	return results, nil
}

// ListDisputedRequests returns disputed requests for admin review, oldest
// dispute first.
func (s *contactRequestService) ListDisputedRequests(ctx context.Context, limit int) ([]models.ContactRequest, error) {
	filter := bson.M{"status": models.StatusDisputed}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "requested_at", Value: 1}})

	cursor, err := s.db.Collection(requestsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing disputed requests: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.ContactRequest
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("error decoding disputed requests: %w", err)
	}
	return results, nil
}

// CountPendingCreatedToday counts the requester's pending requests created
// inside the current UTC calendar day. The count reads durable records, not
// an in-memory counter, so it survives restarts and multiple instances.
func (s *contactRequestService) CountPendingCreatedToday(ctx context.Context, requesterID primitive.ObjectID) (int64, error) {
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	filter := bson.M{
		"requester_id": requesterID,
		"status":       models.StatusPending,
		"requested_at": bson.M{"$gte": startOfDay, "$lt": startOfDay.Add(24 * time.Hour)},
	}

	count, err := s.db.Collection(requestsCollection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting today's pending requests for %s: %w", requesterID.Hex(), err)
	}
	return count, nil
}
