package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"agriconnect/backend/internal/models"
	"agriconnect/backend/internal/services"
)

// --- Mocks ---

// MockContactRequestService
type MockContactRequestService struct {
	mock.Mock
}

func (m *MockContactRequestService) CreateRequest(ctx context.Context, requesterID primitive.ObjectID, requesterRole models.Role, productID primitive.ObjectID, requestedQuantity float64, sourceIP string) (*models.ContactRequest, error) {
	args := m.Called(ctx, requesterID, requesterRole, productID, requestedQuantity, sourceIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContactRequest), args.Error(1)
}

func (m *MockContactRequestService) AcceptRequest(ctx context.Context, farmerID, requestID primitive.ObjectID) (*models.ContactRequest, error) {
	args := m.Called(ctx, farmerID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContactRequest), args.Error(1)
}

func (m *MockContactRequestService) RejectRequest(ctx context.Context, farmerID, requestID primitive.ObjectID) (*models.ContactRequest, error) {
	args := m.Called(ctx, farmerID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContactRequest), args.Error(1)
}

func (m *MockContactRequestService) ConfirmAsRequester(ctx context.Context, requesterID, requestID primitive.ObjectID, conf services.Confirmation) (*models.ContactRequest, error) {
	args := m.Called(ctx, requesterID, requestID, conf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContactRequest), args.Error(1)
}

func (m *MockContactRequestService) ConfirmAsFarmer(ctx context.Context, farmerID, requestID primitive.ObjectID, conf services.Confirmation) (*models.ContactRequest, error) {
	args := m.Called(ctx, farmerID, requestID, conf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContactRequest), args.Error(1)
}

func (m *MockContactRequestService) HasUnresolvedAcceptedRequests(ctx context.Context, requesterID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, requesterID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContactRequestService) FarmerHasUnresolvedAcceptedRequests(ctx context.Context, farmerID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, farmerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContactRequestService) ExpireOldRequests(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContactRequestService) ResolveDispute(ctx context.Context, adminID, requestID primitive.ObjectID, finalStatus models.RequestStatus, adminNote string) (*models.ContactRequest, error) {
	args := m.Called(ctx, adminID, requestID, finalStatus, adminNote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContactRequest), args.Error(1)
}

func (m *MockContactRequestService) FindRequestByID(ctx context.Context, requestID primitive.ObjectID) (*models.ContactRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContactRequest), args.Error(1)
}

func (m *MockContactRequestService) FindRequestsByRequester(ctx context.Context, requesterID primitive.ObjectID, limit int) ([]models.ContactRequest, error) {
	args := m.Called(ctx, requesterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ContactRequest), args.Error(1)
}

func (m *MockContactRequestService) FindRequestsByFarmer(ctx context.Context, farmerID primitive.ObjectID, limit int) ([]models.ContactRequest, error) {
	args := m.Called(ctx, farmerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ContactRequest), args.Error(1)
}

func (m *MockContactRequestService) ListDisputedRequests(ctx context.Context, limit int) ([]models.ContactRequest, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ContactRequest), args.Error(1)
}

func (m *MockContactRequestService) CountPendingCreatedToday(ctx context.Context, requesterID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, requesterID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, name, email, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) SuspendUser(ctx context.Context, userID primitive.ObjectID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserService) UnsuspendUser(ctx context.Context, userID primitive.ObjectID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) CreateProduct(ctx context.Context, farmerID primitive.ObjectID, name, description, category, unit string, pricePerUnit, minimumOrderQuantity, availableQuantity float64) (*models.Product, error) {
	args := m.Called(ctx, farmerID, name, description, category, unit, pricePerUnit, minimumOrderQuantity, availableQuantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) FindProductByID(ctx context.Context, productID primitive.ObjectID) (*models.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) SearchProducts(ctx context.Context, category, query string, limit, offset int) ([]models.Product, error) {
	args := m.Called(ctx, category, query, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, productID, farmerID primitive.ObjectID, updates map[string]interface{}) (*models.Product, error) {
	args := m.Called(ctx, productID, farmerID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, productID, farmerID primitive.ObjectID) error {
	args := m.Called(ctx, productID, farmerID)
	return args.Error(0)
}

// MockActivityService
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) Record(ctx context.Context, actorID primitive.ObjectID, action, resourceType string, resourceID primitive.ObjectID, metadata map[string]string, sourceIP string) {
	m.Called(ctx, actorID, action, resourceType, resourceID, metadata, sourceIP)
}

func (m *MockActivityService) FindByActor(ctx context.Context, actorID primitive.ObjectID, limit int) ([]models.Activity, error) {
	args := m.Called(ctx, actorID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Activity), args.Error(1)
}
