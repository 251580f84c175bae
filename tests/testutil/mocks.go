package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/m1z23r/nikode-sync/internal/hub"
	"github.com/m1z23r/nikode-sync/internal/models"
	"github.com/m1z23r/nikode-sync/internal/permissions"
	"github.com/m1z23r/nikode-sync/internal/services"
)

// MockCollectionService mocks the CollectionService
type MockCollectionService struct {
	mock.Mock
}

func (m *MockCollectionService) Create(ctx context.Context, id string) (*models.Collection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collection), args.Error(1)
}

func (m *MockCollectionService) Get(ctx context.Context, id string) (*models.Collection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collection), args.Error(1)
}

func (m *MockCollectionService) List(ctx context.Context) ([]models.Collection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Collection), args.Error(1)
}

func (m *MockCollectionService) Sync(ctx context.Context, colID string, sinceColrev *int64) (*services.SyncResult, error) {
	args := m.Called(ctx, colID, sinceColrev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SyncResult), args.Error(1)
}

func (m *MockCollectionService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDocumentService mocks the DocumentService
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Create(ctx context.Context, colID, id string, data []byte) (*models.Document, error) {
	args := m.Called(ctx, colID, id, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, id string, changes [][]byte) (*models.Document, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentService) SetPermission(ctx context.Context, id string, p permissions.Permission, role permissions.Role) error {
	args := m.Called(ctx, id, p, role)
	return args.Error(0)
}

func (m *MockDocumentService) UnsetPermission(ctx context.Context, id string, p permissions.Permission, role permissions.Role) error {
	args := m.Called(ctx, id, p, role)
	return args.Error(0)
}

func (m *MockDocumentService) Authorize(ctx context.Context, id string, subject permissions.Subject, p permissions.Permission) error {
	args := m.Called(ctx, id, subject, p)
	return args.Error(0)
}

// MockGroupService mocks the GroupService
type MockGroupService struct {
	mock.Mock
}

func (m *MockGroupService) Create(ctx context.Context, id string) (*models.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockGroupService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGroupService) AddMember(ctx context.Context, userID, groupID string) (*models.GroupMember, error) {
	args := m.Called(ctx, userID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GroupMember), args.Error(1)
}

func (m *MockGroupService) RemoveMember(ctx context.Context, userID, groupID string) error {
	args := m.Called(ctx, userID, groupID)
	return args.Error(0)
}

func (m *MockGroupService) GroupsOf(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockHub mocks the hub used by the sync handler
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *hub.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *hub.Client) {
	m.Called(client)
}

func (m *MockHub) Subscribe(clientID, colID string) {
	m.Called(clientID, colID)
}

func (m *MockHub) Unsubscribe(clientID, colID string) {
	m.Called(clientID, colID)
}

func (m *MockHub) IsSubscribed(clientID string) bool {
	args := m.Called(clientID)
	return args.Bool(0)
}

func (m *MockHub) Broadcast(colID string, payload any) {
	m.Called(colID, payload)
}
