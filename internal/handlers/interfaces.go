package handlers

import (
	"context"

	"github.com/m1z23r/nikode-sync/internal/hub"
	"github.com/m1z23r/nikode-sync/internal/models"
	"github.com/m1z23r/nikode-sync/internal/permissions"
	"github.com/m1z23r/nikode-sync/internal/services"
)

// CollectionServiceInterface defines the methods used by handlers from CollectionService
type CollectionServiceInterface interface {
	Create(ctx context.Context, id string) (*models.Collection, error)
	Get(ctx context.Context, id string) (*models.Collection, error)
	List(ctx context.Context) ([]models.Collection, error)
	Sync(ctx context.Context, colID string, sinceColrev *int64) (*services.SyncResult, error)
	Delete(ctx context.Context, id string) error
}

// DocumentServiceInterface defines the methods used by handlers from DocumentService
type DocumentServiceInterface interface {
	Create(ctx context.Context, colID, id string, data []byte) (*models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	Update(ctx context.Context, id string, changes [][]byte) (*models.Document, error)
	SetPermission(ctx context.Context, id string, p permissions.Permission, role permissions.Role) error
	UnsetPermission(ctx context.Context, id string, p permissions.Permission, role permissions.Role) error
	Authorize(ctx context.Context, id string, subject permissions.Subject, p permissions.Permission) error
}

// GroupServiceInterface defines the methods used by handlers from GroupService
type GroupServiceInterface interface {
	Create(ctx context.Context, id string) (*models.Group, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, userID, groupID string) (*models.GroupMember, error)
	RemoveMember(ctx context.Context, userID, groupID string) error
	GroupsOf(ctx context.Context, userID string) ([]string, error)
}

// HubInterface defines the methods used by handlers from the Hub
type HubInterface interface {
	Register(client *hub.Client)
	Unregister(client *hub.Client)
	Subscribe(clientID, colID string)
	Unsubscribe(clientID, colID string)
	IsSubscribed(clientID string) bool
	Broadcast(colID string, payload any)
}
