package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ki2helper/panel-api/internal/models"
	"github.com/ki2helper/panel-api/internal/store"
)

// AdminRepository manages admin identity records.
type AdminRepository struct {
	store DocumentStore
}

func NewAdminRepository(s DocumentStore) *AdminRepository {
	return &AdminRepository{store: s}
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	raw, err := r.store.FindOneBy(ctx, store.CollectionAdmins, map[string]interface{}{"username": username})
	if err != nil {
		return nil, err
	}
	return decodeAdmin(raw)
}

func (r *AdminRepository) GetByUserID(ctx context.Context, userID int64) (*models.Admin, error) {
	raw, err := r.store.FindOneBy(ctx, store.CollectionAdmins, map[string]interface{}{"user_id": userID})
	if err != nil {
		return nil, err
	}
	return decodeAdmin(raw)
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	raw, err := r.store.FindOne(ctx, store.CollectionAdmins, id)
	if err != nil {
		return nil, err
	}
	return decodeAdmin(raw)
}

// Create assigns a fresh id and persists the admin. Uniqueness of user_id
// and username is the caller's concern; both are checked before insertion.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
	admin.ID = uuid.New().String()
	if admin.Role == "" {
		admin.Role = models.RoleManager
	}

	if err := r.store.InsertOne(ctx, store.CollectionAdmins, admin.ID, admin); err != nil {
		return nil, err
	}

	return admin, nil
}

// DeleteManager removes the admin with the given id only if its role is
// manager; supers are never deletable through this path.
func (r *AdminRepository) DeleteManager(ctx context.Context, id string) (int64, error) {
	return r.store.DeleteOneBy(ctx, store.CollectionAdmins, id,
		map[string]interface{}{"role": models.RoleManager})
}

// BulkDeleteManagers removes the managers among the given ids.
func (r *AdminRepository) BulkDeleteManagers(ctx context.Context, ids []string) (int64, error) {
	return r.store.DeleteMany(ctx, store.CollectionAdmins, ids,
		map[string]interface{}{"role": models.RoleManager})
}

func decodeAdmin(raw json.RawMessage) (*models.Admin, error) {
	var admin models.Admin
	if err := json.Unmarshal(raw, &admin); err != nil {
		return nil, fmt.Errorf("failed to decode admin: %w", err)
	}
	return &admin, nil
}
