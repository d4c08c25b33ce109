package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/ki2helper/panel-api/internal/models"
	"github.com/ki2helper/panel-api/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockAuthFlow struct {
	LoginFunc           func(ctx context.Context, username, ipAddress string) (*services.LoginResult, error)
	CheckOTPFunc        func(ctx context.Context, attemptID string, otp int) (*services.SessionResult, error)
	CreateMagicLinkFunc func(ctx context.Context, userID int64, username string) error
	MagicLoginFunc      func(ctx context.Context, attemptID string, userID int64, username string, otp int, isMagic bool) (*services.SessionResult, error)
	RegisterFunc        func(ctx context.Context, userID int64, username, role string) (*models.Admin, error)
	RefreshFunc         func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthFlow) Login(ctx context.Context, username, ipAddress string) (*services.LoginResult, error) {
	return m.LoginFunc(ctx, username, ipAddress)
}

func (m *mockAuthFlow) CheckOTP(ctx context.Context, attemptID string, otp int) (*services.SessionResult, error) {
	return m.CheckOTPFunc(ctx, attemptID, otp)
}

func (m *mockAuthFlow) CreateMagicLink(ctx context.Context, userID int64, username string) error {
	return m.CreateMagicLinkFunc(ctx, userID, username)
}

func (m *mockAuthFlow) MagicLogin(ctx context.Context, attemptID string, userID int64, username string, otp int, isMagic bool) (*services.SessionResult, error) {
	return m.MagicLoginFunc(ctx, attemptID, userID, username, otp, isMagic)
}

func (m *mockAuthFlow) Register(ctx context.Context, userID int64, username, role string) (*models.Admin, error) {
	return m.RegisterFunc(ctx, userID, username, role)
}

func (m *mockAuthFlow) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return m.RefreshFunc(ctx, refreshToken)
}

type mockAdminDirectory struct {
	GetByUserIDFunc        func(ctx context.Context, userID int64) (*models.Admin, error)
	DeleteManagerFunc      func(ctx context.Context, id string) (int64, error)
	BulkDeleteManagersFunc func(ctx context.Context, ids []string) (int64, error)
}

func (m *mockAdminDirectory) GetByUserID(ctx context.Context, userID int64) (*models.Admin, error) {
	return m.GetByUserIDFunc(ctx, userID)
}

func (m *mockAdminDirectory) DeleteManager(ctx context.Context, id string) (int64, error) {
	return m.DeleteManagerFunc(ctx, id)
}

func (m *mockAdminDirectory) BulkDeleteManagers(ctx context.Context, ids []string) (int64, error) {
	return m.BulkDeleteManagersFunc(ctx, ids)
}

type mockResourceStore struct {
	ListFunc       func(ctx context.Context, collection string, limit int) ([]json.RawMessage, error)
	GetFunc        func(ctx context.Context, collection, id string) (json.RawMessage, error)
	CreateFunc     func(ctx context.Context, collection, id string, doc interface{}) error
	PatchFunc      func(ctx context.Context, collection, id string, fields map[string]interface{}) (bool, error)
	DeleteFunc     func(ctx context.Context, collection, id string) (int64, error)
	BulkDeleteFunc func(ctx context.Context, collection string, ids []string) (int64, error)
}

func (m *mockResourceStore) List(ctx context.Context, collection string, limit int) ([]json.RawMessage, error) {
	return m.ListFunc(ctx, collection, limit)
}

func (m *mockResourceStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	return m.GetFunc(ctx, collection, id)
}

func (m *mockResourceStore) Create(ctx context.Context, collection, id string, doc interface{}) error {
	return m.CreateFunc(ctx, collection, id, doc)
}

func (m *mockResourceStore) Patch(ctx context.Context, collection, id string, fields map[string]interface{}) (bool, error) {
	return m.PatchFunc(ctx, collection, id, fields)
}

func (m *mockResourceStore) Delete(ctx context.Context, collection, id string) (int64, error) {
	return m.DeleteFunc(ctx, collection, id)
}

func (m *mockResourceStore) BulkDelete(ctx context.Context, collection string, ids []string) (int64, error) {
	return m.BulkDeleteFunc(ctx, collection, ids)
}
