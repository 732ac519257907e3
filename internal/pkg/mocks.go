package utils

import (
	"context"

	"github.com/google/uuid"
	"github.com/obi2na/courier/internal/db/models"
	"github.com/obi2na/courier/internal/wordpress"
	"github.com/stretchr/testify/mock"
)

type MockQueries struct {
	mock.Mock
}

func (m *MockQueries) GetAnnouncementByID(ctx context.Context, id uuid.UUID) (models.Announcement, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Announcement), args.Error(1)
}

func (m *MockQueries) GetSiteConfigByID(ctx context.Context, id uuid.UUID) (models.WordpressSite, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.WordpressSite), args.Error(1)
}

func (m *MockQueries) UpdateAnnouncementRemotePost(ctx context.Context, arg models.UpdateAnnouncementRemotePostParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Run(ctx context.Context, req wordpress.PublishRequest, target wordpress.SiteTarget, observer wordpress.Observer) wordpress.Outcome {
	args := m.Called(ctx, req, target, observer)
	return args.Get(0).(wordpress.Outcome)
}
