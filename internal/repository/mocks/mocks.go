package mocks

import (
	"context"

	"github.com/ganot/quickssh/internal/domain/activity"
	"github.com/ganot/quickssh/internal/repository"
	"github.com/stretchr/testify/mock"
)

// DocumentRepository is a mock for repository.DocumentRepository.
type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) Get(ctx context.Context, name string) (*repository.Document, error) {
	args := m.Called(ctx, name)
	if doc, ok := args.Get(0).(*repository.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Put(ctx context.Context, doc *repository.Document, expectedRevision int64) error {
	args := m.Called(ctx, doc, expectedRevision)
	return args.Error(0)
}

func (m *DocumentRepository) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, store string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, store, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, store string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, store, opts)
	if entries, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}
