package testutil

import (
	"context"

	"fossils/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockLyricsRepository is a mock implementation of LyricsRepository for testing
type MockLyricsRepository struct {
	mock.Mock
	BackendName string
}

func (m *MockLyricsRepository) List(ctx context.Context) ([]models.LyricsEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LyricsEntry), args.Error(1)
}

func (m *MockLyricsRepository) Get(ctx context.Context, id string) (*models.LyricsEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LyricsEntry), args.Error(1)
}

func (m *MockLyricsRepository) Create(ctx context.Context, entry *models.LyricsEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLyricsRepository) Update(ctx context.Context, id string, patch models.LyricsPatch) (*models.LyricsEntry, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LyricsEntry), args.Error(1)
}

func (m *MockLyricsRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLyricsRepository) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockLyricsRepository) Backend() string {
	if m.BackendName == "" {
		return "mock"
	}
	return m.BackendName
}

// MockLyricsRemote is a mock of the remote lyrics service as seen by the sync coordinator
type MockLyricsRemote struct {
	mock.Mock
}

func (m *MockLyricsRemote) List(ctx context.Context) ([]models.LyricsEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LyricsEntry), args.Error(1)
}

func (m *MockLyricsRemote) Create(ctx context.Context, entry models.LyricsEntry) (*models.LyricsEntry, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LyricsEntry), args.Error(1)
}

func (m *MockLyricsRemote) Update(ctx context.Context, id string, patch models.LyricsPatch) (*models.LyricsEntry, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LyricsEntry), args.Error(1)
}

func (m *MockLyricsRemote) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Helper functions for setting up mock expectations

// ExpectRepositoryList sets up expectation for List
func ExpectRepositoryList(mockRepo *MockLyricsRepository, entries []models.LyricsEntry, err error) {
	mockRepo.On("List", mock.Anything).Return(entries, err)
}

// ExpectRepositoryCreate sets up expectation for Create with any entry
func ExpectRepositoryCreate(mockRepo *MockLyricsRepository, err error) {
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.LyricsEntry")).Return(err)
}

// ExpectRemoteList sets up expectation for the remote List
func ExpectRemoteList(remote *MockLyricsRemote, entries []models.LyricsEntry, err error) {
	remote.On("List", mock.Anything).Return(entries, err)
}
