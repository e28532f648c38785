package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/blnkfinance/auditsync/internal/gateway"
)

// MockTracker is a mock implementation of the gateway.Tracker interface
type MockTracker struct {
	mock.Mock
}

var _ gateway.Tracker = (*MockTracker)(nil)

func (m *MockTracker) CreateIssue(ctx context.Context, draft gateway.IssueDraft) (int64, error) {
	args := m.Called(ctx, draft)
	id, _ := args.Get(0).(int64)
	return id, args.Error(1)
}

func (m *MockTracker) GetIssue(ctx context.Context, id int64) (*gateway.Issue, error) {
	args := m.Called(ctx, id)
	issue, _ := args.Get(0).(*gateway.Issue)
	return issue, args.Error(1)
}

func (m *MockTracker) GetComments(ctx context.Context, id int64) ([]gateway.RawComment, error) {
	args := m.Called(ctx, id)
	comments, _ := args.Get(0).([]gateway.RawComment)
	return comments, args.Error(1)
}

func (m *MockTracker) ListIssues(ctx context.Context, q gateway.ListQuery) ([]gateway.Issue, error) {
	args := m.Called(ctx, q)
	issues, _ := args.Get(0).([]gateway.Issue)
	return issues, args.Error(1)
}

func (m *MockTracker) ListAllIssues(ctx context.Context, q gateway.ListQuery) ([]gateway.Issue, error) {
	args := m.Called(ctx, q)
	issues, _ := args.Get(0).([]gateway.Issue)
	return issues, args.Error(1)
}

func (m *MockTracker) UpdateIssueStatus(ctx context.Context, id int64, statusID int) (*gateway.Issue, error) {
	args := m.Called(ctx, id, statusID)
	issue, _ := args.Get(0).(*gateway.Issue)
	return issue, args.Error(1)
}

func (m *MockTracker) AddComment(ctx context.Context, id int64, text string) (bool, error) {
	args := m.Called(ctx, id, text)
	return args.Bool(0), args.Error(1)
}

func (m *MockTracker) SetCoordinates(ctx context.Context, id int64, lat, lon float64) error {
	args := m.Called(ctx, id, lat, lon)
	return args.Error(0)
}
