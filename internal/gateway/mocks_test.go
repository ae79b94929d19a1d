package gateway

import (
	"context"

	categoryModel "github.com/bloops-games/wordrounds/internal/database/category/model"
	gameModel "github.com/bloops-games/wordrounds/internal/database/game/model"
	reviewModel "github.com/bloops-games/wordrounds/internal/database/review/model"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	"github.com/bloops-games/wordrounds/internal/round"
	"github.com/stretchr/testify/mock"
)

// --- Rounds ---

type MockRounds struct {
	mock.Mock
}

func (m *MockRounds) CreateRoom(ctx context.Context, hostID string, settings round.Settings) (roomModel.Room, error) {
	args := m.Called(ctx, hostID, settings)
	return args.Get(0).(roomModel.Room), args.Error(1)
}

func (m *MockRounds) Join(ctx context.Context, code, playerID string) (roomModel.Room, error) {
	args := m.Called(ctx, code, playerID)
	return args.Get(0).(roomModel.Room), args.Error(1)
}

func (m *MockRounds) StartGame(ctx context.Context, code, playerID string, settings round.Settings) error {
	args := m.Called(ctx, code, playerID, settings)
	return args.Error(0)
}

func (m *MockRounds) Submit(ctx context.Context, code, playerID string, answers map[string]string, forced bool) (bool, error) {
	args := m.Called(ctx, code, playerID, answers, forced)
	return args.Bool(0), args.Error(1)
}

func (m *MockRounds) StopRound(ctx context.Context, code, playerID string) error {
	args := m.Called(ctx, code, playerID)
	return args.Error(0)
}

func (m *MockRounds) NextRound(ctx context.Context, code, playerID string) error {
	args := m.Called(ctx, code, playerID)
	return args.Error(0)
}

// --- Reviews ---

type MockReviews struct {
	mock.Mock
}

func (m *MockReviews) Propose(ctx context.Context, code, playerID, categoryID, word string) (reviewModel.ReviewWord, error) {
	args := m.Called(ctx, code, playerID, categoryID, word)
	return args.Get(0).(reviewModel.ReviewWord), args.Error(1)
}

func (m *MockReviews) Vote(ctx context.Context, reviewID, voterID string, approve bool) (reviewModel.ReviewWord, error) {
	args := m.Called(ctx, reviewID, voterID, approve)
	return args.Get(0).(reviewModel.ReviewWord), args.Error(1)
}

func (m *MockReviews) Pending(ctx context.Context, code string) ([]reviewModel.ReviewWord, error) {
	args := m.Called(ctx, code)
	return args.Get(0).([]reviewModel.ReviewWord), args.Error(1)
}

// --- Catalog ---

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) FetchAll() ([]categoryModel.Category, error) {
	args := m.Called()
	return args.Get(0).([]categoryModel.Category), args.Error(1)
}

// --- History ---

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) FetchByRoom(roomCode string) ([]gameModel.Game, error) {
	args := m.Called(roomCode)
	return args.Get(0).([]gameModel.Game), args.Error(1)
}
