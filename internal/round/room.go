package round

import (
	"context"
	"errors"
	"fmt"
	"strings"

	roomDb "github.com/bloops-games/wordrounds/internal/database/room/database"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	"github.com/bloops-games/wordrounds/internal/logging"
	"github.com/bloops-games/wordrounds/internal/strpool"
	"github.com/valyala/fastrand"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 5
	codeAttempts = 10
)

var ErrNoFreeCode = fmt.Errorf("no free room code")

func generateCode() string {
	return strpool.Build(func(b *strings.Builder) {
		for i := 0; i < codeLength; i++ {
			b.WriteByte(codeAlphabet[fastrand.Uint32n(uint32(len(codeAlphabet)))])
		}
	})
}

// CreateRoom stores a new lobby room hosted by hostID under a fresh code.
func (s *Scheduler) CreateRoom(ctx context.Context, hostID string, settings Settings) (roomModel.Room, error) {
	logger := logging.FromContext(ctx).Named("round.CreateRoom")

	now := s.now()
	room := roomModel.Room{
		HostID:       hostID,
		Players:      []string{hostID},
		CreatedAt:    now,
		LastActiveAt: now,
	}
	settings.apply(&room, s.config)

	for i := 0; i < codeAttempts; i++ {
		room.Code = generateCode()
		err := s.rooms.Create(room)
		if err == nil {
			s.registry.Get(room.Code)
			logger.Infof("room %s created by %s", room.Code, hostID)
			return room, nil
		}

		if !errors.Is(err, roomDb.ErrCodeTaken) {
			return room, fmt.Errorf("create room: %w", err)
		}
	}

	return room, ErrNoFreeCode
}
