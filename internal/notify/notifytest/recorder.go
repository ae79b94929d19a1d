// Package notifytest provides an in-memory notifier for tests.
package notifytest

import (
	"sync"

	"github.com/bloops-games/wordrounds/internal/notify"
)

// Message is one recorded delivery. PlayerID is empty for broadcasts.
type Message struct {
	RoomCode string
	PlayerID string
	Event    string
	Payload  interface{}
}

var _ notify.Notifier = (*Recorder)(nil)

// Recorder keeps every notification in memory.
type Recorder struct {
	mtx      sync.Mutex
	messages []Message
}

func (r *Recorder) Broadcast(roomCode, event string, payload interface{}) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.messages = append(r.messages, Message{RoomCode: roomCode, Event: event, Payload: payload})
}

func (r *Recorder) Send(roomCode, playerID, event string, payload interface{}) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.messages = append(r.messages, Message{RoomCode: roomCode, PlayerID: playerID, Event: event, Payload: payload})
}

func (r *Recorder) Messages() []Message {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	list := make([]Message, len(r.messages))
	copy(list, r.messages)
	return list
}

// Events returns the recorded messages with the given event name.
func (r *Recorder) Events(event string) []Message {
	var list []Message
	for _, m := range r.Messages() {
		if m.Event == event {
			list = append(list, m)
		}
	}

	return list
}

func (r *Recorder) Count(event string) int {
	return len(r.Events(event))
}
