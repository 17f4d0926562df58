package roomstore

import (
	"testing"
	"time"

	"chatgogo/store/internal/models"

	"github.com/stretchr/testify/assert"
)

func chatsAt(ms ...int64) []models.Chat {
	out := make([]models.Chat, 0, len(ms))
	for _, m := range ms {
		out = append(out, models.NewChat(m, models.ChatMessage, 1, ""))
	}
	return out
}

func TestCountNewer(t *testing.T) {
	tests := []struct {
		name        string
		chats       []models.Chat
		since       int64
		wantCount   int
		wantVisited int
	}{
		{"Empty Log", nil, 10, 0, 0},
		{"All Read", chatsAt(1, 2, 3), 3, 0, 1},
		{"Equal Timestamp Counts As Read", chatsAt(1, 5, 5), 5, 0, 1},
		{"Some Unread", chatsAt(1, 2, 3, 4), 2, 2, 3},
		{"All Unread", chatsAt(5, 6, 7), 1, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, visited := countNewer(tt.chats, time.UnixMilli(tt.since))
			assert.Equal(t, tt.wantCount, count)
			assert.Equal(t, tt.wantVisited, visited)
			assert.LessOrEqual(t, visited, len(tt.chats), "scan visits at most len(chats) entries")
		})
	}
}

func TestUnread_NeverRead(t *testing.T) {
	r := &models.Room{Chats: chatsAt(1, 2, 3)}
	assert.Equal(t, 3, Unread(r, 42))
}
