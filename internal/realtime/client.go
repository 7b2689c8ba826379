package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

const outboundBuffer = 32

type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	once     sync.Once
	Logger   *logger.Logger
}
