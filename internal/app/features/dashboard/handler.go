// internal/app/features/dashboard/handler.go
package dashboard

import (
	"github.com/dalemusser/neurohub/internal/app/system/apisession"
	"go.uber.org/zap"
)

// DefaultRecentLimit is how many recently updated records the home tab lists.
const DefaultRecentLimit = 7

type Handler struct {
	Gate        *apisession.Gate
	RecentLimit int
	Log         *zap.Logger
}

func NewHandler(gate *apisession.Gate, recentLimit int, logger *zap.Logger) *Handler {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	return &Handler{
		Gate:        gate,
		RecentLimit: recentLimit,
		Log:         logger,
	}
}
