// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/neurohub/internal/app/features/errors"
	"github.com/dalemusser/neurohub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Handler serves the admin activity page: the audit trail of sign-ins and
// catalog changes.
type Handler struct {
	Store  *audit.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs the activity handler over the audit store.
func NewHandler(store *audit.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		Log:    logger,
		ErrLog: errLog,
	}
}
