package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"dynroute53/internal/auth"
	"dynroute53/internal/model"
)

const auditPageSize = 50

// Auditor records who changed what.  A failed audit write is logged and
// does not undo the change it describes.
type Auditor struct {
	repo AuditRepository
	log  *zap.SugaredLogger
}

func NewAuditor(repo AuditRepository, log *zap.SugaredLogger) *Auditor {
	return &Auditor{repo: repo, log: log}
}

func (a *Auditor) Record(ctx context.Context, action, entity string, entityID any, detail string) {
	c := auth.CallerFrom(ctx)
	entry := model.AuditEntry{
		Username:  c.Username,
		Action:    action,
		Entity:    entity,
		EntityID:  fmt.Sprint(entityID),
		Detail:    detail,
		IPAddress: c.IP,
	}
	if err := a.repo.LogAudit(ctx, entry); err != nil {
		a.log.Warnw("audit write failed", "action", action, "entity", entity, "entity_id", entry.EntityID, "err", err)
	}
}

// Page returns one page of entries, newest first, plus the total count.
func (a *Auditor) Page(ctx context.Context, page int) ([]model.AuditEntry, int, error) {
	if page < 1 {
		page = 1
	}
	// Pages past math.MaxInt entries are empty; the offset saturates.
	offset := math.MaxInt
	if page-1 <= math.MaxInt/auditPageSize {
		offset = (page - 1) * auditPageSize
	}
	return a.repo.ListAuditLog(ctx, auditPageSize, offset)
}

func (a *Auditor) PageSize() int { return auditPageSize }
