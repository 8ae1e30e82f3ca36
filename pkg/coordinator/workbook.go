package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/sheetpool/pkg/catalog"
	"github.com/dmitrymomot/sheetpool/pkg/docstore"
	"github.com/dmitrymomot/sheetpool/pkg/logger"
	"github.com/dmitrymomot/sheetpool/pkg/slotpool"
	"github.com/dmitrymomot/sheetpool/pkg/value"
)

// LoadWorkbook opens version of owner/name in the caller's slot and returns
// the version opened. An empty owner means the caller; version 0 means latest.
func (c *Coordinator) LoadWorkbook(ctx context.Context, token, owner, name string, version int) (int, error) {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return 0, err
	}
	app, err := c.findApp(ctx, caller, owner, name)
	if err != nil {
		return 0, err
	}
	if !c.policy.CanAccess(caller, app) {
		return 0, fail(KindForbidden, reasonForbidden, nil)
	}
	if version <= 0 {
		version = app.LatestVersion
	}
	if err := c.open(ctx, token, caller, app, version); err != nil {
		return 0, err
	}
	return version, nil
}

func (c *Coordinator) open(ctx context.Context, token string, caller catalog.User, app catalog.App, version int) error {
	path, err := c.library.WorkbookPath(ctx, app.Owner, app.Name, version)
	if errors.Is(err, docstore.ErrNotFound) {
		return fail(KindNotFound, reasonFileNotFound, err)
	}
	if err != nil {
		return fail(KindInternal, reasonStorage, err)
	}

	start := time.Now()
	slot, err := c.pool.Load(ctx, token, caller.Name, path)
	if err != nil {
		c.log.WarnContext(ctx, "workbook load failed",
			logger.Identity(caller.Name), logger.App(app.Owner, app.Name), logger.Error(err))
		return poolError(err)
	}
	c.log.InfoContext(ctx, "workbook loaded",
		logger.Identity(caller.Name), logger.App(app.Owner, app.Name), logger.Slot(slot), logger.Duration(time.Since(start)))
	return nil
}

// Query reads addr on sheet from the caller's open workbook.
func (c *Coordinator) Query(ctx context.Context, token, sheet, addr string) (value.Value, error) {
	if _, err := c.authenticate(ctx, token); err != nil {
		return value.Value{}, err
	}
	if sheet == "" || addr == "" {
		return value.Value{}, fail(KindBadRequest, reasonSheetRangeRequired, nil)
	}
	v, err := c.pool.ReadRange(ctx, token, sheet, addr)
	if err != nil {
		return value.Value{}, poolError(err)
	}
	return v, nil
}

// Set writes the payload value into addr on sheet.
func (c *Coordinator) Set(ctx context.Context, token, sheet, addr string, payload value.Payload) error {
	if _, err := c.authenticate(ctx, token); err != nil {
		return err
	}
	if sheet == "" || addr == "" {
		return fail(KindBadRequest, reasonSheetRangeRequired, nil)
	}
	v, err := value.FromPayload(payload)
	if err != nil {
		return fail(KindMissingValue, reasonValueRequired, err)
	}
	if err := c.pool.WriteRange(ctx, token, sheet, addr, v); err != nil {
		return poolError(err)
	}
	return nil
}

// Sheets lists the sheet names of a workbook. With an empty name it reads the
// caller's open workbook; otherwise it first loads the latest version of
// owner/name into the caller's slot.
func (c *Coordinator) Sheets(ctx context.Context, token, owner, name string) ([]string, error) {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if name != "" {
		app, err := c.findApp(ctx, caller, owner, name)
		if err != nil {
			return nil, err
		}
		if !c.policy.CanAccess(caller, app) {
			return nil, fail(KindForbidden, reasonForbidden, nil)
		}
		if err := c.open(ctx, token, caller, app, app.LatestVersion); err != nil {
			return nil, err
		}
	}
	names, err := c.pool.SheetNames(ctx, token)
	if err != nil {
		return nil, poolError(err)
	}
	return names, nil
}

// Close releases the caller's slot, restarting its engine instance when
// restart is set.
func (c *Coordinator) Close(ctx context.Context, token string, restart bool) error {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return err
	}
	if err := c.pool.Release(ctx, token, restart); err != nil {
		return poolError(err)
	}
	c.log.InfoContext(ctx, "session closed", logger.Identity(caller.Name))
	return nil
}

// PoolStatus describes the pool for administrators.
type PoolStatus struct {
	slotpool.Stats
	Slots []slotpool.SlotInfo `json:"slots"`
}

func (c *Coordinator) PoolStatus(ctx context.Context, token string) (PoolStatus, error) {
	caller, err := c.authenticate(ctx, token)
	if err != nil {
		return PoolStatus{}, err
	}
	if err := c.requireAdmin(caller); err != nil {
		return PoolStatus{}, err
	}
	return PoolStatus{Stats: c.pool.Stats(), Slots: c.pool.Snapshot()}, nil
}
