// Package logger builds the service's *slog.Logger.
//
// New applies functional options on top of JSON/info defaults and wraps the
// chosen slog handler with a decorator that pulls attributes out of the
// request context (the request id, for instance) on every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "sheetpool"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "workbook loaded",
//	    logger.Slot(slot),
//	    logger.Session(token),
//	    logger.Path(path),
//	)
//
// Attribute helpers in attr.go keep key names consistent across packages.
// Error and Session return an empty attribute for empty input, so they can be
// passed unconditionally.
package logger
