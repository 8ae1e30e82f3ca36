// Package requestid tags every request with an identifier.
//
// Middleware accepts a well-formed X-Request-ID from the client and otherwise
// generates a UUID. The id is echoed in the response header and stored in the
// request context, where LoggerExtractor picks it up:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r.Use(requestid.Middleware)
package requestid
