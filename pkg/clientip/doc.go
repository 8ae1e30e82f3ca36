// Package clientip resolves the address of the client behind a request.
//
// Forwarding headers (X-Forwarded-For, X-Real-IP) are only honoured when the
// service is configured to sit behind a trusted proxy; otherwise the
// connection's remote address is used so clients cannot pick their own key
// for per-client throttling.
package clientip
