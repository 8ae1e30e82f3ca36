// Package api exposes the coordinator over JSON/HTTP.
//
// Every handler binds the request body into a typed struct, calls exactly one
// coordinator operation and renders a Response. Coordinator errors become
// {"error":"<reason>"} with a status derived from their Kind.
//
// The router stacks request ids, client IP resolution, CORS, recovery,
// Prometheus metrics, access logging, an in-flight limit, a per-request
// timeout and a body size limit in front of the routes. /health, /ready and
// /metrics are served outside the limits.
package api
