// Package coordinator turns authenticated requests into calls on the slot
// pool, the session registry, the catalog and the document library.
//
// Every document operation resolves the bearer token to a catalog user,
// checks the access policy and then makes exactly one pool call with the
// token as the pool session id. Failures come back as *Error carrying a Kind
// (which the HTTP layer maps to a status code) and a short reason that never
// includes internal error text.
//
// Logging out and releasing a slot are independent: Logout only forgets the
// token, Close only frees the slot.
package coordinator
