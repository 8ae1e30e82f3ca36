// Package ratelimit throttles events per string key with a token bucket from
// golang.org/x/time/rate. Idle keys are evicted periodically so the key set
// stays bounded by the number of recently active clients.
//
//	lim, err := ratelimit.New(1, 5)
//	if err != nil {
//		return err
//	}
//	if res := lim.Allow("login:" + ip); !res.Allowed {
//		// reject, retry after res.RetryAfter
//	}
//
// A nil *Keyed allows everything, which is how throttling is disabled.
package ratelimit
