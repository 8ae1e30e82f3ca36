// Package redis connects to Redis with retries and exposes a readiness probe.
//
// The session registry uses the returned client as its shared store when
// SESSION_STORE=redis:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	ready := redis.Healthcheck(client)
package redis
