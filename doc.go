// Package respcache caches HTTP responses in front of net/http handlers.
//
// A Cache owns exactly one backend (in-process, redis or memcached) chosen by
// EngineConfig and hands out middleware for three policies:
//
//   - Forever: GET/HEAD responses are stored with no expiry.
//   - Duration(ttl): GET/HEAD responses are stored for ttl.
//   - ResetOnMutate(indicator): a POST/PUT/PATCH/DELETE whose JSON response
//     carries the indicator field deletes the stored response of the same URL.
//
// Keys:
//
//	<namespace>:<escaped path>[?<raw query>]
//
// The method is not part of the key, so a mutation on /users addresses the
// entry a GET on /users stored.
//
// Caching never fails a request. Backend errors read as misses, failed writes
// and deletes are dropped, and both are reported through Logger and Hooks.
//
// Usage with chi:
//
//	c, err := respcache.New(respcache.Options{
//	    Engine: respcache.EngineConfig{Name: respcache.EngineMemory},
//	})
//	if err != nil { ... }
//	defer c.Close(context.Background())
//
//	r := chi.NewRouter()
//	r.With(c.Duration(30 * time.Second)).Get("/users", listUsers)
//	r.With(c.ResetOnMutate(respcache.Indicator{Key: "success", Value: true})).Put("/users", updateUsers)
package respcache
