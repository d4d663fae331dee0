// Package clipstore retrieves raw clip bytes.
//
// HTTPStore reads <base>/<token>.gif behind a circuit breaker so a failing
// clip store costs one fast failure per token instead of a full timeout.
// Cache keeps fetched clips, and tokens known to be missing, in SQLite;
// CachedSource layers it over any Source.
package clipstore
