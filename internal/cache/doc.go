// Package cache holds the two tiers of the image cache. MemoryCache keeps
// decoded rasters plus the key -> last-write timestamp index for the process
// lifetime; DiskCache persists one JPEG file per key under a dedicated
// directory (temp file + rename) and recovers timestamps from file mtimes after
// a restart. Validity decides whether a timestamp is still inside the TTL
// window. Nothing here evicts: stale entries are misses until overwritten or
// until Clear wipes the tier.
package cache
