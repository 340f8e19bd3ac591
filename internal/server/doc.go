// Package server hosts the Fiber HTTP service that fronts the image loader:
// request ID middleware, panic recovery, the /-/image endpoint that waits on a
// loader.Slot and streams the downsampled JPEG, and /-/healthz.
// Cache administration and catalog routes live in server/routes so the
// composition root decides which surfaces to expose.
package server
