// Package fetch downloads images over HTTP and decodes them in two passes:
// the first request only reads the header to learn the dimensions, the second
// re-opens the stream and decodes at the computed power-of-two reduction into
// an RGB565 raster. Failures are reported as *Error with a Kind so callers can
// tell network problems from undecodable payloads.
package fetch
