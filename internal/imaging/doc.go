// Package imaging implements the raster side of the loader: bounds-only
// probing, power-of-two sample size selection, reduction into a 16-bit RGB565
// raster, and the JPEG encoding used by the disk tier. Decoders for JPEG, PNG,
// GIF, BMP and WebP are registered on import.
package imaging
