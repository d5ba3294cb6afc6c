// Package media decodes and encodes the pixels fotoboek works with.
//
// Open decodes images with disintegration/imaging (EXIF auto-orientation,
// plus the golang.org/x/image decoders for WebP, BMP and TIFF) and falls back
// to libvips through govips for everything else, HEIC included. libvips must
// be started once with InitVips; without it the fallback reports an error.
//
// FirstFrame pulls the first decodable frame out of a video with ffmpeg.
// EncodeJPEG produces previews at the fixed JPEGQuality.
package media
