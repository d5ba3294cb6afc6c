// Package transcoder implements the transcode module.
//
// Videos are re-encoded for the web with a two-pass libvpx-vp9 encode at a
// fixed 1000K video bitrate and 64k Opus audio into a WebM container. The
// output is written to a temporary sibling and moved into
// <root>/videos/<hash[0:2]>/<hash>.webm only after both passes succeed.
//
// FFmpeg must be installed; its path is configurable. Command construction
// (PassArgs) is separate from execution (Runner) so the argument lists can
// be tested without an encoder.
package transcoder
