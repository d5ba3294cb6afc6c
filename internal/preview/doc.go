// Package preview implements the preview module.
//
// Each file gets two JPEG previews stored by content hash: a large one that
// fits a 2000 pixel box and a small one that fits a 200 pixel box. Images
// are never upscaled. The small tier of an image is derived from the encoded
// large tier; video previews come from the first readable frame.
package preview
