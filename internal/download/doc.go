// Package download resolves the user-supplied source into a local video file.
//
// Sources fall into three groups:
//   - existing local files (or file:// URLs), used in place and never deleted
//   - http(s) links that end in a media extension, streamed straight to disk
//     with a size cap
//   - every other http(s) URL, handed to yt-dlp with the configured format
//     (bestvideo+bestaudio/best merged to mp4 by default)
//
// Validation problems carry services.ErrValidation, tool failures
// services.ErrExternalTool, and missing output services.ErrNotFound.
package download
