// Package download fetches attachment URLs to local files via streamed
// transfer, without buffering whole payloads in memory.
package download
