// Package timecode extracts an optional start/end trim range from free-form
// message text. Both numbers are interpreted as raw seconds, not
// minutes:seconds.
package timecode
