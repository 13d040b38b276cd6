// Package transcode converts downloaded audio into the voice-message format
// (Opus in an Ogg container, mono, low bitrate) by invoking the external
// ffmpeg binary, optionally trimming to a caller-supplied second range.
package transcode
