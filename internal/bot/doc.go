// Package bot wires the Telegram client to the audio pipeline: it watches
// incoming updates for audio attachments, runs download, optional trim,
// and transcode for each one, and replies with the result as a voice
// message.
package bot
