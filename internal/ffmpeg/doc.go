// Package ffmpeg probes clip durations with ffprobe and stitches clips into
// one film with ffmpeg.
//
// The concat graph gives every input a fade-in at its start and a fade-out
// ending at its last frame, resets its timestamps, and joins the inputs in
// order with the concat filter. Audio is dropped.
//
// Files:
//   - probe.go: ffprobe JSON parsing
//   - builder.go: filter graph and argument construction
//   - executor.go: process execution with stderr capture
package ffmpeg
