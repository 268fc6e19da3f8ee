// Package film exports rendered clips of text-to-video runs and stitches
// them into a single film.
//
// Export downloads each successful run's rendered artifact set into
// <save folder>/<run id>/. MakeMovie exports, discovers every .mp4 under the
// exported folders, optionally subsamples them, and encodes them in sequence
// with a fade-in and fade-out on every clip.
package film
