// Package attractor detects when a conversation has settled into a repeating
// structural template, independent of content. Each message is reduced to a
// signature string of per-line structural tags; the detector then looks for
// exact-repeat or period-2 alternating signature patterns over a trailing
// window and names them against a registry of known degenerate shapes.
package attractor
