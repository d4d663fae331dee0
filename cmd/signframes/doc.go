// Package main hosts the signframes CLI.
//
// The Cobra command tree runs the frames HTTP API in the foreground, renders
// one-off timelines for inspection, manages the optional clip cache, and
// scaffolds configuration. Commands share a lazily loaded config so flags and
// environment fallbacks resolve the same way everywhere.
package main
