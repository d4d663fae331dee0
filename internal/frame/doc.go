// Package frame converts decoded animation frames into the wire form the API
// returns: a fixed-height, aspect-preserving JPEG encoded as base64.
package frame
