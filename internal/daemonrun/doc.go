// Package daemonrun wires configuration into a running frames server: the
// translator, the clip store with its breaker and optional cache, frame
// normalization, and the timeline builder, all behind the daemon's HTTP API.
//
// Pipeline construction is shared with the render command so one-shot
// renders exercise exactly what the server does.
package daemonrun
