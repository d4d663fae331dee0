// Package daemon runs the long-lived signframes HTTP server.
//
// It serves POST /get_frames and GET /healthz, wraps every request with a
// correlation id, CORS handling, an optional bearer token, and a request
// deadline, and holds a flock-based lock on the state directory so two
// servers never share one clip cache. Pipeline logic lives in api and below;
// this package only owns startup, shutdown, and HTTP plumbing.
package daemon
