// Package services defines shared utilities consumed by the frame pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation IDs and the grammar token
//     being resolved so log lines can be tied back to a request.
//   - Structured error markers, the UpstreamError type, and the Wrap helper.
//     HTTPStatus turns any of them into the status code the API answers with.
//
// Use these helpers when wiring new pipeline code so error classification and
// observability stay uniform across the service.
package services
