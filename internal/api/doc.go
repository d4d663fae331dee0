// Package api defines the wire types of the frames endpoint and the service
// that fills them: validate, translate, then build the timeline.
package api
