// Package server exposes the brainstormer API over HTTP. It decodes request
// bodies into runner inputs, maps domain errors onto status codes, and
// serializes stored entities as JSON responses.
package server
