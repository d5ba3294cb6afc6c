// Package middleware provides the HTTP middleware of the admin server:
// access logging through the logging package and Prometheus request
// metrics labeled by route template.
package middleware
