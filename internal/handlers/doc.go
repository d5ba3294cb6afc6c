// Package handlers implements the read-only admin HTTP surface of fotoboek.
//
// Routes (see [NewRouter]):
//
//	GET  /healthz                     database ping and queue summary
//	GET  /livez                       process liveness
//	GET  /metrics                     Prometheus scrape endpoint
//	GET  /api/version                 build information
//	GET  /api/tasks                   pending tasks, optionally ?fileId=
//	GET  /api/metadata/{id}           file, metadata and pending tasks
//	GET  /api/images/{id}?size=       stored preview (large or small)
//	GET  /api/videos/{id}             transcoded WebM
//	POST /api/admin/scan              register new files below the media root
//
// Previews and videos are content addressed, so they are served with a
// long-lived immutable Cache-Control header.
package handlers
