// Package http serves duplo pools over HTTP.
//
// Each pool is mounted under its own prefix. For a pool named "transient":
//
//	GET  /transient/            listing (HTML, or JSON with Accept: application/json)
//	GET  /transient/{file}      download
//	POST /transient/upload/     multipart upload, one or more file parts
//	POST /transient/shareText/  form fields "title" and "body"
//	POST /transient/remove/     form field "fileName"
//	GET  /transient/events/     recent journal entries as JSON
//
// Outside the pools the router serves "/" (redirect to the default pool),
// "/res/*" (embedded stylesheet and script), "/healthz" and, when configured,
// a metrics endpoint.
//
// # Uploads
//
// Multipart bodies are read part by part with (*http.Request).MultipartReader
// and each part is handed to the pool as a stream; nothing is buffered in
// memory or spooled to temporary files. Part filenames are taken verbatim from
// Content-Disposition so a name like "../x" is rejected rather than silently
// reduced to "x".
//
// A successful action answers 204 No Content. Clients sending
// Accept: application/json receive the stored files instead.
//
// # Errors
//
// Errors are JSON objects with "error" and "message" fields. Quota failures
// answer 413; a truncated upload is reported the same way, with the stored
// partial name in the message.
package http
