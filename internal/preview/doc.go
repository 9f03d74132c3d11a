// Package preview serves a locally rendered blog, rebuilding it when
// content, layouts, static files or the configuration change and telling
// connected browsers to reload.
package preview
