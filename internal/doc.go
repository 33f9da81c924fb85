// Package internal documents the stellar server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, and problem+json rendering
// - domain: moderation, cross-references, query pipelines, favorites
// - store: the document-store interface, its adapters, and the retry gateway
// - auth, cache, config, metrics: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
