// Package internal documents the college events server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: accounts, events, registrations and their workflows
// - storage: Postgres and in-memory repositories, schema migrations
// - jobs: River workers for email delivery and photo compression
// - filestore, email, photos, certificate: attachment and delivery plumbing
// - auth, audit, config, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
