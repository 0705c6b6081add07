// Package prospect is a business-research CRM with rich-text notes and
// OneDrive file storage.
//
// The application tracks companies through a research pipeline together
// with the people, notes, documents, tasks and press mentions attached to
// them. Notes are structured block documents with inline styling and
// embedded entities, serialized to JSON for storage and projected to HTML
// for reading. Documents live in the owning user's OneDrive through the
// Microsoft Graph API; the store keeps only metadata.
//
// # Architecture Overview
//
// The module is organized under pkg/:
//
//   - pkg/prospect: application wiring, configuration and HTTP handlers
//   - pkg/models: domain entities and typed UUID identifiers
//   - pkg/store: the persistence interface with three interchangeable
//     backends (SurrealDB, PostgreSQL via GORM, in-memory)
//   - pkg/content: the block document model, editor operations, JSON codec
//     and HTML renderer
//   - pkg/drive: the Microsoft Graph OneDrive client with token refresh
//   - pkg/client: a typed Go client for the REST API
//   - pkg/prospecttesting: virtual users for end-to-end and load testing
//
// Every record belongs to exactly one user. The store enforces owner
// scoping: records of other users are indistinguishable from records that
// do not exist, on every operation.
//
// # Running
//
//	prospect migrate                # apply schema migrations
//	prospect run                    # serve with PostgreSQL
//	prospect -store surrealdb run   # serve with SurrealDB
//	prospect -store memory run      # ephemeral in-memory store
package prospect
