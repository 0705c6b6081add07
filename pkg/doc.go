// Package pkg contains all the sub-packages for the prospect application.
//
// # Application Layer
//
// [github.com/prospectcrm/prospect/pkg/prospect] holds the application
// wiring: configuration, command parsing, the HTTP route table and all
// request handlers. Extend this package when adding commands or endpoints.
//
// # Domain Layer
//
// [github.com/prospectcrm/prospect/pkg/models] defines the record kinds
// (businesses, contacts, notes, documents, tasks, news articles) and their
// typed UUID identifiers.
//
// [github.com/prospectcrm/prospect/pkg/content] implements the rich-text
// block document model: editor operations, the JSON serialization codec and
// the HTML render projection.
//
// # Infrastructure Layer
//
// [github.com/prospectcrm/prospect/pkg/store] declares the persistence
// interface; its sub-packages provide the SurrealDB, PostgreSQL and
// in-memory backends.
//
// [github.com/prospectcrm/prospect/pkg/drive] is the Microsoft Graph client
// backing OneDrive document storage and note mirroring.
//
// # Access and Testing
//
// [github.com/prospectcrm/prospect/pkg/client] is the typed REST client
// used by integrations and by the test suites.
//
// [github.com/prospectcrm/prospect/pkg/prospecttesting] provides virtual
// users that drive realistic workloads through the client.
package pkg
