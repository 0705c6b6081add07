// Package prospect provides the core application logic for the business
// research CRM: configuration parsing, store selection, the REST API and the
// OneDrive integration.
//
// # Getting Started
//
// The application provides a command-line interface for running the server
// and managing migrations. For detailed usage information, see
// [github.com/prospectcrm/prospect/pkg/prospect.Main].
//
// For API endpoint documentation and server configuration, see
// [github.com/prospectcrm/prospect/pkg/prospect.App.Router].
//
// # Prerequisites
//
//   - Go 1.23+
//   - PostgreSQL or SurrealDB for persistent storage (the in-memory store
//     needs nothing)
//   - An Azure app registration when OneDrive features are wanted
//
// # Basic Usage
//
//	# Apply schema migrations, then serve with PostgreSQL
//	prospect migrate
//	prospect run
//
//	# Serve with SurrealDB
//	prospect -store surrealdb run
//
//	# Serve with the in-memory store, data lost on exit
//	prospect -store memory run
//
//	# Different ports
//	prospect -port=8090 run
//	prospect -postgres-port=5438 run
//
// Connection strings and Azure credentials come from the environment; see
// [Main] for the variable list.
package prospect
