// Package core defines the shared language of the aidash system.
//
// This package contains:
//   - Dashboard records (AnalyzeResult, Dashboard, Progress)
//   - Conversation records (Chat, Message, Vote, User, MetadataInfo)
//   - Service interfaces (Store)
//   - Datasource connection types (AdapterConfig, TableMetadata, Rows)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
