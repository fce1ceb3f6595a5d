// Package handler defines the uniform query contract every backend kind
// implements (relational engines, a document store, embedded SQLite, and
// REST APIs), and the Registry that lazily constructs a Handler from a
// ConnectionConfig. Concrete kinds live in sibling subpackages (mysqlh,
// postgresh, sqliteh, mongoh, kosis, restapi) and register their
// constructors with a Registry at process start.
package handler
