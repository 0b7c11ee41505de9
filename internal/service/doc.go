// Package service contains the task use cases. It validates requests,
// routes creates through the queue, performs edits and deletes directly
// against the store, and keeps the read cache honest on every write.
//
// The service depends on store interfaces, a cache-aside reader and a
// command publisher, never on their infrastructure.
package service
