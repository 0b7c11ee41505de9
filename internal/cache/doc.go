// Package cache implements the cache-aside read path for tasks and persons.
//
// Entries are keyed task:{id} and person:{id} and hold the JSON form of the
// entity. The store remains the source of truth: an absent entry means
// "consult the store", and a stale entry lives at most one TTL.
package cache
