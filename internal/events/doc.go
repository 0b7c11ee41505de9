// Package events carries in-process notifications about what the consumer
// has done, so that reactions such as cache invalidation can be attached
// without the consumer knowing about them.
//
// Events are not durable. A handler that misses one relies on the cache
// TTL like any other reader.
package events
