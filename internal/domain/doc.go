// Package domain contains the core business entities, Task and Person, and
// the validation rules that belong to them. It is independent of the store,
// the cache and the broker.
package domain
