// Package types defines the GuineaPal entity types, the KVStore contract every
// store is built on, storage key layout, and the standard error values.
//
// Entities serialize with camelCase JSON field names so that blobs written by
// earlier versions of the app load without migration.
package types
