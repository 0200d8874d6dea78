// Package unit provides execution units and the pool that owns them.
//
// An execution unit is a goroutine with a single-slot inbox. It runs the
// configured kernel for one task at a time and reports exactly one result per
// task through the reporter it was created with. Units are created lazily by
// the pool up to a fixed limit and are never destroyed during normal
// operation.
package unit
