// Package queue holds submissions that found no idle execution unit. It is a
// pure overflow FIFO: entries leave in submission order and nothing is ever
// reordered ahead of an earlier entry.
package queue
