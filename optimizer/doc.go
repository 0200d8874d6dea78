// Package optimizer scores relic builds. A Request describes one contiguous
// range of the combination space (one relic per slot); Kernel evaluates that
// range into the task's scratch buffer and returns the best build found.
// Partition splits a search into requests that fit a buffer and Merge reduces
// the partial responses.
//
// Scoring is a weighted sum of relic stats.
package optimizer
