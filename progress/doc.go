// Package progress defines the counters the dispatcher keeps for every task it
// sees (submitted, queued, running, completed, cancelled, ...) and lets a
// submitter observe them without polling. A UI layer typically registers an
// OnChange callback to refresh a progress bar while a scoring run is active.
package progress
