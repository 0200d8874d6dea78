// Package buffer recycles fixed-capacity float64 scratch buffers between
// dispatched tasks. Buffers are never freed once allocated; an idle buffer is
// reset before it is handed to the next task so no data leaks across tasks.
package buffer
