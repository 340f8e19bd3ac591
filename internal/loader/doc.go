// Package loader coordinates image loads for render targets.
//
// A load first tags the target with the URL it now wants and shows the
// placeholder, then tries the memory tier synchronously. Misses go to a fixed
// worker pool which tries the disk tier and finally the network. Results are
// handed to a single apply goroutine that re-checks the target's wanted URL
// before touching it: a target that has moved on to another URL never sees
// the late result. There is no task cancellation beyond that check.
//
// All target mutations (tagging, placeholder, memory-hit bind, delivery) run
// under one lock, so a RenderTarget implementation only needs to be safe for
// the readers it has outside the loader. Target methods must not call back
// into the Loader.
package loader
