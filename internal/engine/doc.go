// Package engine runs flows. A run resolves a flow definition through the
// catalog, invokes its tasks in declared order with the context accumulated
// so far, records every step, and synthesizes a final answer and summary
// metadata from the recorded steps
package engine
