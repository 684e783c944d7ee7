// Package flow reconstructs structured control flow from the basic blocks of a
// bytecode method.
//
// Every reachable basic block starts as a FlowBlock holding a small tree of
// structured blocks and a set of pending jumps. Exception handlers are turned
// into try, catch, finally and synchronized blocks first, innermost range
// first. The reduction then merges regions with two transformations:
//
//	T1: a successor whose only predecessor is the region is appended to it.
//	T2: a region that jumps back to itself becomes a while(true) loop.
//
// Before each merge the jumps to the successor are rewritten into if/else,
// loop conditions, break and continue statements. Whatever cannot be expressed
// that way breaks out of a do { ... } while (false) block. A method whose
// graph is reducible ends as a single region without pending jumps.
package flow
