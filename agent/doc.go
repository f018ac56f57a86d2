// Package agent implements the debate pipeline: the ordered table of persona
// descriptors (role, fixed instruction, prompt builder) and the sequential
// Pipeline that drives one model completion per persona, persisting each
// result as an ordered message before the next step runs.
//
// Design principles:
//   - Data-driven configuration: personas are an ordered slice, not a chain
//     of conditionals, so adding or reordering roles is a one-line change
//   - No hidden global state: the model client and store are injected
//   - Strictly sequential execution: each persona's prompt depends on the
//     previous persona's completed output, so no parallelism is possible
//     within one run
package agent
