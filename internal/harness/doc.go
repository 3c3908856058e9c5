// Package harness runs YAML scenarios against the normalizing reducer.
//
// A scenario names a CUE schema file, a list of commands in their
// denormalized form, and assertions over the state after the last command:
//
//	name: remove_with_children
//	schemas: schemas/parent.cue
//	steps:
//	  - op: add
//	    schema: parent
//	    data: [{id: "1", childs: [{id: "1"}, {id: "2"}]}]
//	  - op: remove
//	    schema: parent
//	    id: "1"
//	    remove_children: {child: childs}
//	assertions:
//	  - type: entity_absent
//	    schema: child
//	    id: "1"
//
// Steps run through an engine with a deterministic clock and id generator,
// so the trace and final state of a run are reproducible and can be
// compared against golden files. After the steps the engine journal is
// replayed and must reach the same state hash.
//
// # Assertion Types
//
//   - entity_exists, entity_absent: a record is or is not stored
//   - entity_fields: a stored record contains the given fields (subset match)
//   - result: the result ids equal the given list
//   - relation: a record property references exactly the given ids, in order
//   - denormalized: the denormalized record contains the given value (subset match)
//   - count: number of records stored under a schema key
package harness
