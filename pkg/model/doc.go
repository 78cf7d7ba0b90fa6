// Package model describes the base objects manipulated by ctxmon.
//
// The object model for ctxmon is composed of:
//
//  Entities:
//    Context metadata about data warehouses. The set of entity kinds is closed:
//    table contexts, column contexts, metrics and concepts. Each kind has a stable
//    identity key derived from its fields.
//
//  Content:
//    A full snapshot of every entity in a lineage, as four lists (one per kind).
//
//  Revisions:
//    An immutable, parent-linked snapshot of the content. This is analogous to a commit in git,
//    except that a revision has at most one parent: histories are simple chains.
//
//  Branches:
//    A named, mutable pointer to a revision. The "main" branch always exists.
package model
