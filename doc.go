/*
Package ctxmon provides branch-based version control for context metadata.

Context metadata describes data warehouses for the people and agents who query them:
table and column descriptions, business metrics and business concepts.

Changes are proposed on isolated branches, reviewed as a diff against the shared "main"
branch, then fast-forwarded onto it. Revisions are immutable full snapshots, each with
at most one parent.

The engine lives in pkg/core, persistence in pkg/store, and the ctxmon CLI in cmd/ctxmon.
*/
package ctxmon
