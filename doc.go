// Package roleseer looks up servers by role.
//
// A role document maps role names to servers, each server carrying an
// arbitrary set of attributes. The document lives on a backing store (local
// file, HTTP endpoint, git repository, GCS or S3 object) and is mirrored in
// memory by a LiveMap, which re-reads the store when its snapshot goes stale.
//
// Reloads are best-effort: a missing or malformed document is logged and the
// previous snapshot is kept, so readers only ever observe complete, valid
// data. Staleness is bounded by the reload interval, either checked inline on
// access (the default) or driven by a Scheduler at a fixed cadence.
//
// A Seer wraps a LiveMap over the role document and answers "give me one
// server for this role" by uniform random selection among the role's servers.
package roleseer
