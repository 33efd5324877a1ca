// Package datasethoster is a hosting layer for parameterized dataset
// queries: pluggable units that accept typed input records and produce an
// ordered sequence of typed, possibly heterogeneous, output records.
//
// A host application implements the Query interface for each dataset it
// wants to expose, registers the queries in a Registry at startup, and
// mounts a hosterhttp.Handler to serve them. Every registered query gets a
// browsable web page at /<slug> and a machine interface at /<slug>/json.
//
// Layering rationale:
//
//	record      --> declares *what* a query accepts and yields (schemas
//	                derived from ordinary structs) and binds raw request
//	                data into typed records.
//	Registry    --> resolves a URL slug to a registered Query. Built once
//	                at startup and injected into the handler so tests can
//	                construct isolated registries.
//	GroupResults--> reshapes a query's heterogeneous output stream into
//	                contiguous uniform blocks for presentation.
//	hosterhttp  --> the HTTP surface (separate package).
package datasethoster
