/*
Package sanitize converts a live goja value into a bounded, JSON-safe Go
value for the args/result snapshot carried on every TraceEvent.

	s := sanitize.New(sanitize.DefaultConfig())
	snap := s.SnapshotArgs(call.Arguments)

Circular references are broken by tracking objects already on the
current recursion path; depth, string length, array length, and key
count are each capped independently so one oversized argument can't blow
up an event batch. Dates, regexes, errors, promises, and common ORM
query-builder shapes get a canonical placeholder instead of a raw
property walk.
*/
package sanitize
