// Package storetest contains the conformance suites every Event Store
// and Snapshot Store implementation is tested against.
package storetest
