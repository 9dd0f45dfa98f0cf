// Package correlation contains extensions for the Event Store
// to support correlated events for tracing and debugging purposes.
//
// You can read more about events correlation here:
// https://blog.arkency.com/correlation-id-and-causation-id-in-evented-systems/
package correlation
