// Package command contains types and interfaces for implementing Command Handlers,
// necessary for producing side effects in your Aggregates and system,
// and implement your Domain's business logic.
package command
