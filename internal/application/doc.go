// Package application wires the plate calculator, the session history store,
// the HTTP handlers and the server together, keeping the main package focused
// on CLI parsing and orchestration.
package application
