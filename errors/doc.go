// Package errors provides the structured error type shared by the graph,
// the scheduler and the HTTP API.
//
// Every error raised synchronously by the pipeline core is an *AppError
// carrying a machine-readable code. Structural graph errors, option
// validation errors and pre-run validation errors are told apart by code,
// and each code maps to an HTTP status for the API layer.
package errors
