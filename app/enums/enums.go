// Package enums provides type-safe enumeration types shared by the backup service and its storage.
//
// The enum types are defined as unexported integer types (e.g., jobStatus int) in this file,
// and the go:generate directives invoke the go-pkgz/enum generator to create corresponding exported
// types in separate files (*_enum.go) with String, Parse, Scan/Value and text marshaling methods.
//
// Usage:
//
//	status := enums.JobStatusRunning
//	fmt.Println(status.String()) // "running"
//
//	parsed, err := enums.ParseJobStatus("failed")
//
// To regenerate the enum types after modifications:
//
//	go generate ./app/enums
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type jobStatus -lower

// jobStatus represents the state of a single robot backup job.
// Transitions are pending -> running -> succeeded|failed, terminal states are final.
type jobStatus int

const (
	jobStatusPending jobStatus = iota
	jobStatusRunning
	jobStatusSucceeded
	jobStatusFailed
)
