// Package annostore holds module-level metadata shared by the library
// and the CLI.
package annostore

// Version is the annostore release version.
const Version = "0.1.0"
