// Package logging builds the zap logger shared by every component and
// redacts credentials from connection strings and driver errors.
package logging
