// Package store defines the persistence interfaces and sentinel errors used
// by the rest of the application. Concrete implementations live under
// internal/platform.
package store
