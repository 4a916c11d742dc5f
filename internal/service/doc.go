// Package service contains the application services that sit between the
// HTTP handlers and the stores: policy enforcement, task orchestration with
// post-commit broadcast, and user account management.
package service
