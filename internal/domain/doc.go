// Package domain contains the core business entities of the task manager:
// users, tasks, the task status lifecycle, and the validation rules that
// govern them. It has no dependencies on storage, transport, or delivery
// concerns.
package domain
