// Package models defines the core domain models for PlatePick.
//
// # Models
//
//   - User: registered account, identified by a UUID
//   - Group: people who eat together; owns events and invites
//   - Restaurant: shared catalog entry, resolved from a places lookup
//   - Rating: one user's overall and nutrition scores for a restaurant
//   - Event: one instance of a group deciding where to eat
//   - Visit: append-only record written when an event's choice is committed
//
// # Design Principles
//
// 1. **ID strings over pointers**: relationships reference IDs, never structs
// 2. **Closed domains**: ratings and price tiers are enumerations; values
//    outside them are rejected, not coerced
// 3. **Unix timestamps**: all times are stored as Unix seconds
package models
