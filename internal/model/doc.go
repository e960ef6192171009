// Package model defines the data types shared by the REST client and the
// stream router.
//
// Conventions:
//   - Money and quantities on trading resources: decimal.Decimal (wire strings)
//   - Market data prices and sizes: float64 (wire numbers)
//   - Timestamps: time.Time (RFC 3339); date-only fields stay strings ("2024-01-15")
//   - IDs: uuid.UUID where the API guarantees a UUID, string otherwise
package model
