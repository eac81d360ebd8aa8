// Package product defines the JSON documents exchanged with the content agents
// and validates them against their JSON Schemas.
//
// Invariants:
// - Every document kind has exactly one schema, compiled once.
// - A document that fails validation is reported with all schema violations.
//
// Usage:
//
//	raw, _ := product.LoadRaw("serum.yaml")
//	data, _ := json.Marshal(raw)
//	if err := product.Validate(product.KindRaw, data); err != nil {
//		return err
//	}
package product
