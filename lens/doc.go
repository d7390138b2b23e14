// Package lens provides partial, named-field views over struct values.
//
// A Lens[T] maps some of T's field names to values. It is produced from a
// live instance (FromInstance), from a plain map (New), from a property map
// (FromProperties), by decoding (JSON, YAML), or by combining other lenses
// (Diff, Merge, Without). It is consumed by Apply, which returns an updated
// copy of an existing instance, and by Create, which builds a new one.
//
// Which fields take part is decided once per type by the field table: a
// field must be exported and visible under its json tag. Nested struct
// fields (and pointers to them) are recursed into, so a lens for a nested
// field is itself a partial update.
//
//	type Address struct {
//		City string `json:"city"`
//	}
//
//	type User struct {
//		Name    string   `json:"name"`
//		Address *Address `json:"address"`
//	}
//
//	before, _ := lens.FromInstance(old)
//	after, _ := lens.FromInstance(cur)
//	update := lens.Diff(after, before)
//	data, _ := json.Marshal(update) // {"address":{"city":"Oslo"}}
//
// Field tags:
//
//	json:"name"            wire name; json:"-" excludes the field
//	lens:"-"               excludes the field
//	lens:",optional"       Create may omit the field (zero value)
//	lens:",codec=name"     encode with a codec from codec.Register
//	default:"literal"      Create may omit the field (parsed literal)
package lens
