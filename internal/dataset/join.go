package dataset

import "fmt"

// JoinKind selects relational join semantics.
type JoinKind uint8

const (
	// Inner keeps only receiver rows with at least one match.
	Inner JoinKind = iota + 1
	// Left keeps every receiver row; unmatched rows get null right columns.
	Left
)

func (k JoinKind) String() string {
	switch k {
	case Inner:
		return "inner"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("JoinKind(%d)", k)
	}
}

// Suffixes applied to non-key column names present on both sides of a join.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// Join joins other onto d by equality of the key column.
//
// Output columns are d's columns followed by other's non-key columns. A
// non-key name present on both sides is suffixed with LeftSuffix on the left
// and RightSuffix on the right. Output rows follow d's row order; a receiver
// row with several matches yields one row per match, in other's row order.
// Null keys never match.
//
// Both sides must have the key column with the same declared type; coerce
// with CoerceToString first when sources disagree.
func (d *Dataset) Join(other *Dataset, key string, how JoinKind) (*Dataset, error) {
	if how != Inner && how != Left {
		return nil, &SchemaError{Op: "join", Msg: fmt.Sprintf("unsupported join kind %v", how)}
	}
	lk, ok := d.Column(key)
	if !ok {
		return nil, &SchemaError{Op: "join", Column: key, Msg: "key missing on left side"}
	}
	rk, ok := other.Column(key)
	if !ok {
		return nil, &SchemaError{Op: "join", Column: key, Msg: "key missing on right side"}
	}
	if lk.Type != rk.Type {
		return nil, &SchemaError{Op: "join", Column: key,
			Msg: fmt.Sprintf("key types differ: %s vs %s", lk.Type, rk.Type)}
	}
	if lk.Type.IsList() {
		return nil, &SchemaError{Op: "join", Column: key, Msg: "list columns cannot be join keys"}
	}

	// Index right rows by key text; types are equal so rendering is injective.
	byKey := make(map[string][]int, other.rows)
	for r, v := range rk.Values {
		if v.IsNull() {
			continue
		}
		k := v.Render()
		byKey[k] = append(byKey[k], r)
	}

	var li, ri []int
	for r, v := range lk.Values {
		var matches []int
		if !v.IsNull() {
			matches = byKey[v.Render()]
		}
		if len(matches) == 0 {
			if how == Left {
				li = append(li, r)
				ri = append(ri, -1)
			}
			continue
		}
		for _, m := range matches {
			li = append(li, r)
			ri = append(ri, m)
		}
	}

	overlap := make(map[string]struct{})
	for _, c := range other.cols {
		if c.Name != key && d.Has(c.Name) {
			overlap[c.Name] = struct{}{}
		}
	}

	left := d.take(li)
	right := other.take(ri)

	cols := make([]Column, 0, len(left.cols)+len(right.cols)-1)
	seen := make(map[string]struct{}, cap(cols))
	add := func(c Column) error {
		if _, dup := seen[c.Name]; dup {
			return &SchemaError{Op: "join", Column: c.Name, Msg: "suffixed name collides with an existing column"}
		}
		seen[c.Name] = struct{}{}
		cols = append(cols, c)
		return nil
	}
	for _, c := range left.cols {
		if _, ok := overlap[c.Name]; ok {
			c.Name += LeftSuffix
		}
		if err := add(c); err != nil {
			return nil, err
		}
	}
	for _, c := range right.cols {
		if c.Name == key {
			continue
		}
		if _, ok := overlap[c.Name]; ok {
			c.Name += RightSuffix
		}
		if err := add(c); err != nil {
			return nil, err
		}
	}
	out := d.derive(cols, len(li))
	out.source = Source{}
	return out, nil
}
