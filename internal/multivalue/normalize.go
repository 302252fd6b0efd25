package multivalue

import (
	"catalogetl/internal/dataset"
)

// Options configures Normalize.
type Options struct {
	// KeyColumns identify a source row in the link table. Required.
	KeyColumns []string
	// Entity names the value column of the dimension table. Defaults to the
	// normalized column's name.
	Entity string
	// Split tokenizes string cells. Defaults to ParseList. Ignored when the
	// column is already a string list.
	Split func(string) []string
}

// Result holds every artifact of one normalization pass.
type Result struct {
	Values    []string
	IDs       *IDMap
	Dimension *dataset.Dataset // (id, entity)
	Mapped    *dataset.Dataset // source with column rewritten to id lists
	Link      *dataset.Dataset // (keys..., column) exploded to one id per row
	Stats     MapStats
}

// Normalize runs ExtractUniqueValues, AssignIDs, MapValuesToIDs,
// BuildLinkTable and MaterializeDimensionTable over column.
func Normalize(ds *dataset.Dataset, column string, opt Options) (*Result, error) {
	split := opt.Split
	if split == nil {
		split = ParseList
	}
	entity := opt.Entity
	if entity == "" {
		entity = column
	}

	listed, err := ds.MapToList(column, split)
	if err != nil {
		return nil, err
	}
	values, err := ExtractUniqueValues(listed, column)
	if err != nil {
		return nil, err
	}
	ids := AssignIDs(values)
	mapped, stats, err := MapValuesToIDs(listed, column, ids)
	if err != nil {
		return nil, err
	}
	link, err := BuildLinkTable(mapped, column, opt.KeyColumns...)
	if err != nil {
		return nil, err
	}
	dim, err := MaterializeDimensionTable(ids.Values(), entity)
	if err != nil {
		return nil, err
	}
	return &Result{
		Values:    values,
		IDs:       ids,
		Dimension: dim,
		Mapped:    mapped,
		Link:      link,
		Stats:     stats,
	}, nil
}
