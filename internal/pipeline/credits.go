package pipeline

import (
	"catalogetl/internal/dataset"
	"catalogetl/internal/multivalue"
)

// Raw credits columns and the names they take after BuildCredits renames them.
const (
	colCreditIndex = "index"
	colCharacter   = "character"
	colName        = "name"
	colRole        = "role"
	colTitleID     = "title_id"
)

// CreditTables holds every table derived from the credits source.
type CreditTables struct {
	Credit *dataset.Dataset // (id, character)
	Actors *dataset.Dataset // (id, name)
	Roles  *dataset.Dataset // (id, role)

	// ActorRoles pairs each credit with its actor and role ids:
	// (id, title_id, name, role).
	ActorRoles *dataset.Dataset

	Dropped map[string]int
}

// BuildCredits derives the credit, actor and role tables from raw credits.
//
// The row index becomes the credit id and the source's title id moves to
// title_id. Names and roles are single values, not list literals; a credit
// without a name or a role has no actor-role row. A credit without a
// character has no credit row.
func BuildCredits(raw *dataset.Dataset) (*CreditTables, error) {
	lc, err := raw.LowercaseColumns()
	if err != nil {
		return nil, err
	}
	ds, err := lc.Rename(map[string]string{colCreditIndex: colID, colID: colTitleID})
	if err != nil {
		return nil, err
	}
	if ds, err = ds.CoerceToString(colTitleID); err != nil {
		return nil, err
	}

	out := &CreditTables{Dropped: map[string]int{}}
	credit, err := ds.Select(colID, colCharacter)
	if err != nil {
		return nil, err
	}
	if out.Credit, err = credit.DropNullRows(colCharacter); err != nil {
		return nil, err
	}

	keys := []string{colID, colTitleID}
	names, err := multivalue.Normalize(ds, colName, multivalue.Options{
		KeyColumns: keys, Entity: colName, Split: multivalue.ScalarToken,
	})
	if err != nil {
		return nil, err
	}
	roles, err := multivalue.Normalize(ds, colRole, multivalue.Options{
		KeyColumns: keys, Entity: colRole, Split: multivalue.ScalarToken,
	})
	if err != nil {
		return nil, err
	}
	out.Actors, out.Roles = names.Dimension, roles.Dimension
	out.Dropped[colName] = names.Stats.Dropped
	out.Dropped[colRole] = roles.Stats.Dropped

	joined, err := names.Link.Join(roles.Link, colID, dataset.Inner)
	if err != nil {
		return nil, err
	}
	if joined, err = joined.Drop(colTitleID + dataset.RightSuffix); err != nil {
		return nil, err
	}
	if out.ActorRoles, err = joined.Rename(map[string]string{colTitleID + dataset.LeftSuffix: colTitleID}); err != nil {
		return nil, err
	}
	return out, nil
}

// ActorLinks keeps the actor-role rows whose title is in titles and returns
// them as (key, name, role).
func ActorLinks(actorRoles, titles *dataset.Dataset, key string) (*dataset.Dataset, error) {
	ids, err := titles.Select(colID)
	if err != nil {
		return nil, err
	}
	if ids, err = ids.Rename(map[string]string{colID: colTitleID}); err != nil {
		return nil, err
	}
	if ids, err = ids.CoerceToString(colTitleID); err != nil {
		return nil, err
	}
	joined, err := actorRoles.Join(ids, colTitleID, dataset.Inner)
	if err != nil {
		return nil, err
	}
	sel, err := joined.Select(colTitleID, colName, colRole)
	if err != nil {
		return nil, err
	}
	return sel.Rename(map[string]string{colTitleID: key})
}
