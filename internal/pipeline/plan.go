// Package pipeline joins the raw catalog sources into the target tables: it
// enriches each title domain with its ranking sources, reconciles the
// suffixed duplicate columns left by the joins, explodes multi-value columns
// into dimension and link tables, and derives the credit tables.
package pipeline

import (
	"maps"
	"slices"

	"catalogetl/internal/config"
	"catalogetl/internal/dataset"
)

// DomainPlan is one title domain with its source paths resolved.
type DomainPlan struct {
	Name      string
	Type      string // value of the titles' type column
	Table     string
	KeyColumn string // title id column in link tables, e.g. movie_id

	BestByTitle string
	BestByYear  string

	// Drop and Rename are applied by Reconcile, in that order.
	Drop   []string
	Rename map[string]string

	GenreTable       string
	GenreLinkTable   string
	CountryTable     string
	CountryLinkTable string
	ActorLinkTable   string
}

// Plans converts the configured domains, resolving ranking paths against the
// pipeline's data directory.
func Plans(p config.Pipeline) []DomainPlan {
	out := make([]DomainPlan, 0, len(p.Domains))
	for _, d := range p.Domains {
		out = append(out, DomainPlan{
			Name:             d.Name,
			Type:             d.Type,
			Table:            d.Table,
			KeyColumn:        d.KeyColumn,
			BestByTitle:      p.Path(d.BestByTitle),
			BestByYear:       p.Path(d.BestByYear),
			Drop:             slices.Clone(d.Drop),
			Rename:           maps.Clone(d.Rename),
			GenreTable:       d.GenreTable,
			GenreLinkTable:   d.GenreLinkTable,
			CountryTable:     d.CountryTable,
			CountryLinkTable: d.CountryLinkTable,
			ActorLinkTable:   d.ActorLinkTable,
		})
	}
	return out
}

// Reconcile drops plan.Drop and then applies plan.Rename.
//
// A dataset that already has the plan applied is returned unchanged: every
// rename target is present, no drop column is, and no rename source that is
// not also a target is. Otherwise every referenced column must exist, and a
// missing one is a *dataset.SchemaError.
func Reconcile(ds *dataset.Dataset, plan DomainPlan) (*dataset.Dataset, error) {
	if reconciled(ds, plan) {
		return ds, nil
	}
	out, err := ds.Drop(plan.Drop...)
	if err != nil {
		return nil, err
	}
	return out.Rename(plan.Rename)
}

func reconciled(ds *dataset.Dataset, plan DomainPlan) bool {
	targets := make(map[string]bool, len(plan.Rename))
	for _, dst := range plan.Rename {
		if !ds.Has(dst) {
			return false
		}
		targets[dst] = true
	}
	for src := range plan.Rename {
		if !targets[src] && ds.Has(src) {
			return false
		}
	}
	for _, c := range plan.Drop {
		if ds.Has(c) {
			return false
		}
	}
	return true
}
