package escalation

import (
	"context"

	"civicvoice-be/models"

	"github.com/apex/log"
)

// AuthorityFinder is the read-only query surface the resolver needs from
// the authority registry. Every method scopes to a (city, state)
// jurisdiction and only returns authorities that are active, have email
// notifications enabled and carry a non-empty contact email.
type AuthorityFinder interface {
	ByJurisdictionAndCategory(ctx context.Context, city, state, category string) ([]models.Authority, error)
	ByJurisdictionAndDepartment(ctx context.Context, city, state, department string) ([]models.Authority, error)
	ByJurisdiction(ctx context.Context, city, state string) ([]models.Authority, error)
}

// Resolver selects which authorities should be notified about an issue.
type Resolver struct {
	finder AuthorityFinder
}

// NewResolver returns a resolver backed by the given registry.
func NewResolver(finder AuthorityFinder) *Resolver {
	return &Resolver{finder: finder}
}

// Resolve returns the authorities to notify for the issue, in strict
// priority order, stopping at the first non-empty tier:
//
//  1. jurisdiction + handled category match
//  2. jurisdiction + department type mapped from the category
//  3. every notifiable authority in the jurisdiction
//
// It never returns an error: a failed tier query degrades to an empty
// result and falls through to the next tier, and total exhaustion yields
// an empty list.
func (r *Resolver) Resolve(ctx context.Context, issue *models.Issue) []models.Authority {
	city, state := issue.Location.City, issue.Location.State
	category := string(issue.Category)

	if matched, err := r.finder.ByJurisdictionAndCategory(ctx, city, state, category); err != nil {
		log.WithError(err).Warnf("authority category query failed for %s/%s, falling back", city, state)
	} else if m := eligible(matched); len(m) > 0 {
		return m
	}

	department := DepartmentFor(category)
	if matched, err := r.finder.ByJurisdictionAndDepartment(ctx, city, state, department); err != nil {
		log.WithError(err).Warnf("authority department query failed for %s/%s, falling back", city, state)
	} else if m := eligible(matched); len(m) > 0 {
		return m
	}

	matched, err := r.finder.ByJurisdiction(ctx, city, state)
	if err != nil {
		log.WithError(err).Warnf("authority jurisdiction query failed for %s/%s", city, state)
		return nil
	}
	return eligible(matched)
}

// eligible drops authorities the dispatcher could not reach anyway, in case
// a finder implementation does not filter them at query level.
func eligible(in []models.Authority) []models.Authority {
	out := make([]models.Authority, 0, len(in))
	for _, a := range in {
		if a.NotifyByEmail && a.ContactEmail != "" {
			out = append(out, a)
		}
	}
	return out
}
