package policy

import (
	"context"
	"fmt"
)

// Request is one authorization question.
type Request struct {
	Operation Operation
	Entity    Entity
	Record    Record
	Principal Principal
}

// Rule answers a Request. An error is treated as a denial.
type Rule func(ctx context.Context, res *Resolver, req Request) (bool, error)

type RuleSet map[Entity]map[Operation]Rule

// DefaultRules is the Keep rule table.
func DefaultRules() RuleSet {
	ownedDependent := map[Operation]Rule{
		OpCreate: stampedAssetOwner,
		OpRead:   owner,
		OpUpdate: owner,
		OpDelete: owner,
	}
	return RuleSet{
		EntityProfile: {
			OpCreate: self,
			OpRead:   self,
			OpUpdate: self,
			OpDelete: deny,
		},
		EntityAsset: {
			OpCreate: owner,
			OpRead:   owner,
			OpUpdate: owner,
			OpDelete: owner,
		},
		EntityCategory: {
			OpCreate: owner,
			OpRead:   ownerOrShared,
			OpUpdate: owner,
			OpDelete: owner,
		},
		EntityAssignment: {
			OpCreate: owner,
			OpRead:   owner,
			OpUpdate: owner,
			OpDelete: deny,
		},
		EntityNote:      copyRules(ownedDependent),
		EntityInsurance: copyRules(ownedDependent),
		EntityDocument:  copyRules(ownedDependent),
		EntityPhoto:     copyRules(ownedDependent),
		EntityTheftReport: {
			OpCreate: anyone,
			OpRead:   owner,
			OpUpdate: owner,
			OpDelete: deny,
		},
	}
}

// Validate reports every (entity, operation) pair without a rule.
func (rs RuleSet) Validate() error {
	var missing []string
	for _, entity := range Entities {
		ops, ok := rs[entity]
		for _, op := range Operations {
			if !ok || ops[op] == nil {
				missing = append(missing, fmt.Sprintf("%s/%s", entity, op))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("policy: no rule for %v", missing)
	}
	return nil
}

func copyRules(in map[Operation]Rule) map[Operation]Rule {
	out := make(map[Operation]Rule, len(in))
	for op, rule := range in {
		out[op] = rule
	}
	return out
}

func deny(context.Context, *Resolver, Request) (bool, error) {
	return false, nil
}

func anyone(context.Context, *Resolver, Request) (bool, error) {
	return true, nil
}

func self(_ context.Context, _ *Resolver, req Request) (bool, error) {
	return req.Principal.Authenticated() && req.Record.ID == req.Principal.ID, nil
}

func owner(ctx context.Context, res *Resolver, req Request) (bool, error) {
	if !req.Principal.Authenticated() {
		return false, nil
	}
	id, err := res.Owner(ctx, req.Entity, req.Record)
	if err != nil {
		return false, err
	}
	return id == req.Principal.ID, nil
}

// ownerOrShared admits rows with a null owner to any authenticated principal.
func ownerOrShared(ctx context.Context, res *Resolver, req Request) (bool, error) {
	if !req.Principal.Authenticated() {
		return false, nil
	}
	if req.Record.OwnerID == "" {
		return true, nil
	}
	return owner(ctx, res, req)
}

// stampedAssetOwner requires the owner written on the new row to be the
// requester and the requester to own the referenced asset.
func stampedAssetOwner(ctx context.Context, res *Resolver, req Request) (bool, error) {
	if !req.Principal.Authenticated() || req.Record.OwnerID != req.Principal.ID {
		return false, nil
	}
	assetOwner, err := res.AssetOwner(ctx, req.Record.AssetID)
	if err != nil {
		return false, err
	}
	return assetOwner == req.Principal.ID, nil
}
