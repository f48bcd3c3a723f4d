package policy

import (
	"context"

	"go.uber.org/zap"
)

// Evaluator decides requests against a complete RuleSet.
type Evaluator struct {
	resolver *Resolver
	rules    RuleSet
	logger   *zap.Logger
}

func NewEvaluator(assets AssetOwners, logger *zap.Logger) (*Evaluator, error) {
	return NewEvaluatorWithRules(assets, DefaultRules(), logger)
}

func NewEvaluatorWithRules(assets AssetOwners, rules RuleSet, logger *zap.Logger) (*Evaluator, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		resolver: NewResolver(assets),
		rules:    rules,
		logger:   logger.Named("policy"),
	}, nil
}

// Decide evaluates one request. Unknown entities, rule errors and unresolved
// owners all end in Deny.
func (e *Evaluator) Decide(ctx context.Context, op Operation, entity Entity, rec Record, principal Principal) Decision {
	rule := e.rules[entity][op]
	if rule == nil {
		e.logger.Warn("no rule", zap.String("entity", string(entity)), zap.String("op", string(op)))
		return Deny
	}
	req := Request{Operation: op, Entity: entity, Record: rec, Principal: principal}
	ok, err := rule(ctx, e.resolver, req)
	decision := Deny
	if err == nil && ok {
		decision = Allow
	}
	e.logger.Debug("authorize",
		zap.String("entity", string(entity)),
		zap.String("op", string(op)),
		zap.String("principal", principal.ID),
		zap.String("record", rec.ID),
		zap.Stringer("decision", decision),
		zap.Error(err),
	)
	return decision
}

// Authorize is Decide as an error: nil on Allow, ErrDenied otherwise.
func (e *Evaluator) Authorize(ctx context.Context, op Operation, entity Entity, rec Record, principal Principal) error {
	if e.Decide(ctx, op, entity, rec, principal) != Allow {
		return ErrDenied
	}
	return nil
}

// OwnerOf exposes the resolver for callers that need the owning principal.
func (e *Evaluator) OwnerOf(ctx context.Context, entity Entity, rec Record) (string, error) {
	return e.resolver.Owner(ctx, entity, rec)
}

func (e *Evaluator) Validate() error {
	return e.rules.Validate()
}

// AssetOwner resolves the live owner of an asset.
func (e *Evaluator) AssetOwner(ctx context.Context, assetID string) (string, error) {
	return e.resolver.AssetOwner(ctx, assetID)
}
