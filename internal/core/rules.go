package core

import "kindercore/pkg/domain"

type (
	// Rule aliases domain.Rule evaluated within the transaction boundary.
	Rule = domain.Rule
	// RulesEngine aliases the domain engine orchestrating rule evaluation.
	RulesEngine = domain.RulesEngine
)

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewBranchOwnershipRule())
	engine.Register(NewGroupDependentsRule())
	engine.Register(NewReferenceIntegrityRule())
	engine.Register(NewFamilySymmetryRule())
	engine.Register(NewEmailUniquenessRule())
	engine.Register(NewBranchCapacityRule())
	return engine
}
