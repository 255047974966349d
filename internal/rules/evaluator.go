// Package rules implements the assignment rule evaluator. Matching is a pure
// function of an invoice and a rule collection snapshot: identical inputs
// always produce identical output, which keeps re-classification idempotent.
package rules

import (
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"farmbooks/internal/domain"
)

// Target is the tagged result of a rule match. Exactly one of the fields is
// meaningful, selected by the rule's dimension.
type Target struct {
	UserID  *uuid.UUID
	FarmIDs domain.UUIDList
	Module  domain.ProcessingModule
}

// Match is a successful resolution: the winning rule and its target.
type Match struct {
	RuleID uuid.UUID
	Target Target
}

// Snapshot is a consistent view of all three rule collections, taken once per
// synchronization run so rule edits mid-run cannot change results.
type Snapshot struct {
	User   []domain.AssignmentRule
	Farm   []domain.AssignmentRule
	Module []domain.AssignmentRule
}

// Resolve evaluates one rule collection against an invoice. Active rules are
// considered in (priority asc, created_at asc, id asc) order; the first rule
// whose scope filters and keyword conditions are all satisfied wins. A false
// return means no rule matched, which is a normal outcome, not an error.
func Resolve(inv *domain.InvoiceRecord, ruleSet []domain.AssignmentRule) (Match, bool) {
	ordered := make([]domain.AssignmentRule, 0, len(ruleSet))
	for _, r := range ruleSet {
		if r.IsActive && r.DeletedAt == nil {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	text := inv.SearchableText()
	for _, r := range ordered {
		if !matches(inv, &r, text) {
			continue
		}
		return Match{RuleID: r.ID, Target: targetOf(&r)}, true
	}
	return Match{}, false
}

// matches evaluates one rule's predicate against the invoice.
func matches(inv *domain.InvoiceRecord, r *domain.AssignmentRule, text string) bool {
	if r.BusinessEntityID != nil && *r.BusinessEntityID != inv.BusinessEntityID {
		return false
	}
	if r.Direction != nil && *r.Direction != inv.Direction {
		return false
	}
	// Exclude keywords disqualify regardless of includes.
	for _, kw := range r.ExcludeKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return false
		}
	}
	// An empty include set is vacuously satisfied.
	if len(r.IncludeKeywords) == 0 {
		return true
	}
	for _, kw := range r.IncludeKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func targetOf(r *domain.AssignmentRule) Target {
	switch r.Dimension {
	case domain.DimensionUser:
		return Target{UserID: r.AssignedUserID}
	case domain.DimensionFarm:
		return Target{FarmIDs: r.TargetFarmIDs}
	case domain.DimensionModule:
		return Target{Module: r.TargetModule}
	}
	return Target{}
}

// Apply resolves every automatic dimension of the invoice in place and
// returns whether any dimension was left unresolved. Dimensions whose source
// is manual are protected and never touched; each protected skip is logged
// for visibility.
func Apply(inv *domain.InvoiceRecord, snap *Snapshot) (unresolved bool) {
	if inv.AssignedUserSource == domain.AssignmentSourceManual {
		logManualSkip(inv, domain.DimensionUser)
	} else {
		if m, ok := Resolve(inv, snap.User); ok {
			inv.AssignedUserID = m.Target.UserID
			inv.AssignedUserSource = domain.AssignmentSourceAuto
			ruleID := m.RuleID
			inv.AssignedUserRuleID = &ruleID
		} else {
			inv.AssignedUserID = nil
			inv.AssignedUserSource = domain.AssignmentSourceNone
			inv.AssignedUserRuleID = nil
		}
	}
	if inv.FarmSource == domain.AssignmentSourceManual {
		logManualSkip(inv, domain.DimensionFarm)
	} else {
		if m, ok := Resolve(inv, snap.Farm); ok {
			inv.FarmIDs = m.Target.FarmIDs
			inv.FarmSource = domain.AssignmentSourceAuto
			ruleID := m.RuleID
			inv.FarmRuleID = &ruleID
		} else {
			inv.FarmIDs = nil
			inv.FarmSource = domain.AssignmentSourceNone
			inv.FarmRuleID = nil
		}
	}
	if inv.ModuleSource == domain.AssignmentSourceManual {
		logManualSkip(inv, domain.DimensionModule)
	} else {
		if m, ok := Resolve(inv, snap.Module); ok {
			inv.Module = m.Target.Module
			inv.ModuleSource = domain.AssignmentSourceAuto
			ruleID := m.RuleID
			inv.ModuleRuleID = &ruleID
		} else {
			inv.Module = ""
			inv.ModuleSource = domain.AssignmentSourceNone
			inv.ModuleRuleID = nil
		}
	}

	unresolved = inv.AssignedUserSource == domain.AssignmentSourceNone ||
		inv.FarmSource == domain.AssignmentSourceNone ||
		inv.ModuleSource == domain.AssignmentSourceNone
	inv.NeedsTriage = unresolved
	return unresolved
}

// logManualSkip records that the automatic pass left a manually assigned
// dimension untouched.
func logManualSkip(inv *domain.InvoiceRecord, dim domain.RuleDimension) {
	log.Printf("rules: invoice %s %s dimension is manual, automatic assignment skipped", inv.ID, dim)
}

// Resolved reports whether at least one dimension carries a value.
func Resolved(inv *domain.InvoiceRecord) bool {
	return inv.AssignedUserSource != domain.AssignmentSourceNone ||
		inv.FarmSource != domain.AssignmentSourceNone ||
		inv.ModuleSource != domain.AssignmentSourceNone
}
