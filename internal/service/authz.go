package service

import (
	"context"
	"fmt"
	"slices"

	"tillpos/backend/internal/domain"
)

type Capability string

const (
	CapSell              Capability = "sell"
	CapProcessReturns    Capability = "process_returns"
	CapManageProducts    Capability = "manage_products"
	CapManageQuickAccess Capability = "manage_quick_access"
	CapViewReports       Capability = "view_reports"
	CapManageDailyReport Capability = "manage_daily_reports"
	CapManageUsers       Capability = "manage_users"
	CapViewAudit         Capability = "view_audit"
)

var capabilityRoles = map[Capability][]string{
	CapSell:              {domain.RoleCashier, domain.RoleManager},
	CapProcessReturns:    {domain.RoleCashier, domain.RoleManager},
	CapManageProducts:    {domain.RoleManager},
	CapManageQuickAccess: {domain.RoleManager},
	CapViewReports:       {domain.RoleManager},
	CapManageDailyReport: {domain.RoleManager},
	CapManageUsers:       {domain.RoleManager},
	CapViewAudit:         {domain.RoleManager},
}

// Can reports whether role holds capability.
func Can(role string, capability Capability) bool {
	return slices.Contains(capabilityRoles[capability], role)
}

// authorize is the one role check every operation goes through. It returns
// the acting user so callers do not read the context twice.
func (s *Service) authorize(ctx context.Context, capability Capability) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, fmt.Errorf("%w: no authenticated user", domain.ErrForbidden)
	}
	if !Can(actor.Role, capability) {
		return domain.Actor{}, fmt.Errorf("%w: %s requires %v", domain.ErrForbidden, capability, capabilityRoles[capability])
	}
	return actor, nil
}
