package services

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/you/marketauth/domain"
)

// RoleSubject is the casbin subject a role is enforced under
func RoleSubject(role domain.Role) string {
	return "role_" + string(role)
}

// DefaultPolicies are seeded at startup. Subjects use the role_ prefix.
func DefaultPolicies() [][]string {
	user := RoleSubject(domain.RoleUser)
	moderator := RoleSubject(domain.RoleModerator)
	admin := RoleSubject(domain.RoleAdmin)

	policies := [][]string{
		{moderator, "/api/v1/moderator/*", "GET|POST|PUT|DELETE"},
		{admin, "/api/v1/moderator/*", "GET|POST|PUT|DELETE"},
		{admin, "/api/v1/admin/*", "GET|POST|PUT|DELETE"},
	}
	for _, sub := range []string{user, moderator, admin} {
		policies = append(policies,
			[]string{sub, "/api/v1/auth/me", "GET"},
			[]string{sub, "/api/v1/auth/logout", "POST"},
			[]string{sub, "/api/v1/profile", "GET"},
		)
	}
	return policies
}

// CasbinEnforcerWrapper wraps the real Casbin enforcer to implement our interface
type CasbinEnforcerWrapper struct {
	enforcer *casbin.Enforcer
}

// NewCasbinEnforcerWrapper creates a wrapper for the real Casbin enforcer
func NewCasbinEnforcerWrapper(enforcer *casbin.Enforcer) domain.CasbinEnforcer {
	return &CasbinEnforcerWrapper{enforcer: enforcer}
}

func (w *CasbinEnforcerWrapper) AddPolicy(params ...interface{}) (bool, error) {
	return w.enforcer.AddPolicy(params...)
}

func (w *CasbinEnforcerWrapper) RemovePolicy(params ...interface{}) (bool, error) {
	return w.enforcer.RemovePolicy(params...)
}

func (w *CasbinEnforcerWrapper) Enforce(rvals ...interface{}) (bool, error) {
	return w.enforcer.Enforce(rvals...)
}

func (w *CasbinEnforcerWrapper) GetPolicy() ([][]string, error) {
	return w.enforcer.GetPolicy()
}

// PolicyServiceImpl implements domain.PolicyService using Casbin
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer *casbin.Enforcer) domain.PolicyService {
	return &PolicyServiceImpl{
		enforcer: NewCasbinEnforcerWrapper(enforcer),
	}
}

// NewPolicyServiceWithEnforcer creates a new policy service with a CasbinEnforcer interface (for testing)
func NewPolicyServiceWithEnforcer(enforcer domain.CasbinEnforcer) domain.PolicyService {
	return &PolicyServiceImpl{
		enforcer: enforcer,
	}
}

// AddPolicy implements domain.PolicyService. The adapter persists the rule as it is added.
func (p *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	_, err := p.enforcer.AddPolicy(role, resource, action)
	return err
}

// RemovePolicy implements domain.PolicyService
func (p *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	_, err := p.enforcer.RemovePolicy(role, resource, action)
	return err
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	return p.enforcer.Enforce(role, resource, action)
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, _ := p.enforcer.GetPolicy()
	return policies
}

// SeedDefaults adds every missing policy and reports how many were new.
// Existing rules are left untouched so operator edits survive restarts.
func (p *PolicyServiceImpl) SeedDefaults(policies [][]string) (int, error) {
	added := 0
	for _, rule := range policies {
		if len(rule) != 3 {
			return added, fmt.Errorf("%w: policy %v must have subject, object and action", domain.ErrValidation, rule)
		}
		ok, err := p.enforcer.AddPolicy(rule[0], rule[1], rule[2])
		if err != nil {
			return added, fmt.Errorf("failed to add policy %v: %w", rule, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}
