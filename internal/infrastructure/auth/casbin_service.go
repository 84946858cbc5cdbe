package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// DefaultModel is used when no model file is configured
const DefaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// NewEnforcer builds a casbin enforcer whose policies live in the gorm database
func NewEnforcer(db *gorm.DB, modelPath string) (*casbin.Enforcer, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("casbin adapter: %w", err)
	}

	var e *casbin.Enforcer
	if modelPath != "" {
		e, err = casbin.NewEnforcer(modelPath, adp)
	} else {
		var m model.Model
		m, err = model.NewModelFromString(DefaultModel)
		if err != nil {
			return nil, err
		}
		e, err = casbin.NewEnforcer(m, adp)
	}
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}

	// rules are written through the adapter one by one, never by SavePolicy,
	// which truncates casbin_rule outside its own transaction
	e.EnableAutoSave(true)
	if err := e.LoadPolicy(); err != nil {
		return nil, err
	}
	return e, nil
}
