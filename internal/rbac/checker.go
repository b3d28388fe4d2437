package rbac

import (
	"context"
	"slices"
	"strings"
)

// Checker answers permission questions for a role policy.
type Checker struct {
	RolePermissions map[string][]string
}

// NewChecker returns a checker for rp, or for the default policy when rp is nil.
func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role, perm string) bool {
	return slices.ContainsFunc(c.RolePermissions[role], func(p string) bool {
		return matchPerm(p, perm)
	})
}

// matchPerm accepts an exact permission, "*", or a prefix pattern like "bank:*".
func matchPerm(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	prefix, ok := strings.CutSuffix(pattern, "*")
	return ok && strings.HasPrefix(perm, prefix)
}

type ctxKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}
