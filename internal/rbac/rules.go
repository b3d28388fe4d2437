package rbac

const (
	PermBankRead   = "bank:read"
	PermBankWrite  = "bank:write"
	PermEventsRead = "events:read"
)

// RolePermissions is the default policy. Patterns ending in * match by prefix.
var RolePermissions = map[string][]string{
	"viewer": {
		PermBankRead,
	},
	"editor": {
		"bank:*",
	},
	"admin": {
		"*", // everything
	},
}
