// Package identity resolves who is calling and which roles they hold.
package identity

import (
	"context"
	"sort"

	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/pkg/utils"
)

// ConfigRoleDirectory is a RoleDirectory loaded from configuration (email -> roles).
// It is immutable after construction.
type ConfigRoleDirectory struct {
	roles   map[string][]string
	members map[string][]string
}

// NewConfigRoleDirectory indexes the email -> roles mapping both ways
func NewConfigRoleDirectory(assignments map[string][]string) *ConfigRoleDirectory {
	d := &ConfigRoleDirectory{
		roles:   make(map[string][]string, len(assignments)),
		members: make(map[string][]string),
	}
	for email, roles := range assignments {
		email = utils.NormalizeEmail(email)
		seen := make(map[string]bool, len(roles))
		for _, role := range roles {
			if role == "" || seen[role] {
				continue
			}
			seen[role] = true
			d.roles[email] = append(d.roles[email], role)
			d.members[role] = append(d.members[role], email)
		}
	}
	for _, list := range d.roles {
		sort.Strings(list)
	}
	for _, list := range d.members {
		sort.Strings(list)
	}
	return d
}

func (d *ConfigRoleDirectory) Roles(ctx context.Context, email string) ([]string, error) {
	return append([]string(nil), d.roles[utils.NormalizeEmail(email)]...), nil
}

func (d *ConfigRoleDirectory) Members(ctx context.Context, role string) ([]string, error) {
	return append([]string(nil), d.members[role]...), nil
}

var _ port.RoleDirectory = (*ConfigRoleDirectory)(nil)
