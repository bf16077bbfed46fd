package identity

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/garyjia/funding-workflow/internal/application/port"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	"github.com/garyjia/funding-workflow/pkg/utils"
)

// Headers set by the authenticating reverse proxy in front of the server
const (
	HeaderEmail = "X-Forwarded-Email"
	HeaderUser  = "X-Forwarded-User"
)

// HeaderProvider trusts identity headers injected by an upstream auth proxy
// and attaches roles from the directory. Deploy only behind such a proxy.
type HeaderProvider struct {
	directory port.RoleDirectory
}

func NewHeaderProvider(directory port.RoleDirectory) *HeaderProvider {
	return &HeaderProvider{directory: directory}
}

func (p *HeaderProvider) Identify(r *http.Request) (*entity.Identity, error) {
	raw := strings.TrimSpace(r.Header.Get(HeaderEmail))
	if raw == "" {
		return nil, nil
	}
	if err := utils.ValidateEmail(raw); err != nil {
		return nil, err
	}
	email := utils.NormalizeEmail(raw)

	roles, err := p.directory.Roles(r.Context(), email)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roles for %s: %w", email, err)
	}

	return &entity.Identity{
		Email: email,
		Name:  strings.TrimSpace(utils.SanitizeString(r.Header.Get(HeaderUser))),
		Roles: roles,
	}, nil
}

var _ port.IdentityProvider = (*HeaderProvider)(nil)
