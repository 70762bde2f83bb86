package auth

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// BearerToken extracts the credential from an Authorization header value.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", common.ErrUnauthorized)
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", fmt.Errorf("%w: malformed authorization header", common.ErrUnauthorized)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", common.ErrUnauthorized)
	}
	return token, nil
}

// Authorize checks that p holds one of roles. A missing principal is an
// authentication failure, not an authorization one.
func Authorize(p *models.Principal, roles ...models.Role) error {
	if p == nil {
		return common.ErrUnauthorized
	}
	if !p.HasRole(roles...) {
		return fmt.Errorf("%w: role %q not permitted", common.ErrForbidden, p.Role)
	}
	return nil
}
