package authz

import (
	"context"
	"strings"

	"github.com/roastery-dev/roastery/pkg/kernel"
)

// KindOrganizationContributor requires an admin whose account lives on the
// organization's own mail domain.
const KindOrganizationContributor Kind = "organization_contributor"

// OrganizationContributorPolicy is attached to routes reserved for staff.
type OrganizationContributorPolicy struct{}

func (OrganizationContributorPolicy) Kind() Kind { return KindOrganizationContributor }

// NewOrganizationContributorHandler builds the handler for the contributor
// policy. The domain is compared against the part after the last @ of the
// principal's email.
func NewOrganizationContributorHandler(domain string) Handler {
	suffix := "@" + strings.TrimPrefix(domain, "@")
	return func(ctx context.Context, policy Policy, active kernel.ActiveUser) error {
		if !active.IsAdmin() {
			return ErrPolicyViolation("You are not an admin.")
		}
		if !strings.HasSuffix(active.Email, suffix) {
			return ErrPolicyViolation("You are not an organization contributor.")
		}
		return nil
	}
}
