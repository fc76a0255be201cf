// Package userapi exposes account administration over HTTP. All routes are
// staff-only; regular accounts never see each other.
package userapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/roastery-dev/roastery/pkg/iam/apikey"
	"github.com/roastery-dev/roastery/pkg/iam/auth"
	"github.com/roastery-dev/roastery/pkg/iam/authz"
	"github.com/roastery-dev/roastery/pkg/iam/user"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

// AdminAccess is the guard requirement for the account administration
// surface. Exported so cmd/ can verify policy handler coverage at boot.
var AdminAccess = auth.Access{
	AuthTypes: []auth.AuthType{auth.AuthTypeBearer, auth.AuthTypeAPIKey},
	Roles:     []kernel.Role{kernel.RoleAdmin},
	Policies:  []authz.Policy{authz.OrganizationContributorPolicy{}},
	Scopes:    []apikey.Scope{apikey.ScopeRead},
}

// UserSummary is the outward shape of an account in admin listings.
// Credential material never leaves the repository layer.
type UserSummary struct {
	ID         kernel.UserID `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Role       kernel.Role   `json:"role"`
	OTPEnabled bool          `json:"otp_enabled"`
	Federated  bool          `json:"federated"`
}

// UserHandlers wires the user repository to admin fiber routes.
type UserHandlers struct {
	users user.Repository
}

func NewUserHandlers(users user.Repository) *UserHandlers {
	return &UserHandlers{users: users}
}

// RegisterRoutes mounts the admin account endpoints.
func (h *UserHandlers) RegisterRoutes(app *fiber.App, guard *auth.Guard) {
	grp := app.Group("/admin/users", guard.Protect(AdminAccess))
	grp.Get("/", h.List)
}

// List returns a page of accounts.
func (h *UserHandlers) List(c *fiber.Ctx) error {
	page, err := h.users.List(c.UserContext(), kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	})
	if err != nil {
		return err
	}

	summaries := make([]UserSummary, 0, len(page.Items))
	for i := range page.Items {
		u := &page.Items[i]
		summaries = append(summaries, UserSummary{
			ID:         u.ID,
			Name:       u.Name,
			Email:      u.Email,
			Role:       u.Role,
			OTPEnabled: u.OTPEnabled,
			Federated:  u.IsFederated(),
		})
	}

	return c.JSON(kernel.NewPaginated(summaries, page.Page.Number, page.Page.Size, page.Page.Total))
}
