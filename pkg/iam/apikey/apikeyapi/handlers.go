// Package apikeyapi exposes API key management over HTTP. Keys are managed
// with a bearer token only; a machine credential cannot mint more keys.
package apikeyapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam"
	"github.com/roastery-dev/roastery/pkg/iam/apikey"
	"github.com/roastery-dev/roastery/pkg/iam/apikey/apikeysrv"
	"github.com/roastery-dev/roastery/pkg/iam/auth"
)

// APIKeyHandlers wires the API key service to fiber routes.
type APIKeyHandlers struct {
	service *apikeysrv.APIKeyService
}

func NewAPIKeyHandlers(service *apikeysrv.APIKeyService) *APIKeyHandlers {
	return &APIKeyHandlers{service: service}
}

// RegisterRoutes mounts the key management endpoints.
func (h *APIKeyHandlers) RegisterRoutes(app *fiber.App, guard *auth.Guard) {
	bearer := guard.Protect(auth.Access{AuthTypes: []auth.AuthType{auth.AuthTypeBearer}})

	grp := app.Group("/api-keys", bearer)
	grp.Post("/", h.Generate)
	grp.Get("/", h.List)
	grp.Delete("/:uuid", h.Revoke)
}

// Generate mints a new key for the caller. The raw key in the response is
// shown exactly once.
func (h *APIKeyHandlers) Generate(c *fiber.Ctx) error {
	active, ok := auth.ActiveUserFromCtx(c)
	if !ok {
		return iam.ErrUnauthenticated()
	}

	var input struct {
		Name   string         `json:"name"`
		Scopes []apikey.Scope `json:"scopes"`
	}
	if err := c.BodyParser(&input); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	if input.Name == "" {
		return errx.New("name is required", errx.TypeValidation)
	}

	generated, err := h.service.Generate(c.UserContext(), active.Sub, input.Name, input.Scopes)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(generated)
}

// List returns the caller's keys without their raw values.
func (h *APIKeyHandlers) List(c *fiber.Ctx) error {
	active, ok := auth.ActiveUserFromCtx(c)
	if !ok {
		return iam.ErrUnauthenticated()
	}

	keys, err := h.service.List(c.UserContext(), active.Sub)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"api_keys": keys, "total": len(keys)})
}

// Revoke deletes one of the caller's keys.
func (h *APIKeyHandlers) Revoke(c *fiber.Ctx) error {
	active, ok := auth.ActiveUserFromCtx(c)
	if !ok {
		return iam.ErrUnauthenticated()
	}

	if err := h.service.Revoke(c.UserContext(), c.Params("uuid"), active.Sub); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
