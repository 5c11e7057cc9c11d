package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/dto"
	apperrors "storefront/internal/errors"
	"storefront/internal/response"
)

type ProfileRegistry interface {
	FindByPhone(ctx context.Context, phone string) (*domain.Profile, error)
	FindByAccount(ctx context.Context, accountID uint) (*domain.Profile, error)
	UpdateContactable(ctx context.Context, profileID uint, patch domain.ProfilePatch) (*domain.Profile, error)
}

type ProfileController struct {
	registry ProfileRegistry
	resp     *response.Writer
	logger   *zap.Logger
}

func NewProfileController(registry ProfileRegistry, resp *response.Writer, logger *zap.Logger) *ProfileController {
	return &ProfileController{registry: registry, resp: resp, logger: logger}
}

// updateProfileRequest has no phone field: a phone sent by the client is dropped.
type updateProfileRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Photo   *string `json:"photo"`
}

func (c *ProfileController) GetMine(w http.ResponseWriter, r *http.Request) {
	profile, ok := c.ownProfile(w, r)
	if !ok {
		return
	}
	c.resp.JSON(w, http.StatusOK, dto.NewProfileResponse(profile))
}

func (c *ProfileController) UpdateMine(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !c.resp.DecodeJSON(w, r, &req) {
		return
	}

	profile, ok := c.ownProfile(w, r)
	if !ok {
		return
	}

	updated, err := c.registry.UpdateContactable(r.Context(), profile.ID, domain.ProfilePatch{
		Name:    req.Name,
		Address: req.Address,
		Photo:   req.Photo,
	})
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}

	c.resp.JSON(w, http.StatusOK, dto.NewProfileResponse(updated))
}

func (c *ProfileController) ByPhone(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		c.resp.Validation(w, r, "phone is required", apperrors.ValidationDetail{
			Field:   "phone",
			Message: "phone query parameter is required",
			Code:    apperrors.CodeMissingPhone,
		})
		return
	}

	profile, err := c.registry.FindByPhone(r.Context(), phone)
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}
	if profile == nil {
		c.resp.Error(w, r, apperrors.NewNotFoundError("profile not found"))
		return
	}

	c.resp.JSON(w, http.StatusOK, dto.NewProfileResponse(profile))
}

func (c *ProfileController) ownProfile(w http.ResponseWriter, r *http.Request) (*domain.Profile, bool) {
	id := auth.IdentityFrom(r.Context())
	if id == nil {
		c.resp.Error(w, r, apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "authentication required"))
		return nil, false
	}

	profile, err := c.registry.FindByAccount(r.Context(), id.AccountID)
	if err != nil {
		c.resp.Error(w, r, err)
		return nil, false
	}
	if profile == nil {
		c.resp.Error(w, r, apperrors.NewNotFoundError("profile not found"))
		return nil, false
	}
	return profile, true
}
