package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"storefront/internal/account/service"
	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/dto"
	apperrors "storefront/internal/errors"
	"storefront/internal/infrastructure/logger"
	"storefront/internal/response"
	"storefront/internal/validation"
)

type AccountRegistry interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.Account, *domain.Profile, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Account, error)
	Me(ctx context.Context, accountID uint) (*domain.Account, *domain.Profile, error)
}

type TokenIssuer interface {
	Issue(account *domain.Account) (*auth.Token, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, id *auth.Identity) error
}

type AccountController struct {
	registry AccountRegistry
	tokens   TokenIssuer
	revoker  TokenRevoker
	resp     *response.Writer
	logger   *zap.Logger
}

func NewAccountController(registry AccountRegistry, tokens TokenIssuer, revoker TokenRevoker, resp *response.Writer, logger *zap.Logger) *AccountController {
	return &AccountController{registry: registry, tokens: tokens, revoker: revoker, resp: resp, logger: logger}
}

type registerRequest struct {
	Username        string `json:"username" validate:"omitempty,max=150"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token   *auth.Token          `json:"token"`
	Account dto.AccountResponse  `json:"account"`
	Profile *dto.ProfileResponse `json:"profile"`
}

func (c *AccountController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !c.resp.DecodeJSON(w, r, &req) {
		return
	}
	if details := validation.Struct(req); len(details) > 0 {
		c.resp.Validation(w, r, "registration validation failed", details...)
		return
	}

	account, profile, err := c.registry.Register(r.Context(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Name:            req.Name,
		Phone:           req.Phone,
		Address:         req.Address,
	})
	if err != nil {
		if apperrors.IsPhoneAlreadyClaimed(err) {
			c.resp.Validation(w, r, err.Error(), apperrors.ValidationDetail{
				Field:   "phone",
				Message: err.Error(),
				Code:    apperrors.CodePhoneAlreadyClaimed,
			})
			return
		}
		c.resp.Error(w, r, err)
		return
	}

	c.respondWithToken(w, r, http.StatusCreated, account, profile)
}

func (c *AccountController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !c.resp.DecodeJSON(w, r, &req) {
		return
	}
	if details := validation.Struct(req); len(details) > 0 {
		c.resp.Validation(w, r, "username and password are required", details...)
		return
	}

	account, err := c.registry.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if ue, ok := apperrors.IsUnauthorizedError(err); ok && ue.Code == apperrors.CodeInvalidCredentials {
			c.resp.Fail(w, r, http.StatusBadRequest, ue.Code, ue.Message)
			return
		}
		c.resp.Error(w, r, err)
		return
	}

	_, profile, err := c.registry.Me(r.Context(), account.ID)
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}

	c.respondWithToken(w, r, http.StatusOK, account, profile)
}

func (c *AccountController) Logout(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	if id == nil {
		c.resp.Error(w, r, apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "authentication required"))
		return
	}

	if err := c.revoker.Revoke(r.Context(), id); err != nil {
		c.resp.Error(w, r, apperrors.NewInternalError("revoking token", err))
		return
	}

	logger.FromContext(r.Context(), c.logger).Info("logged out", zap.String("tokenId", id.TokenID))
	w.WriteHeader(http.StatusNoContent)
}

func (c *AccountController) Me(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	if id == nil {
		c.resp.Error(w, r, apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "authentication required"))
		return
	}

	account, profile, err := c.registry.Me(r.Context(), id.AccountID)
	if err != nil {
		c.resp.Error(w, r, err)
		return
	}

	c.resp.JSON(w, http.StatusOK, struct {
		Account dto.AccountResponse  `json:"account"`
		Profile *dto.ProfileResponse `json:"profile"`
	}{
		Account: dto.NewAccountResponse(account),
		Profile: dto.NewProfileResponse(profile),
	})
}

func (c *AccountController) respondWithToken(w http.ResponseWriter, r *http.Request, status int, account *domain.Account, profile *domain.Profile) {
	token, err := c.tokens.Issue(account)
	if err != nil {
		c.resp.Error(w, r, apperrors.NewInternalError("issuing token", err))
		return
	}

	c.resp.JSON(w, status, authResponse{
		Token:   token,
		Account: dto.NewAccountResponse(account),
		Profile: dto.NewProfileResponse(profile),
	})
}
