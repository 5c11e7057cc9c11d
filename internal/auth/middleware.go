package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "storefront/internal/errors"
	"storefront/internal/infrastructure/logger"
	"storefront/internal/response"
)

type Middleware struct {
	tokens    *TokenService
	blacklist TokenBlacklist
	policy    Policy
	resp      *response.Writer
	logger    *zap.Logger
}

func NewMiddleware(tokens *TokenService, blacklist TokenBlacklist, policy Policy, resp *response.Writer, logger *zap.Logger) *Middleware {
	return &Middleware{tokens: tokens, blacklist: blacklist, policy: policy, resp: resp, logger: logger}
}

// Identify attaches the caller identity when a bearer token is present. A
// request without a token continues anonymously; a bad or revoked token is rejected.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		log := logger.FromContext(r.Context(), m.logger)

		claims, err := m.tokens.Parse(raw)
		if err != nil {
			log.Debug("rejected bearer token", zap.Error(err))
			m.resp.Error(w, r, apperrors.NewUnauthorizedError(apperrors.CodeInvalidToken, err.Error()))
			return
		}

		revoked, err := m.blacklist.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			m.resp.Error(w, r, apperrors.NewInternalError("checking token revocation", err))
			return
		}
		if revoked {
			m.resp.Error(w, r, apperrors.NewUnauthorizedError(apperrors.CodeInvalidToken, ErrRevokedToken.Error()))
			return
		}

		accountID, _ := claims.AccountID()
		id := &Identity{
			AccountID: accountID,
			Username:  claims.Username,
			IsStaff:   claims.IsStaff,
			TokenID:   claims.ID,
		}
		if claims.ExpiresAt != nil {
			id.ExpiresAt = claims.ExpiresAt.Time
		}

		ctx := WithIdentity(r.Context(), id)
		ctx = logger.WithContext(ctx, log.With(zap.Uint("accountId", accountID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Guard enforces the policy level of op before the handler runs.
func (m *Middleware) Guard(op Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := m.policy.Authorize(op, IdentityFrom(r.Context())); err != nil {
				m.resp.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Revoke blacklists the token carried by id for the rest of its lifetime.
func (m *Middleware) Revoke(ctx context.Context, id *Identity) error {
	return m.blacklist.Revoke(ctx, id.TokenID, time.Until(id.ExpiresAt))
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
