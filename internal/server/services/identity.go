package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/dbx"
	"github.com/dmitrijs2005/gophgate/internal/server/auth"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"github.com/google/uuid"
)

// IdentityService handles registration, login, credential verification and
// the account's own profile. Access tokens are stateless JWTs; refresh tokens
// are stored as SHA-256 digests and rotated on use.
type IdentityService struct {
	base
	tokens     *auth.TokenIssuer
	refreshTTL time.Duration
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(d Dependencies) *IdentityService {
	return &IdentityService{
		base:       newBase(d, "identity"),
		tokens:     d.Tokens,
		refreshTTL: d.RefreshTTL,
	}
}

// Register creates a user account and signs the caller in.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Handle = NormalizeHandle(in.Handle)
	if err := s.check(in); err != nil {
		s.metrics.AuthOutcome("register", "invalid")
		return nil, err
	}

	var res *AuthResult
	acc, err := s.createAccount(ctx, in, models.RoleUser, func(ctx context.Context, tx dbx.DBTX, acc *models.Account) error {
		var err error
		res, err = s.issue(ctx, tx, acc)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateHandle) {
			s.metrics.AuthOutcome("register", "duplicate")
		}
		return nil, err
	}

	s.log.Info(ctx, "account registered", "account_id", acc.ID, "handle", acc.Handle)
	s.metrics.AuthOutcome("register", "success")
	return res, nil
}

// createAccount hashes the password and inserts the account. then, if set,
// runs inside the same transaction. The insert's uniqueness constraint is
// what decides a duplicate handle; the earlier lookup only saves a bcrypt
// round on the obvious case.
func (b *base) createAccount(ctx context.Context, in RegisterInput, role models.Role,
	then func(ctx context.Context, tx dbx.DBTX, acc *models.Account) error) (*models.Account, error) {

	if _, err := b.repos.Accounts(b.db).GetByHandle(ctx, in.Handle); err == nil {
		return nil, common.ErrDuplicateHandle
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, b.storageErr(ctx, "lookup handle", err)
	}

	digest, err := b.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	now := b.now()
	acc := &models.Account{
		ID:           uuid.NewString(),
		Handle:       in.Handle,
		PasswordHash: digest,
		DisplayName:  in.DisplayName,
		Phone:        in.Phone,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := b.repos.Accounts(tx).Create(ctx, acc); err != nil {
			return err
		}
		if then != nil {
			return then(ctx, tx, acc)
		}
		return nil
	})
	if err != nil {
		return nil, b.storageErr(ctx, "create account", err)
	}
	return acc, nil
}

// Login verifies a handle and password. An unknown handle and a wrong
// password are indistinguishable, in result and in cost.
func (s *IdentityService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Handle = NormalizeHandle(in.Handle)
	if err := s.check(in); err != nil {
		s.metrics.AuthOutcome("login", "invalid")
		return nil, err
	}

	acc, err := s.repos.Accounts(s.db).GetByHandle(ctx, in.Handle)
	if errors.Is(err, common.ErrNotFound) {
		if err := s.hasher.CompareDummy(ctx, in.Password); err != nil {
			return nil, err
		}
		s.metrics.AuthOutcome("login", "failure")
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, s.storageErr(ctx, "lookup handle", err)
	}

	ok, err := s.hasher.Compare(ctx, acc.PasswordHash, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.AuthOutcome("login", "failure")
		return nil, common.ErrInvalidCredentials
	}
	if !acc.IsActive {
		s.metrics.AuthOutcome("login", "disabled")
		return nil, common.ErrAccountDisabled
	}

	var res *AuthResult
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err = s.issue(ctx, tx, acc)
		return err
	}); err != nil {
		return nil, s.storageErr(ctx, "issue tokens", err)
	}

	s.log.Info(ctx, "login", "account_id", acc.ID)
	s.metrics.AuthOutcome("login", "success")
	return res, nil
}

// Authenticate verifies an access token and returns the principal it names.
// Every failure matches common.ErrUnauthorized.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	p, err := s.tokens.Parse(token)
	if err != nil {
		s.log.Debug(ctx, "token rejected", "error", err)
		s.metrics.AuthOutcome("authenticate", "failure")
		return nil, err
	}
	return p, nil
}

// Authorize checks the principal's role against roles.
func (s *IdentityService) Authorize(p *models.Principal, roles ...models.Role) error {
	return auth.Authorize(p, roles...)
}

// Me returns the caller's current stored profile.
func (s *IdentityService) Me(ctx context.Context, p *models.Principal) (*models.PublicAccount, error) {
	if p == nil {
		return nil, common.ErrUnauthorized
	}
	acc, err := s.repos.Accounts(s.db).GetByID(ctx, p.AccountID)
	if err != nil {
		return nil, s.storageErr(ctx, "get account", err)
	}
	pub := acc.Public()
	return &pub, nil
}

// UpdateSelf applies a profile update to the caller's own account. A
// password change re-hashes and revokes the account's refresh tokens.
func (s *IdentityService) UpdateSelf(ctx context.Context, p *models.Principal, upd ProfileUpdate) (*models.PublicAccount, error) {
	if p == nil {
		return nil, common.ErrUnauthorized
	}
	if err := s.check(upd); err != nil {
		return nil, err
	}

	acc, err := s.repos.Accounts(s.db).GetByID(ctx, p.AccountID)
	if err != nil {
		return nil, s.storageErr(ctx, "get account", err)
	}

	if upd.DisplayName != nil {
		acc.DisplayName = *upd.DisplayName
	}
	if upd.Phone != nil {
		acc.Phone = *upd.Phone
	}
	if upd.Password != nil {
		digest, err := s.hasher.Hash(ctx, *upd.Password)
		if err != nil {
			return nil, err
		}
		acc.PasswordHash = digest
	}
	acc.UpdatedAt = s.now()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Accounts(tx).Update(ctx, acc); err != nil {
			return err
		}
		if upd.Password != nil {
			return s.repos.RefreshTokens(tx).DeleteByAccount(ctx, acc.ID)
		}
		return nil
	})
	if err != nil {
		return nil, s.storageErr(ctx, "update account", err)
	}

	s.log.Info(ctx, "profile updated", "account_id", acc.ID, "password_changed", upd.Password != nil)
	pub := acc.Public()
	return &pub, nil
}

// Refresh exchanges a refresh token for a new token pair. The presented
// token is consumed; the role in the new access token is read from the store.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: missing refresh token", common.ErrUnauthorized)
	}
	hash := common.SHA256Hex(refreshToken)

	var res *AuthResult
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repos.RefreshTokens(tx)

		rt, err := tokens.Find(ctx, hash)
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: unknown refresh token", common.ErrUnauthorized)
		}
		if err != nil {
			return err
		}
		if !s.now().Before(rt.ExpiresAt) {
			return fmt.Errorf("%w: refresh token expired", common.ErrUnauthorized)
		}

		acc, err := s.repos.Accounts(tx).GetByID(ctx, rt.AccountID)
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: account no longer exists", common.ErrUnauthorized)
		}
		if err != nil {
			return err
		}
		if !acc.IsActive {
			return common.ErrAccountDisabled
		}

		deleted, err := tokens.Delete(ctx, hash)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: refresh token already used", common.ErrUnauthorized)
		}

		res, err = s.issue(ctx, tx, acc)
		return err
	})
	if err != nil {
		s.metrics.AuthOutcome("refresh", "failure")
		return nil, s.storageErr(ctx, "refresh", err)
	}

	s.metrics.AuthOutcome("refresh", "success")
	return res, nil
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *IdentityService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if _, err := s.repos.RefreshTokens(s.db).Delete(ctx, common.SHA256Hex(refreshToken)); err != nil {
		return s.storageErr(ctx, "logout", err)
	}
	return nil
}

// PurgeExpiredRefreshTokens removes refresh tokens past their expiry.
func (s *IdentityService) PurgeExpiredRefreshTokens(ctx context.Context) (int64, error) {
	n, err := s.repos.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, s.storageErr(ctx, "purge refresh tokens", err)
	}
	return n, nil
}

// issue mints an access token for acc and stores a fresh refresh token
// through tx.
func (s *IdentityService) issue(ctx context.Context, tx dbx.DBTX, acc *models.Account) (*AuthResult, error) {
	access, exp, err := s.tokens.Issue(models.Principal{AccountID: acc.ID, Handle: acc.Handle, Role: acc.Role})
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now()
	if err := s.repos.RefreshTokens(tx).Create(ctx, &models.RefreshToken{
		AccountID: acc.ID,
		TokenHash: common.SHA256Hex(refresh),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  access,
		TokenType:    common.BearerScheme,
		ExpiresAt:    exp,
		RefreshToken: refresh,
		Account:      acc.Public(),
	}, nil
}
