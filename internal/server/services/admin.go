package services

import (
	"context"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/dbx"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// AccountAdminService implements the administrator's view of accounts.
// Callers are expected to have passed auth.Authorize(p, models.RoleAdmin).
type AccountAdminService struct {
	base
}

// NewAccountAdminService constructs an AccountAdminService.
func NewAccountAdminService(d Dependencies) *AccountAdminService {
	return &AccountAdminService{base: newBase(d, "admin")}
}

// List returns one page of accounts, newest first. Zero page or perPage
// select the defaults.
func (s *AccountAdminService) List(ctx context.Context, page, perPage int) (*AccountPage, error) {
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if err := s.check(pageQuery{Page: page, PerPage: perPage}); err != nil {
		return nil, err
	}

	repo := s.repos.Accounts(s.db)
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, s.storageErr(ctx, "count accounts", err)
	}
	list, err := repo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, s.storageErr(ctx, "list accounts", err)
	}

	out := &AccountPage{
		Accounts: make([]models.PublicAccount, 0, len(list)),
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		Pages:    (total + perPage - 1) / perPage,
	}
	for _, a := range list {
		out.Accounts = append(out.Accounts, a.Public())
	}
	return out, nil
}

func (s *AccountAdminService) Get(ctx context.Context, id string) (*models.PublicAccount, error) {
	acc, err := s.repos.Accounts(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, s.storageErr(ctx, "get account", err)
	}
	pub := acc.Public()
	return &pub, nil
}

// Update changes role, activation or profile fields of any account. An
// administrator may edit their own profile fields but cannot drop their own
// admin role or deactivate themselves.
func (s *AccountAdminService) Update(ctx context.Context, actor *models.Principal, id string, upd AdminUpdate) (*models.PublicAccount, error) {
	if actor == nil {
		return nil, common.ErrUnauthorized
	}
	if err := s.check(upd); err != nil {
		return nil, err
	}
	if actor.AccountID == id && demotes(upd) {
		return nil, common.ErrCannotDemoteSelf
	}

	repo := s.repos.Accounts(s.db)
	acc, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storageErr(ctx, "get account", err)
	}

	if upd.Role != nil {
		acc.Role = *upd.Role
	}
	if upd.IsActive != nil {
		acc.IsActive = *upd.IsActive
	}
	if upd.DisplayName != nil {
		acc.DisplayName = *upd.DisplayName
	}
	if upd.Phone != nil {
		acc.Phone = *upd.Phone
	}
	acc.UpdatedAt = s.now()

	if err := repo.Update(ctx, acc); err != nil {
		return nil, s.storageErr(ctx, "update account", err)
	}

	s.log.Info(ctx, "account updated by admin", "account_id", acc.ID, "role", acc.Role, "is_active", acc.IsActive)
	pub := acc.Public()
	return &pub, nil
}

func demotes(upd AdminUpdate) bool {
	return (upd.Role != nil && *upd.Role != models.RoleAdmin) ||
		(upd.IsActive != nil && !*upd.IsActive)
}

// Delete removes the account id and its refresh tokens. An administrator
// cannot delete their own account.
func (s *AccountAdminService) Delete(ctx context.Context, actor *models.Principal, id string) error {
	if actor == nil {
		return common.ErrUnauthorized
	}
	if actor.AccountID == id {
		return common.ErrCannotDeleteSelf
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.RefreshTokens(tx).DeleteByAccount(ctx, id); err != nil {
			return err
		}
		return s.repos.Accounts(tx).Delete(ctx, id)
	})
	if err != nil {
		return s.storageErr(ctx, "delete account", err)
	}

	s.log.Info(ctx, "account deleted", "account_id", id, "by", actor.AccountID)
	return nil
}

// EnsureAdmin creates an administrator account. It fails with
// common.ErrDuplicateHandle if the handle is taken.
func (s *AccountAdminService) EnsureAdmin(ctx context.Context, handle, password string) (*models.PublicAccount, error) {
	in := RegisterInput{Handle: NormalizeHandle(handle), Password: password}
	if err := s.check(in); err != nil {
		return nil, err
	}

	acc, err := s.createAccount(ctx, in, models.RoleAdmin, nil)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "admin account created", "account_id", acc.ID, "handle", acc.Handle)
	pub := acc.Public()
	return &pub, nil
}
