package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iho/farmledger/internal/domain"
)

// sponsorCycleCheckDepth bounds the ancestor walk used to reject cycles.
// It only needs to exceed the deepest real chain.
const sponsorCycleCheckDepth = 100000

// SponsorUseCase manages accounts and sponsor edges.
type SponsorUseCase struct {
	uow         *UnitOfWork
	accountRepo AccountRepository
	idGen       IDGenerator
}

// NewSponsorUseCase creates a new SponsorUseCase.
func NewSponsorUseCase(uow *UnitOfWork, accountRepo AccountRepository, idGen IDGenerator) *SponsorUseCase {
	return &SponsorUseCase{
		uow:         uow,
		accountRepo: accountRepo,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	SponsorID *string
	// ID is the platform user id; generated when empty.
	ID string
}

// CreateAccount creates an account, optionally linked to a sponsor.
func (uc *SponsorUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uc.idGen.Generate()
	}

	var sponsorID *string
	if input.SponsorID != nil && strings.TrimSpace(*input.SponsorID) != "" {
		s := strings.TrimSpace(*input.SponsorID)
		if s == id {
			return nil, domain.ErrSelfReferral
		}
		sponsorID = &s
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        id,
		SponsorID: sponsorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := uc.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		if sponsorID != nil {
			if _, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, *sponsorID); err != nil {
				return err
			}
		}
		return uc.accountRepo.Create(ctx, tx, account)
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *SponsorUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccounts lists accounts with pagination.
func (uc *SponsorUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = clampPage(limit, offset)
	return uc.accountRepo.List(ctx, limit, offset)
}

// SetSponsor links accountID to sponsorID. Self-referral and links that would
// close a cycle are rejected here, so the fan-out never sees one. A sponsor
// can be set only once; repeating the same link is a no-op.
func (uc *SponsorUseCase) SetSponsor(ctx context.Context, accountID, sponsorID string) error {
	if accountID == sponsorID {
		return domain.ErrSelfReferral
	}

	return uc.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		if err := uc.accountRepo.LockSponsorGraph(ctx, tx); err != nil {
			return err
		}

		ids := []string{accountID, sponsorID}
		sort.Strings(ids)

		accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(accounts) != len(ids) {
			return domain.ErrAccountNotFound
		}

		var account *domain.Account
		for _, a := range accounts {
			if a.ID == accountID {
				account = a
			}
		}

		if account.HasSponsor() {
			if *account.SponsorID == sponsorID {
				return nil
			}
			return domain.ErrSponsorAlreadySet
		}

		ancestors, err := uc.accountRepo.SponsorChainTx(ctx, tx, sponsorID, sponsorCycleCheckDepth)
		if err != nil {
			return err
		}
		for _, ancestor := range ancestors {
			if ancestor == accountID {
				return domain.ErrSponsorCycle
			}
		}

		return uc.accountRepo.SetSponsor(ctx, tx, accountID, sponsorID, time.Now().UTC())
	})
}

// SponsorChain returns the ancestors that receive commissions, nearest first.
func (uc *SponsorUseCase) SponsorChain(ctx context.Context, accountID string) ([]string, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return uc.accountRepo.SponsorChain(ctx, accountID, domain.MaxReferralDepth)
}
