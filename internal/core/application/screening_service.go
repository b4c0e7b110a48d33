package application

import (
	"context"
	"errors"
	"sync"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
)

// ScreeningService defines the methods of the application layer for the
// screening service, the surface open to any authenticated party.
type ScreeningService interface {
	SubmitCheck(
		ctx context.Context,
		submitter domain.Party,
		name, country, account CipherInput,
	) (*CheckInfo, error)
	GrantAccess(
		ctx context.Context,
		requester domain.Party,
		checkID uint64,
		grantee domain.Party,
	) error
	RevokeAccess(
		ctx context.Context,
		requester domain.Party,
		checkID uint64,
		grantee domain.Party,
	) error
	ListGrants(
		ctx context.Context,
		requester domain.Party,
		checkID uint64,
	) ([]GrantInfo, error)
	RevealCheckStatus(
		ctx context.Context,
		requester domain.Party,
		checkID uint64,
	) (uint8, error)
	GetCheckStatus(
		ctx context.Context,
		checkID uint64,
	) (string, error)
	GetCheckUser(
		ctx context.Context,
		checkID uint64,
	) (string, error)
	GetCheckTimestamp(
		ctx context.Context,
		checkID uint64,
	) (int64, error)
	GetCheckCount(ctx context.Context) (uint64, error)
	GetEntityCount(ctx context.Context) (uint64, error)
	IsCurator(ctx context.Context, party string) (bool, error)
	HasAccess(
		ctx context.Context,
		checkID uint64,
		party string,
	) (bool, error)
}

type screeningService struct {
	repoManager ports.RepoManager
	engine      ports.CryptoEngine
	pubsub      ports.SecurePubSub

	// stateLock is shared with the operator service so that folds and
	// watchlist mutations never interleave.
	stateLock *sync.Mutex
}

// NewScreeningService is a constructor function for ScreeningService.
func NewScreeningService(
	repoManager ports.RepoManager,
	engine ports.CryptoEngine,
	pubsub ports.SecurePubSub,
	stateLock *sync.Mutex,
) (ScreeningService, error) {
	if repoManager == nil {
		return nil, ErrMissingRepoManager
	}
	if engine == nil {
		return nil, ErrMissingCryptoEngine
	}
	if pubsub == nil {
		return nil, ErrMissingPubSubService
	}

	return &screeningService{
		repoManager: repoManager,
		engine:      engine,
		pubsub:      pubsub,
		stateLock:   stateLock,
	}, nil
}

func (s *screeningService) SubmitCheck(
	ctx context.Context, submitter domain.Party,
	name, country, account CipherInput,
) (*CheckInfo, error) {
	info, err := s.submitCheck(ctx, submitter, name, country, account)
	if err != nil {
		return nil, err
	}

	publishEvent(s.pubsub, TopicCheckCreated, map[string]interface{}{
		"check_id":  info.ID,
		"submitter": info.Submitter,
	})
	return info, nil
}

func (s *screeningService) GrantAccess(
	ctx context.Context, requester domain.Party,
	checkID uint64, grantee domain.Party,
) error {
	if err := s.grantAccess(ctx, requester, checkID, grantee); err != nil {
		return err
	}

	publishEvent(s.pubsub, TopicAccessGranted, map[string]interface{}{
		"check_id": checkID,
		"grantee":  grantee.String(),
	})
	return nil
}

func (s *screeningService) RevokeAccess(
	ctx context.Context, requester domain.Party,
	checkID uint64, grantee domain.Party,
) error {
	if err := s.revokeAccess(ctx, requester, checkID, grantee); err != nil {
		return err
	}

	publishEvent(s.pubsub, TopicAccessRevoked, map[string]interface{}{
		"check_id": checkID,
		"grantee":  grantee.String(),
	})
	return nil
}

func (s *screeningService) ListGrants(
	ctx context.Context, requester domain.Party, checkID uint64,
) ([]GrantInfo, error) {
	if _, err := s.getCheckForSubmitter(ctx, requester, checkID); err != nil {
		return nil, err
	}

	grants, err := s.repoManager.GrantRepository().ListGrants(ctx, checkID)
	if err != nil {
		return nil, err
	}

	list := make([]GrantInfo, 0, len(grants))
	for _, grant := range grants {
		list = append(list, GrantInfo{
			CheckID:   grant.CheckID,
			Grantee:   grant.Grantee.String(),
			CreatedAt: grant.CreatedAt,
		})
	}
	return list, nil
}

func (s *screeningService) RevealCheckStatus(
	ctx context.Context, requester domain.Party, checkID uint64,
) (uint8, error) {
	check, err := s.repoManager.CheckRepository().GetCheck(ctx, checkID)
	if err != nil {
		if errors.Is(err, domain.ErrCheckNotFound) {
			return 0, domain.ErrUnauthorized
		}
		return 0, err
	}

	if check.Submitter != requester {
		granted, err := s.repoManager.GrantRepository().IsGranted(
			ctx, checkID, requester,
		)
		if err != nil {
			return 0, err
		}
		if !granted {
			return 0, domain.ErrUnauthorized
		}
	}

	value, err := s.engine.Reveal(ctx, check.Status, requester)
	if err != nil {
		return 0, err
	}
	return uint8(value), nil
}

func (s *screeningService) GetCheckStatus(
	ctx context.Context, checkID uint64,
) (string, error) {
	check, err := s.repoManager.CheckRepository().GetCheck(ctx, checkID)
	if err != nil {
		if errors.Is(err, domain.ErrCheckNotFound) {
			return "", nil
		}
		return "", err
	}
	return check.Status.Handle, nil
}

func (s *screeningService) GetCheckUser(
	ctx context.Context, checkID uint64,
) (string, error) {
	check, err := s.repoManager.CheckRepository().GetCheck(ctx, checkID)
	if err != nil {
		if errors.Is(err, domain.ErrCheckNotFound) {
			return "", nil
		}
		return "", err
	}
	return check.Submitter.String(), nil
}

func (s *screeningService) GetCheckTimestamp(
	ctx context.Context, checkID uint64,
) (int64, error) {
	check, err := s.repoManager.CheckRepository().GetCheck(ctx, checkID)
	if err != nil {
		if errors.Is(err, domain.ErrCheckNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return check.CreatedAt, nil
}

func (s *screeningService) GetCheckCount(ctx context.Context) (uint64, error) {
	return s.repoManager.CheckRepository().GetCheckCount(ctx)
}

func (s *screeningService) GetEntityCount(ctx context.Context) (uint64, error) {
	return s.repoManager.EntityRepository().GetEntityCount(ctx)
}

func (s *screeningService) IsCurator(
	ctx context.Context, party string,
) (bool, error) {
	p, err := domain.ParseParty(party)
	if err != nil {
		return false, nil
	}

	state, err := s.repoManager.AccessRepository().GetAccessState(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAccessNotInitialized) {
			return false, nil
		}
		return false, err
	}
	return state.IsCurator(p), nil
}

func (s *screeningService) HasAccess(
	ctx context.Context, checkID uint64, party string,
) (bool, error) {
	p, err := domain.ParseParty(party)
	if err != nil {
		return false, nil
	}
	return s.repoManager.GrantRepository().IsGranted(ctx, checkID, p)
}

func (s *screeningService) submitCheck(
	ctx context.Context, submitter domain.Party,
	name, country, account CipherInput,
) (*CheckInfo, error) {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	qName, err := s.engine.VerifyInput(
		ctx, name.Blob, name.Proof, submitter, domain.CipherTypeUint64,
	)
	if err != nil {
		return nil, err
	}
	qCountry, err := s.engine.VerifyInput(
		ctx, country.Blob, country.Proof, submitter, domain.CipherTypeUint32,
	)
	if err != nil {
		return nil, err
	}
	qAccount, err := s.engine.VerifyInput(
		ctx, account.Blob, account.Proof, submitter, domain.CipherTypeAddress,
	)
	if err != nil {
		return nil, err
	}

	entities, err := s.repoManager.EntityRepository().GetAllEntities(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.screen(ctx, qName, qCountry, qAccount, entities)
	if err != nil {
		return nil, err
	}

	// The submitter can decrypt the verdict and its own query values, the
	// daemon keeps compute capability over the verdict. Capabilities are
	// issued before the check is stored so a failure leaves the check
	// counter untouched.
	for _, c := range []domain.Ciphertext{qName, qCountry, qAccount, status} {
		if err := s.engine.Allow(ctx, c, submitter); err != nil {
			return nil, err
		}
	}
	if err := s.engine.AllowSystem(ctx, status); err != nil {
		return nil, err
	}

	check, err := domain.NewCheck(submitter, status)
	if err != nil {
		return nil, err
	}
	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return s.repoManager.CheckRepository().AddCheck(ctx, check)
		},
	)
	if err != nil {
		return nil, err
	}
	check.ID = res.(uint64)

	return newCheckInfo(check), nil
}

// screen folds the whole watchlist over the confidential query. Every
// entity, inactive ones included, contributes the same fixed sequence of
// engine operations, so the trace depends only on the watchlist length,
// never on the screened subject nor on the verdict.
func (s *screeningService) screen(
	ctx context.Context,
	qName, qCountry, qAccount domain.Ciphertext,
	entities []domain.Entity,
) (domain.Ciphertext, error) {
	status, err := s.engine.Lift(
		ctx, uint64(domain.CheckStatusCompliant), domain.CipherTypeUint8,
	)
	if err != nil {
		return domain.Ciphertext{}, err
	}
	nonCompliant, err := s.engine.Lift(
		ctx, uint64(domain.CheckStatusNonCompliant), domain.CipherTypeUint8,
	)
	if err != nil {
		return domain.Ciphertext{}, err
	}

	for i := range entities {
		entity := entities[i]

		nameEq, err := s.engine.Eq(ctx, qName, entity.Name)
		if err != nil {
			return domain.Ciphertext{}, err
		}
		countryEq, err := s.engine.Eq(ctx, qCountry, entity.Country)
		if err != nil {
			return domain.Ciphertext{}, err
		}
		accountEq, err := s.engine.Eq(ctx, qAccount, entity.Account)
		if err != nil {
			return domain.Ciphertext{}, err
		}

		anyField, err := s.engine.Or(ctx, nameEq, countryEq)
		if err != nil {
			return domain.Ciphertext{}, err
		}
		anyField, err = s.engine.Or(ctx, anyField, accountEq)
		if err != nil {
			return domain.Ciphertext{}, err
		}

		// A deactivated entity still goes through the same operations but
		// can never flip the verdict.
		shouldFlag, err := s.engine.And(ctx, anyField, entity.Active)
		if err != nil {
			return domain.Ciphertext{}, err
		}

		status, err = s.engine.Select(ctx, shouldFlag, nonCompliant, status)
		if err != nil {
			return domain.Ciphertext{}, err
		}
	}

	return status, nil
}

func (s *screeningService) grantAccess(
	ctx context.Context, requester domain.Party,
	checkID uint64, grantee domain.Party,
) error {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	check, err := s.getCheckForSubmitter(ctx, requester, checkID)
	if err != nil {
		return err
	}

	grant, err := domain.NewGrant(checkID, grantee)
	if err != nil {
		return err
	}

	if err := s.engine.Allow(ctx, check.Status, grantee); err != nil {
		return err
	}

	_, err = s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return nil, s.repoManager.GrantRepository().AddGrant(ctx, grant)
		},
	)
	return err
}

func (s *screeningService) revokeAccess(
	ctx context.Context, requester domain.Party,
	checkID uint64, grantee domain.Party,
) error {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	if _, err := s.getCheckForSubmitter(ctx, requester, checkID); err != nil {
		return err
	}

	_, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return nil, s.repoManager.GrantRepository().RemoveGrant(
				ctx, checkID, grantee,
			)
		},
	)
	return err
}

// getCheckForSubmitter returns the check only if the requester is its
// submitter. An unknown check id reads as an authorization failure so that
// probing the ledger leaks nothing about which ids exist.
func (s *screeningService) getCheckForSubmitter(
	ctx context.Context, requester domain.Party, checkID uint64,
) (*domain.Check, error) {
	check, err := s.repoManager.CheckRepository().GetCheck(ctx, checkID)
	if err != nil {
		if errors.Is(err, domain.ErrCheckNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if check.Submitter != requester {
		return nil, domain.ErrUnauthorized
	}
	return check, nil
}
