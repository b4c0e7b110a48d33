package application

import (
	"context"
	"sync"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
)

// OperatorService defines the methods of the application layer for the
// operator service, the surface reserved to the registry owner and the
// curators.
type OperatorService interface {
	InitAccess(
		ctx context.Context,
		owner domain.Party,
	) error
	AddCurator(
		ctx context.Context,
		requester, curator domain.Party,
	) error
	RemoveCurator(
		ctx context.Context,
		requester, curator domain.Party,
	) error
	TransferOwnership(
		ctx context.Context,
		requester, newOwner domain.Party,
	) error
	GetAccessInfo(
		ctx context.Context,
	) (*AccessInfo, error)
	AddEntity(
		ctx context.Context,
		requester domain.Party,
		name, country, account CipherInput,
	) (*EntityInfo, error)
	DeactivateEntity(
		ctx context.Context,
		requester domain.Party,
		entityID uint64,
	) error
	ReactivateEntity(
		ctx context.Context,
		requester domain.Party,
		entityID uint64,
	) error
	GetInfo(
		ctx context.Context,
	) (*RegistryInfo, error)
	AddWebhook(
		ctx context.Context,
		topic, endpoint, secret string,
	) (string, error)
	RemoveWebhook(
		ctx context.Context,
		id string,
	) error
	ListWebhooks(
		ctx context.Context,
		topic string,
	) ([]WebhookInfo, error)
}

type operatorService struct {
	repoManager ports.RepoManager
	engine      ports.CryptoEngine
	pubsub      ports.SecurePubSub
	buildInfo   BuildInfo

	// stateLock serializes every state mutation with the screening folds so
	// that checks always observe a settled watchlist.
	stateLock *sync.Mutex
}

// NewOperatorService is a constructor function for OperatorService.
func NewOperatorService(
	repoManager ports.RepoManager,
	engine ports.CryptoEngine,
	pubsub ports.SecurePubSub,
	buildInfo BuildInfo,
	stateLock *sync.Mutex,
) (OperatorService, error) {
	if repoManager == nil {
		return nil, ErrMissingRepoManager
	}
	if engine == nil {
		return nil, ErrMissingCryptoEngine
	}
	if pubsub == nil {
		return nil, ErrMissingPubSubService
	}

	return &operatorService{
		repoManager: repoManager,
		engine:      engine,
		pubsub:      pubsub,
		buildInfo:   buildInfo,
		stateLock:   stateLock,
	}, nil
}

func (o *operatorService) InitAccess(
	ctx context.Context, owner domain.Party,
) error {
	o.stateLock.Lock()
	defer o.stateLock.Unlock()

	state, err := domain.NewAccessState(owner)
	if err != nil {
		return err
	}

	_, err = o.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return nil, o.repoManager.AccessRepository().InitAccessState(ctx, state)
		},
	)
	return err
}

func (o *operatorService) AddCurator(
	ctx context.Context, requester, curator domain.Party,
) error {
	if err := o.updateAccessState(
		ctx, requester, func(state *domain.AccessState) error {
			return state.AddCurator(curator)
		},
	); err != nil {
		return err
	}

	publishEvent(o.pubsub, TopicCuratorAdded, map[string]interface{}{
		"curator": curator.String(),
	})
	return nil
}

func (o *operatorService) RemoveCurator(
	ctx context.Context, requester, curator domain.Party,
) error {
	if err := o.updateAccessState(
		ctx, requester, func(state *domain.AccessState) error {
			state.RemoveCurator(curator)
			return nil
		},
	); err != nil {
		return err
	}

	publishEvent(o.pubsub, TopicCuratorRemoved, map[string]interface{}{
		"curator": curator.String(),
	})
	return nil
}

func (o *operatorService) TransferOwnership(
	ctx context.Context, requester, newOwner domain.Party,
) error {
	var previousOwner domain.Party
	if err := o.updateAccessState(
		ctx, requester, func(state *domain.AccessState) error {
			previousOwner = state.Owner
			return state.TransferTo(newOwner)
		},
	); err != nil {
		return err
	}

	publishEvent(o.pubsub, TopicOwnershipTransferred, map[string]interface{}{
		"previous_owner": previousOwner.String(),
		"new_owner":      newOwner.String(),
	})
	return nil
}

func (o *operatorService) GetAccessInfo(
	ctx context.Context,
) (*AccessInfo, error) {
	state, err := o.repoManager.AccessRepository().GetAccessState(ctx)
	if err != nil {
		return nil, err
	}
	return newAccessInfo(state), nil
}

func (o *operatorService) AddEntity(
	ctx context.Context, requester domain.Party,
	name, country, account CipherInput,
) (*EntityInfo, error) {
	info, err := o.addEntity(ctx, requester, name, country, account)
	if err != nil {
		return nil, err
	}

	publishEvent(o.pubsub, TopicEntityAdded, map[string]interface{}{
		"entity_id": info.ID,
		"curator":   requester.String(),
	})
	return info, nil
}

func (o *operatorService) DeactivateEntity(
	ctx context.Context, requester domain.Party, entityID uint64,
) error {
	if err := o.setEntityActiveFlag(ctx, requester, entityID, 0); err != nil {
		return err
	}

	publishEvent(o.pubsub, TopicEntityDeactivated, map[string]interface{}{
		"entity_id": entityID,
		"curator":   requester.String(),
	})
	return nil
}

func (o *operatorService) ReactivateEntity(
	ctx context.Context, requester domain.Party, entityID uint64,
) error {
	if err := o.setEntityActiveFlag(ctx, requester, entityID, 1); err != nil {
		return err
	}

	publishEvent(o.pubsub, TopicEntityReactivated, map[string]interface{}{
		"entity_id": entityID,
		"curator":   requester.String(),
	})
	return nil
}

func (o *operatorService) GetInfo(ctx context.Context) (*RegistryInfo, error) {
	state, err := o.repoManager.AccessRepository().GetAccessState(ctx)
	if err != nil {
		return nil, err
	}
	entityCount, err := o.repoManager.EntityRepository().GetEntityCount(ctx)
	if err != nil {
		return nil, err
	}
	checkCount, err := o.repoManager.CheckRepository().GetCheckCount(ctx)
	if err != nil {
		return nil, err
	}

	return &RegistryInfo{
		Owner:       state.Owner.String(),
		EntityCount: entityCount,
		CheckCount:  checkCount,
		BuildInfo:   o.buildInfo,
	}, nil
}

func (o *operatorService) AddWebhook(
	ctx context.Context, topic, endpoint, secret string,
) (string, error) {
	if !isValidTopic(topic) {
		return "", ErrUnknownTopic
	}
	return o.pubsub.Subscribe(topic, endpoint, secret)
}

func (o *operatorService) RemoveWebhook(ctx context.Context, id string) error {
	return o.pubsub.Unsubscribe("", id)
}

func (o *operatorService) ListWebhooks(
	ctx context.Context, topic string,
) ([]WebhookInfo, error) {
	if topic != "" && !isValidTopic(topic) {
		return nil, ErrUnknownTopic
	}

	subs := o.pubsub.ListSubscriptionsForTopic(topic)
	list := make([]WebhookInfo, 0, len(subs))
	for _, sub := range subs {
		list = append(list, newWebhookInfo(sub))
	}
	return list, nil
}

// updateAccessState applies an owner-only role change. The authorization
// check and the mutation commit within the same transaction.
func (o *operatorService) updateAccessState(
	ctx context.Context, requester domain.Party,
	updateFn func(state *domain.AccessState) error,
) error {
	o.stateLock.Lock()
	defer o.stateLock.Unlock()

	_, err := o.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return nil, o.repoManager.AccessRepository().UpdateAccessState(
				ctx, func(state *domain.AccessState) (*domain.AccessState, error) {
					if !state.IsOwner(requester) {
						return nil, domain.ErrUnauthorized
					}
					if err := updateFn(state); err != nil {
						return nil, err
					}
					return state, nil
				},
			)
		},
	)
	return err
}

func (o *operatorService) addEntity(
	ctx context.Context, requester domain.Party,
	name, country, account CipherInput,
) (*EntityInfo, error) {
	o.stateLock.Lock()
	defer o.stateLock.Unlock()

	if err := o.requireCurator(ctx, requester); err != nil {
		return nil, err
	}

	nameCt, err := o.engine.VerifyInput(
		ctx, name.Blob, name.Proof, requester, domain.CipherTypeUint64,
	)
	if err != nil {
		return nil, err
	}
	countryCt, err := o.engine.VerifyInput(
		ctx, country.Blob, country.Proof, requester, domain.CipherTypeUint32,
	)
	if err != nil {
		return nil, err
	}
	accountCt, err := o.engine.VerifyInput(
		ctx, account.Blob, account.Proof, requester, domain.CipherTypeAddress,
	)
	if err != nil {
		return nil, err
	}

	// Entities are registered active, the flag is encrypted like any other
	// confidential field so that toggles are indistinguishable on the wire.
	activeCt, err := o.engine.Lift(ctx, 1, domain.CipherTypeBool)
	if err != nil {
		return nil, err
	}

	for _, c := range []domain.Ciphertext{nameCt, countryCt, accountCt, activeCt} {
		if err := o.engine.AllowSystem(ctx, c); err != nil {
			return nil, err
		}
	}

	entity, err := domain.NewEntity(nameCt, countryCt, accountCt, activeCt)
	if err != nil {
		return nil, err
	}

	res, err := o.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return o.repoManager.EntityRepository().AddEntity(ctx, entity)
		},
	)
	if err != nil {
		return nil, err
	}

	return &EntityInfo{
		ID:        res.(uint64),
		CreatedAt: entity.CreatedAt,
	}, nil
}

func (o *operatorService) setEntityActiveFlag(
	ctx context.Context, requester domain.Party, entityID uint64, active uint64,
) error {
	o.stateLock.Lock()
	defer o.stateLock.Unlock()

	if err := o.requireCurator(ctx, requester); err != nil {
		return err
	}
	if _, err := o.repoManager.EntityRepository().GetEntity(
		ctx, entityID,
	); err != nil {
		return err
	}

	activeCt, err := o.engine.Lift(ctx, active, domain.CipherTypeBool)
	if err != nil {
		return err
	}
	if err := o.engine.AllowSystem(ctx, activeCt); err != nil {
		return err
	}

	_, err = o.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return nil, o.repoManager.EntityRepository().UpdateEntity(
				ctx, entityID, func(entity *domain.Entity) (*domain.Entity, error) {
					if err := entity.UpdateActiveFlag(activeCt); err != nil {
						return nil, err
					}
					return entity, nil
				},
			)
		},
	)
	return err
}

func (o *operatorService) requireCurator(
	ctx context.Context, party domain.Party,
) error {
	state, err := o.repoManager.AccessRepository().GetAccessState(ctx)
	if err != nil {
		return err
	}
	if !state.IsCurator(party) {
		return domain.ErrUnauthorized
	}
	return nil
}
