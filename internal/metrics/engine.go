package metrics

import (
	"context"
	"time"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
)

type engineCollector struct {
	engine ports.CryptoEngine
}

// WrapEngine returns a CryptoEngine recording an outcome counter and a
// latency observation for every operation forwarded to the wrapped engine.
func WrapEngine(engine ports.CryptoEngine) ports.CryptoEngine {
	return &engineCollector{engine}
}

func (c *engineCollector) VerifyInput(
	ctx context.Context,
	blob, proof []byte, party domain.Party, typ domain.CipherType,
) (domain.Ciphertext, error) {
	started := time.Now()
	res, err := c.engine.VerifyInput(ctx, blob, proof, party, typ)
	observeEngineOp("verify_input", err, started)
	return res, err
}

func (c *engineCollector) Lift(
	ctx context.Context, value uint64, typ domain.CipherType,
) (domain.Ciphertext, error) {
	started := time.Now()
	res, err := c.engine.Lift(ctx, value, typ)
	observeEngineOp("lift", err, started)
	return res, err
}

func (c *engineCollector) Eq(
	ctx context.Context, a, b domain.Ciphertext,
) (domain.Ciphertext, error) {
	started := time.Now()
	res, err := c.engine.Eq(ctx, a, b)
	observeEngineOp("eq", err, started)
	return res, err
}

func (c *engineCollector) And(
	ctx context.Context, a, b domain.Ciphertext,
) (domain.Ciphertext, error) {
	started := time.Now()
	res, err := c.engine.And(ctx, a, b)
	observeEngineOp("and", err, started)
	return res, err
}

func (c *engineCollector) Or(
	ctx context.Context, a, b domain.Ciphertext,
) (domain.Ciphertext, error) {
	started := time.Now()
	res, err := c.engine.Or(ctx, a, b)
	observeEngineOp("or", err, started)
	return res, err
}

func (c *engineCollector) Select(
	ctx context.Context, cond, ifTrue, ifFalse domain.Ciphertext,
) (domain.Ciphertext, error) {
	started := time.Now()
	res, err := c.engine.Select(ctx, cond, ifTrue, ifFalse)
	observeEngineOp("select", err, started)
	return res, err
}

func (c *engineCollector) Allow(
	ctx context.Context, ct domain.Ciphertext, party domain.Party,
) error {
	started := time.Now()
	err := c.engine.Allow(ctx, ct, party)
	observeEngineOp("allow", err, started)
	return err
}

func (c *engineCollector) AllowSystem(
	ctx context.Context, ct domain.Ciphertext,
) error {
	started := time.Now()
	err := c.engine.AllowSystem(ctx, ct)
	observeEngineOp("allow_system", err, started)
	return err
}

func (c *engineCollector) Reveal(
	ctx context.Context, ct domain.Ciphertext, party domain.Party,
) (uint64, error) {
	started := time.Now()
	res, err := c.engine.Reveal(ctx, ct, party)
	observeEngineOp("reveal", err, started)
	return res, err
}

func (c *engineCollector) Close() {
	c.engine.Close()
}
