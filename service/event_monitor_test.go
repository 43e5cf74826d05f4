package service

import (
	"context"
	"math/big"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/privacy-pool/pool"
	"github.com/vocdoni/privacy-pool/storage"
)

func TestEventMonitor(t *testing.T) {
	c := qt.New(t)
	p, _, ledger := newTestPool(c)

	received := make(chan *pool.Event, 8)
	monitor := NewEventMonitor(p, func(ev *pool.Event) { received <- ev })
	ctx := context.Background()
	c.Assert(monitor.Start(ctx), qt.IsNil)
	defer monitor.Stop()
	c.Assert(monitor.Start(ctx), qt.ErrorMatches, "service already running")

	depositor := vault
	depositor[0] = 0x01
	c.Assert(ledger.Mint(depositor, big.NewInt(5)), qt.IsNil)
	_, err := p.Deposit(ctx, depositor, big.NewInt(5), big.NewInt(42))
	c.Assert(err, qt.IsNil)
	c.Assert(p.WindDown(), qt.IsNil)

	for _, want := range []storage.EventType{storage.EventDeposited, storage.EventPoolWoundDown} {
		select {
		case ev := <-received:
			c.Assert(ev.Type, qt.Equals, want)
		case <-time.After(5 * time.Second):
			c.Fatalf("timeout waiting for %s", want)
		}
	}

	// nothing is delivered once stopped
	monitor.Stop()
	monitor.Stop()
	c.Assert(p.WindDown(), qt.ErrorIs, pool.ErrPoolIsDead)
	c.Assert(received, qt.HasLen, 0)
}

func TestEventMonitorDefaultHandler(t *testing.T) {
	c := qt.New(t)
	p, _, _ := newTestPool(c)
	monitor := NewEventMonitor(p, nil)
	c.Assert(monitor.Start(context.Background()), qt.IsNil)
	c.Assert(p.WindDown(), qt.IsNil)
	monitor.Stop()
}
