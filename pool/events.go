package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/storage"
	"github.com/vocdoni/privacy-pool/types"
)

// Event is an entry of the pool event log.
type Event = storage.Event

// subscriberBuffer is the number of events a subscriber can lag behind
// before new events are dropped for it.
const subscriberBuffer = 64

func depositedEvent(depositor common.Address, commitment, label, value, precommitment *big.Int,
	index uint64, root *big.Int,
) *Event {
	return &Event{
		Type:          storage.EventDeposited,
		Account:       depositor,
		Commitment:    types.NewInt(commitment),
		Label:         types.NewInt(label),
		Value:         types.NewInt(value),
		Precommitment: types.NewInt(precommitment),
		LeafIndex:     index,
		Root:          types.NewInt(root),
	}
}

func withdrawnEvent(processooor common.Address, value, nullifierHash, newCommitment *big.Int,
	index uint64, root *big.Int,
) *Event {
	return &Event{
		Type:          storage.EventWithdrawn,
		Account:       processooor,
		Value:         types.NewInt(value),
		NullifierHash: types.NewInt(nullifierHash),
		NewCommitment: types.NewInt(newCommitment),
		LeafIndex:     index,
		Root:          types.NewInt(root),
	}
}

func ragequitEvent(depositor common.Address, commitment, label, value *big.Int) *Event {
	return &Event{
		Type:       storage.EventRagequit,
		Account:    depositor,
		Commitment: types.NewInt(commitment),
		Label:      types.NewInt(label),
		Value:      types.NewInt(value),
	}
}

func woundDownEvent() *Event {
	return &Event{Type: storage.EventPoolWoundDown}
}

// Subscribe returns a channel that receives the events of every committed
// transition and a function to cancel the subscription. Slow subscribers
// miss events, the event log keeps all of them.
func (p *Pool) Subscribe() (<-chan *Event, func()) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	id := p.nextSubID
	p.nextSubID++
	ch := make(chan *Event, subscriberBuffer)
	p.subs[id] = ch
	return ch, func() {
		p.subsMu.Lock()
		defer p.subsMu.Unlock()
		if c, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(c)
		}
	}
}

func (p *Pool) publish(events []*Event) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	for _, ev := range events {
		for id, ch := range p.subs {
			select {
			case ch <- ev:
			default:
				log.Warnw("event subscriber is full, dropping event", "subscriber", id, "seq", ev.Seq)
			}
		}
	}
}

// Events returns up to limit events of the log starting at sequence number
// from. A limit <= 0 returns all of them.
func (p *Pool) Events(from uint64, limit int) ([]*Event, error) {
	return p.stg.Events(from, limit)
}
