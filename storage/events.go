package storage

import (
	"fmt"

	"github.com/vocdoni/privacy-pool/log"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// AppendEvent stages ev in the event log. The caller assigns ev.Seq and keeps
// PoolMeta.EventCount in sync.
func (s *Storage) AppendEvent(wTx db.WriteTx, ev *Event) error {
	if ev == nil {
		return fmt.Errorf("nil event")
	}
	return setArtifact(wTx, eventPrefix, uint64Key(ev.Seq), ev)
}

// Event returns the event with sequence number seq or ErrNotFound.
func (s *Storage) Event(seq uint64) (*Event, error) {
	ev := &Event{}
	if err := getArtifact(s.db, eventPrefix, uint64Key(seq), ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Events returns up to limit events starting at sequence number from, in
// order. A limit <= 0 returns all of them.
func (s *Storage) Events(from uint64, limit int) ([]*Event, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, eventPrefix)
	events := []*Event{}
	if err := rd.Iterate(nil, func(k, v []byte) bool {
		if string(k) < string(uint64Key(from)) {
			return true
		}
		if limit > 0 && len(events) >= limit {
			return false
		}
		ev := &Event{}
		if err := decodeArtifact(v, ev); err != nil {
			log.Warnw("failed to decode event", "key", fmt.Sprintf("%x", k), "error", err.Error())
			return true
		}
		events = append(events, ev)
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
