package tui

import (
	"github.com/nepalihub/portal/internal/collection"
	"github.com/nepalihub/portal/internal/session"
)

// ChannelObserver adapts collection.Observer to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- CollectionChangedMsg
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- CollectionChangedMsg) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnChange sends the transition to the channel (non-blocking if full).
func (o *ChannelObserver) OnChange(kind collection.Kind, status collection.Status) {
	select {
	case o.ch <- CollectionChangedMsg{Kind: kind, Status: status}:
	default: // Non-blocking if channel full
	}
}

// subscribeSession forwards session snapshots to a channel. Only the
// latest snapshot matters, so a full channel drops the older one.
func subscribeSession(st *session.Store, ch chan session.State) func() {
	return st.Subscribe(func(s session.State) {
		for {
			select {
			case ch <- s:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
}
