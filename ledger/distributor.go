package ledger

import (
	"sync"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// UpdateConsumerFunc adapts a function to an UpdateConsumer.
type UpdateConsumerFunc func(update model.LedgerUpdate)

func (f UpdateConsumerFunc) OnLedgerUpdate(update model.LedgerUpdate) { f(update) }

// UpdateDistributor fans ledger updates out to its subscribers. Consumers
// can subscribe after the ledger was built with the distributor.
type UpdateDistributor struct {
	lock        sync.RWMutex
	subscribers []UpdateConsumer
}

var _ UpdateConsumer = (*UpdateDistributor)(nil)

func NewUpdateDistributor() *UpdateDistributor {
	return &UpdateDistributor{}
}

func (d *UpdateDistributor) AddConsumer(consumer UpdateConsumer) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.subscribers = append(d.subscribers, consumer)
}

func (d *UpdateDistributor) OnLedgerUpdate(update model.LedgerUpdate) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, subscriber := range d.subscribers {
		subscriber.OnLedgerUpdate(update)
	}
}
