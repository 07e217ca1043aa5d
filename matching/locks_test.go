package matching

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairLocksSerializeSameKey(t *testing.T) {
	locks := newPairLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.acquire("alice_bob")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestPairLocksReleaseCleansUp(t *testing.T) {
	locks := newPairLocks()

	release := locks.acquire("alice_bob")
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "released locks should not linger in the map")
}

func TestPairLocksIndependentKeys(t *testing.T) {
	locks := newPairLocks()

	releaseA := locks.acquire("alice_bob")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB := locks.acquire("carol_dave")
		releaseB()
		close(done)
	}()

	// a held lock on one pair must not block another pair
	<-done
}
