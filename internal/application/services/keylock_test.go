package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_MutualExclusionPerKey(t *testing.T) {
	kl := newKeyLock()

	const goroutines = 32

	var (
		wg      sync.WaitGroup
		counter int
	)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock := kl.Lock("k-1")
			defer unlock()

			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter)
}

func TestKeyLock_EntriesReleased(t *testing.T) {
	kl := newKeyLock()

	unlock := kl.Lock("k-1")
	unlock()

	kl.mu.Lock()
	defer kl.mu.Unlock()
	assert.Empty(t, kl.locks, "released keys must not accumulate")
}

func TestKeyLock_DistinctKeysDoNotBlock(t *testing.T) {
	kl := newKeyLock()

	unlockA := kl.Lock("k-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := kl.Lock("k-b")
		unlockB()
		close(done)
	}()

	<-done // would deadlock if keys shared one lock
}
