package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexIndependentKeys(t *testing.T) {
	var k keyedMutex
	unlockA := k.Lock("a")

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	unlockA()
	assert.Zero(t, k.size())
}

func TestKeyedMutexSameKey(t *testing.T) {
	var k keyedMutex
	var mu sync.Mutex
	order := []int{}

	unlock := k.Lock("a")
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		u := k.Lock("a")
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		u()
	}()

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	unlock()
	wg.Wait()

	assert.Equal(t, []int{1, 2}, order)
	assert.Zero(t, k.size())
}
