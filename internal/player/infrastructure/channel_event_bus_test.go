package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/solenne/chorus/internal/player/domain"
)

const deliveryTimeout = 2 * time.Second

func TestChannelEventBus_DeliversToSubscriber(t *testing.T) {
	bus := NewChannelEventBus(8)
	defer bus.Close()

	received := make(chan domain.StatusChangedEvent, 1)
	bus.OnStatusChanged(func(_ context.Context, e domain.StatusChangedEvent) {
		received <- e
	})

	bus.PublishStatusChanged(domain.StatusChangedEvent{Status: domain.StatusPlaying})

	select {
	case e := <-received:
		if e.Status != domain.StatusPlaying {
			t.Errorf("expected playing, got %v", e.Status)
		}
	case <-time.After(deliveryTimeout):
		t.Fatal("timed out waiting for event")
	}
}

func TestChannelEventBus_DeliversToAllSubscribers(t *testing.T) {
	bus := NewChannelEventBus(8)
	defer bus.Close()

	first := make(chan struct{}, 1)
	second := make(chan struct{}, 1)
	bus.OnSyncProgress(func(_ context.Context, _ domain.SyncProgressEvent) {
		first <- struct{}{}
	})
	bus.OnSyncProgress(func(_ context.Context, _ domain.SyncProgressEvent) {
		second <- struct{}{}
	})

	bus.PublishSyncProgress(domain.SyncProgressEvent{Phase: domain.SyncScanning, Percentage: 10})

	for i, ch := range []chan struct{}{first, second} {
		select {
		case <-ch:
		case <-time.After(deliveryTimeout):
			t.Fatalf("subscriber %d did not receive event", i)
		}
	}
}

func TestChannelEventBus_CancelStopsDelivery(t *testing.T) {
	bus := NewChannelEventBus(8)
	defer bus.Close()

	cancelled := make(chan struct{}, 8)
	cancel := bus.OnTrackEnded(func(_ context.Context, _ domain.TrackEndedEvent) {
		cancelled <- struct{}{}
	})
	kept := make(chan struct{}, 8)
	bus.OnTrackEnded(func(_ context.Context, _ domain.TrackEndedEvent) {
		kept <- struct{}{}
	})

	cancel()
	bus.PublishTrackEnded(domain.TrackEndedEvent{Reason: domain.TrackEndFinished})

	select {
	case <-kept:
	case <-time.After(deliveryTimeout):
		t.Fatal("remaining subscriber did not receive event")
	}
	select {
	case <-cancelled:
		t.Error("cancelled subscriber still received event")
	default:
	}
}

func TestChannelEventBus_FullBufferKeepsNewestEvent(t *testing.T) {
	bus := NewChannelEventBus(1)
	defer bus.Close()

	gate := make(chan struct{})
	var mu sync.Mutex
	var got []float64
	bus.OnVolumeChanged(func(_ context.Context, e domain.VolumeChangedEvent) {
		mu.Lock()
		got = append(got, e.Volume)
		mu.Unlock()
		<-gate
	})

	delivered := func() []float64 {
		mu.Lock()
		defer mu.Unlock()
		out := make([]float64, len(got))
		copy(out, got)
		return out
	}
	waitForCount := func(n int) {
		t.Helper()
		deadline := time.Now().Add(deliveryTimeout)
		for len(delivered()) < n {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for %d deliveries, got %v", n, delivered())
			}
			time.Sleep(time.Millisecond)
		}
	}

	// First event occupies the handler, which blocks on the gate.
	bus.PublishVolumeChanged(domain.VolumeChangedEvent{Volume: 0.1})
	waitForCount(1)

	// Second fills the size-1 buffer; third must evict it, not be dropped.
	bus.PublishVolumeChanged(domain.VolumeChangedEvent{Volume: 0.2})
	bus.PublishVolumeChanged(domain.VolumeChangedEvent{Volume: 0.9})

	close(gate)
	waitForCount(2)

	want := []float64{0.1, 0.9}
	final := delivered()
	if len(final) != len(want) {
		t.Fatalf("expected %v, got %v", want, final)
	}
	for i := range want {
		if final[i] != want[i] {
			t.Errorf("expected %v, got %v", want, final)
			break
		}
	}
}

func TestChannelEventBus_PublishAfterCloseDropped(t *testing.T) {
	bus := NewChannelEventBus(8)

	received := make(chan struct{}, 1)
	bus.OnVolumeChanged(func(_ context.Context, _ domain.VolumeChangedEvent) {
		received <- struct{}{}
	})

	bus.Close()
	bus.PublishVolumeChanged(domain.VolumeChangedEvent{Volume: 0.5})

	select {
	case <-received:
		t.Error("event delivered after close")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannelEventBus_CloseIdempotent(t *testing.T) {
	bus := NewChannelEventBus(8)
	bus.Close()
	bus.Close()
}

func TestChannelEventBus_IndependentStreams(t *testing.T) {
	bus := NewChannelEventBus(8)
	defer bus.Close()

	statuses := make(chan struct{}, 8)
	bus.OnStatusChanged(func(_ context.Context, _ domain.StatusChangedEvent) {
		statuses <- struct{}{}
	})

	bus.PublishQueueChanged(domain.QueueChangedEvent{Generation: 1})
	bus.PublishStatusChanged(domain.StatusChangedEvent{Status: domain.StatusPaused})

	select {
	case <-statuses:
	case <-time.After(deliveryTimeout):
		t.Fatal("status subscriber did not receive event")
	}
	select {
	case <-statuses:
		t.Error("status subscriber received more than one event")
	default:
	}
}
