package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNewEnvelope(t *testing.T) {
	payload := map[string]string{"object_id": "star_0_0"}
	ev, err := NewEnvelope("discovery", EventDiscovery, 5, payload)
	if err != nil {
		t.Fatalf("Ошибка создания конверта: %v", err)
	}

	if ev.ID == "" {
		t.Error("Конверт без идентификатора")
	}
	if ev.EventType != EventDiscovery {
		t.Errorf("Неверный тип события: %s", ev.EventType)
	}
	if ev.Version != 1 {
		t.Errorf("Неверная версия схемы: %d", ev.Version)
	}
	if len(ev.Payload) == 0 {
		t.Error("Пустая полезная нагрузка")
	}

	other, _ := NewEnvelope("discovery", EventDiscovery, 5, payload)
	if ev.ID == other.ID {
		t.Error("Идентификаторы конвертов не уникальны")
	}
}

func TestMemoryBusPublishSubscribe(t *testing.T) {
	bus := NewMemoryBus(16)

	var mu sync.Mutex
	var received []*Envelope

	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Ошибка подписки: %v", err)
	}

	ev, _ := NewEnvelope("test", EventDiscovery, 5, nil)
	if err := bus.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Ошибка публикации: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, "Событие не доставлено подписчику")

	mu.Lock()
	if received[0].ID != ev.ID {
		t.Errorf("Доставлен чужой конверт: %s", received[0].ID)
	}
	mu.Unlock()
}

func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(16)

	var mu sync.Mutex
	var discoveries, all int

	bus.Subscribe(context.Background(), Filter{Types: []string{EventDiscovery}},
		func(ctx context.Context, ev *Envelope) {
			mu.Lock()
			discoveries++
			mu.Unlock()
		})
	bus.Subscribe(context.Background(), Filter{},
		func(ctx context.Context, ev *Envelope) {
			mu.Lock()
			all++
			mu.Unlock()
		})

	d, _ := NewEnvelope("test", EventDiscovery, 5, nil)
	s, _ := NewEnvelope("test", EventSeedReset, 5, nil)
	bus.Publish(context.Background(), d)
	bus.Publish(context.Background(), s)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return all == 2 && discoveries == 1
	}, "Фильтр по типу события работает неверно")
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(16)

	var mu sync.Mutex
	var count int

	sub, _ := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	ev1, _ := NewEnvelope("test", EventDiscovery, 5, nil)
	bus.Publish(context.Background(), ev1)
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, "Первое событие не доставлено")

	sub.Unsubscribe()

	ev2, _ := NewEnvelope("test", EventDiscovery, 5, nil)
	bus.Publish(context.Background(), ev2)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	if count != 1 {
		t.Errorf("Событие доставлено после отписки: count=%d", count)
	}
	mu.Unlock()
}

func TestMemoryBusDropsLowPriorityWhenFull(t *testing.T) {
	bus := NewMemoryBus(1)

	// Без подписчиков dispatchLoop вычитывает буфер; заполняем быстрее,
	// чем он успевает, низкоприоритетными событиями
	dropped := false
	for i := 0; i < 1000; i++ {
		ev, _ := NewEnvelope("test", EventDiscovery, 0, nil)
		bus.Publish(context.Background(), ev)
		if bus.Metrics().Dropped > 0 {
			dropped = true
			break
		}
	}
	if !dropped {
		t.Skip("Буфер ни разу не заполнился — гонка с dispatchLoop")
	}

	stats := bus.Metrics()
	if stats.Dropped == 0 {
		t.Error("Счётчик дропов не увеличился")
	}
}

func TestMemoryBusMetrics(t *testing.T) {
	bus := NewMemoryBus(16)

	ev, _ := NewEnvelope("test", EventDiscovery, 5, nil)
	bus.Publish(context.Background(), ev)

	stats := bus.Metrics()
	if stats.Published != 1 {
		t.Errorf("Published: ожидалось 1, получено %d", stats.Published)
	}
}
