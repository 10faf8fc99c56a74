package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	nats "github.com/nats-io/nats.go"
)

const defaultNatsURL = "nats://localhost:4222"

// event-cli — хвост журнала событий вселенной. Подписывается на subjects
// events.* стрима JetStream и печатает конверты по мере поступления.
//
// Примеры:
//   event-cli -cmd tail
//   event-cli -cmd tail -types DiscoveryEvent -since 1h
//   event-cli -cmd stats -since 24h

func main() {
	var (
		natsURL    = flag.String("nats", defaultNatsURL, "Адрес NATS сервера")
		stream     = flag.String("stream", "SURVEYOR", "Имя JetStream стрима")
		command    = flag.String("cmd", "tail", "Команда: tail, stats")
		eventTypes = flag.String("types", "", "Фильтр типов событий (через запятую)")
		since      = flag.String("since", "", "Читать события начиная с давности (например, 1h, 30m)")
		limit      = flag.Int("limit", 0, "Максимум событий (0 — без лимита)")
	)
	flag.Parse()

	nc, err := nats.Connect(*natsURL)
	if err != nil {
		log.Fatalf("Не удалось подключиться к NATS: %v", err)
	}
	defer nc.Drain()

	js, err := nc.JetStream()
	if err != nil {
		log.Fatalf("JetStream недоступен: %v", err)
	}

	types := parseStringList(*eventTypes)

	switch *command {
	case "tail":
		if err := tailEvents(js, *stream, types, *since, *limit); err != nil {
			log.Fatalf("Ошибка чтения событий: %v", err)
		}
	case "stats":
		if err := showStats(js, *stream, types, *since); err != nil {
			log.Fatalf("Ошибка подсчёта статистики: %v", err)
		}
	default:
		fmt.Printf("Неизвестная команда: %s\n", *command)
		fmt.Println("Доступные команды: tail, stats")
		os.Exit(1)
	}
}

// envelope — минимальная проекция конверта шины событий.
// Имена полей совпадают с eventbus.Envelope, теги не нужны.
type envelope struct {
	ID        string
	Source    string
	EventType string
	Priority  int
	Timestamp time.Time
	Payload   []byte
}

func subscribeOpts(since string) ([]nats.SubOpt, error) {
	opts := []nats.SubOpt{nats.OrderedConsumer()}
	if since == "" {
		opts = append(opts, nats.DeliverNew())
		return opts, nil
	}
	d, err := time.ParseDuration(since)
	if err != nil {
		return nil, fmt.Errorf("неверная длительность %q: %w", since, err)
	}
	opts = append(opts, nats.StartTime(time.Now().Add(-d)))
	return opts, nil
}

// tailEvents печатает события по мере поступления (как tail -f)
func tailEvents(js nats.JetStreamContext, stream string, types []string, since string, limit int) error {
	opts, err := subscribeOpts(since)
	if err != nil {
		return err
	}
	opts = append(opts, nats.BindStream(stream))

	count := 0
	done := make(chan struct{})
	sub, err := js.Subscribe("events.*", func(msg *nats.Msg) {
		var ev envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		if !matchType(ev.EventType, types) {
			return
		}
		printEvent(&ev)
		count++
		if limit > 0 && count >= limit {
			close(done)
		}
	}, opts...)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-done:
	}

	fmt.Printf("\nВсего событий: %d\n", count)
	return nil
}

// showStats считает события по типам за указанный период
func showStats(js nats.JetStreamContext, stream string, types []string, since string) error {
	if since == "" {
		since = "1h"
	}
	opts, err := subscribeOpts(since)
	if err != nil {
		return err
	}
	opts = append(opts, nats.BindStream(stream))

	byType := make(map[string]int)
	total := 0
	idle := time.NewTimer(2 * time.Second)

	sub, err := js.Subscribe("events.*", func(msg *nats.Msg) {
		var ev envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		if !matchType(ev.EventType, types) {
			return
		}
		byType[ev.EventType]++
		total++
		idle.Reset(2 * time.Second)
	}, opts...)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	// Стрим конечен: ждём, пока поток иссякнет
	<-idle.C

	fmt.Printf("Период: последние %s\n", since)
	fmt.Printf("Всего событий: %d\n\n", total)
	for evType, n := range byType {
		fmt.Printf("  %s: %d\n", evType, n)
	}
	return nil
}

func printEvent(ev *envelope) {
	fmt.Printf("[%s] %s src=%s prio=%d %s\n",
		ev.Timestamp.Format("15:04:05"),
		ev.EventType, ev.Source, ev.Priority, ev.ID)
	if len(ev.Payload) > 0 && string(ev.Payload) != "null" {
		fmt.Printf("  %s\n", compactJSON(ev.Payload))
	}
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func matchType(evType string, types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == evType {
			return true
		}
	}
	return false
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
