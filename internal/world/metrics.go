package world

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики менеджера чанков. Регистрируются один раз на процесс через
// promauto в default registry; тесты пакета используют те же
// коллекторы, поэтому повторной регистрации не происходит.
var (
	chunksGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surveyor_chunks_generated_total",
		Help: "Общее число сгенерированных чанков",
	})

	chunkCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surveyor_chunk_cache_hits_total",
		Help: "Попадания в кеш чанков",
	})

	chunkCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surveyor_chunk_cache_misses_total",
		Help: "Промахи кеша чанков",
	})

	chunksActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "surveyor_chunks_active",
		Help: "Число чанков, находящихся в кеше",
	})

	chunkGenDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "surveyor_chunk_generation_duration_seconds",
		Help:    "Длительность генерации одного чанка",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
	})

	chunksEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "surveyor_chunks_evicted_total",
		Help: "Число чанков, выгруженных из кеша по удалённости",
	})
)
