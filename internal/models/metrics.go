package models

import "time"

// SystemMetrics is a lightweight snapshot of process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	StoreFetchCount          uint64    `json:"storeFetchCount"`
	AverageStoreFetchMs      float64   `json:"averageStoreFetchMs"`
	StoreFetchFailures       uint64    `json:"storeFetchFailures"`
	ListingsCreated          uint64    `json:"listingsCreated"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
