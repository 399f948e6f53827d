package store

import (
	"context"
	"time"
)

// HealthStatus reports the current state of the connection pool.
type HealthStatus struct {
	Status          string
	ResponseTime    time.Duration
	OpenConnections int
	InUse           int
	Idle            int
	WaitCount       int64
	WaitDuration    time.Duration
	MaxOpenConns    int
}

// Health pings the database and reports pool statistics.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	err := c.db.PingContext(ctx)
	elapsed := time.Since(start)

	if err != nil {
		return HealthStatus{Status: "unhealthy", ResponseTime: elapsed}
	}

	stats := c.db.Stats()
	return HealthStatus{
		Status:          "healthy",
		ResponseTime:    elapsed,
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		WaitCount:       stats.WaitCount,
		WaitDuration:    stats.WaitDuration,
		MaxOpenConns:    stats.MaxOpenConns,
	}
}
