package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const pingTimeout = 2 * time.Second

// PoolStatus is the /health/db payload: a liveness verdict for the database
// plus the pool pressure counters worth alerting on.
type PoolStatus struct {
	Database     string `json:"database"`
	OpenConns    int32  `json:"open_conns"`
	BusyConns    int32  `json:"busy_conns"`
	IdleConns    int32  `json:"idle_conns"`
	MaxConns     int32  `json:"max_conns"`
	WaitCount    int64  `json:"wait_count"`
	WaitDuration string `json:"wait_duration"`
	Saturated    bool   `json:"saturated"`
}

// poolStat is the slice of pgxpool.Stat the snapshot reads, kept as an
// interface so the mapping is testable without a live pool.
type poolStat interface {
	TotalConns() int32
	AcquiredConns() int32
	IdleConns() int32
	MaxConns() int32
	EmptyAcquireCount() int64
	AcquireDuration() time.Duration
}

func snapshotPool(stat poolStat) PoolStatus {
	return PoolStatus{
		Database:     "up",
		OpenConns:    stat.TotalConns(),
		BusyConns:    stat.AcquiredConns(),
		IdleConns:    stat.IdleConns(),
		MaxConns:     stat.MaxConns(),
		WaitCount:    stat.EmptyAcquireCount(),
		WaitDuration: stat.AcquireDuration().String(),
		Saturated:    stat.AcquiredConns() >= stat.MaxConns(),
	}
}

// HealthHandler reports whether the database answers a ping and how much of
// the pool is in use. A failed ping answers 503 so load balancers stop
// routing traffic here.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		defer cancel()

		status := snapshotPool(pool.Stat())
		if err := pool.Ping(ctx); err != nil {
			status.Database = "down"
			return c.JSON(http.StatusServiceUnavailable, status)
		}
		return c.JSON(http.StatusOK, status)
	}
}
