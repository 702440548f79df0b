package server

import (
	"net/http"
	"time"

	"github.com/danmuck/xelactl/internal/grid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type sensorView struct {
	ID   string    `json:"id"`
	Grid grid.Grid `json:"grid"`
}

type snapshotView struct {
	Count   int          `json:"count"`
	Sensors []sensorView `json:"sensors"`
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": "xelactl",
		}
		if s.health != nil {
			body["receiver"] = s.health.Health()
		}
		c.JSON(http.StatusOK, body)
	})

	s.router.GET("/snapshot", func(c *gin.Context) {
		snap := s.table.Snapshot()
		view := snapshotView{Count: snap.Len(), Sensors: make([]sensorView, 0, snap.Len())}
		for _, id := range snap.IDs {
			view.Sensors = append(view.Sensors, sensorView{ID: id, Grid: snap.Grids[id]})
		}
		c.JSON(http.StatusOK, view)
	})

	s.router.GET("/snapshot/:id", func(c *gin.Context) {
		id := c.Param("id")
		g, ok := s.table.Snapshot().Grids[id]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown sensor", "id": id})
			return
		}
		c.JSON(http.StatusOK, sensorView{ID: id, Grid: g})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
