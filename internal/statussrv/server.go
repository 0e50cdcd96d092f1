// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package statussrv is the optional HTTP surface for long-running
// ingests: liveness/readiness probes, the Prometheus scrape endpoint,
// and a read-only graph summary - one-shot over GET, live over a
// websocket - backed by the store adapter.
package statussrv

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/aleutian-oss/cxgraph/internal/obs"
	"github.com/aleutian-oss/cxgraph/internal/store"
)

// defaultSummaryInterval paces the websocket summary stream. Each tick
// costs one count query per label and edge kind, so sub-second
// intervals would hammer the store for no visible benefit.
const defaultSummaryInterval = 2 * time.Second

// summaryLabels are the node labels the graph summary counts, the same
// closed set internal/store constrains.
var summaryLabels = []string{"Project", "Folder", "File", "Function", "DataStructure"}

// summaryEdgeKinds are the relationship types the graph summary counts.
var summaryEdgeKinds = []string{"CONTAINS", "DEFINES", "INCLUDES", "CALLS"}

// Server wraps a gin engine around the status endpoints.
type Server struct {
	engine          *gin.Engine
	adapter         store.Adapter
	logger          *slog.Logger
	upgrader        websocket.Upgrader
	summaryInterval time.Duration
}

// New builds the status server. adapter may be nil, in which case the
// readiness probe reports not-ready and the summary endpoint returns
// 503 - useful when the server starts before the store connection.
func New(adapter store.Adapter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(obs.ServiceName))

	s := &Server{
		engine:          engine,
		adapter:         adapter,
		logger:          logger,
		summaryInterval: defaultSummaryInterval,
	}

	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/readyz", s.handleReadyz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1")
	v1.GET("/graph/summary", s.handleGraphSummary)
	v1.GET("/graph/summary/ws", s.handleGraphSummaryWS)

	return s
}

// Handler exposes the underlying http.Handler, for tests and for
// callers embedding the server into their own http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks serving on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("status server listening", slog.String("addr", addr))
	return s.engine.Run(addr)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReadyz reports ready only when the graph store answers a trivial
// query, so orchestration platforms don't route traffic to a process
// whose database is down.
func (s *Server) handleReadyz(c *gin.Context) {
	if s.adapter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "no store configured"})
		return
	}
	if _, err := s.adapter.Query(c.Request.Context(), "RETURN 1 AS ok", nil); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store unreachable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// GraphSummary is the response shape of /v1/graph/summary.
type GraphSummary struct {
	Nodes map[string]int64 `json:"nodes"`
	Edges map[string]int64 `json:"edges"`
}

func (s *Server) handleGraphSummary(c *gin.Context) {
	if s.adapter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no store configured"})
		return
	}

	summary, err := s.graphSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// handleGraphSummaryWS streams the summary over a websocket, one frame
// immediately on connect and one per interval after that, until the
// peer disconnects or a summary query fails. This is the push
// counterpart of the polling GET endpoint, for dashboards following a
// multi-hour ingest live.
func (s *Server) handleGraphSummaryWS(c *gin.Context) {
	if s.adapter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no store configured"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake failure response.
		s.logger.Debug("summary websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.summaryInterval)
	defer ticker.Stop()

	for {
		summary, err := s.graphSummary(c.Request.Context())
		if err != nil {
			s.logger.Warn("summary websocket query failed", slog.String("error", err.Error()))
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "summary query failed"),
				time.Now().Add(time.Second))
			return
		}
		if err := conn.WriteJSON(summary); err != nil {
			return // peer went away
		}

		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}

// graphSummary runs the count queries behind both summary endpoints.
func (s *Server) graphSummary(ctx context.Context) (GraphSummary, error) {
	summary := GraphSummary{Nodes: make(map[string]int64), Edges: make(map[string]int64)}

	for _, label := range summaryLabels {
		rows, err := s.adapter.Query(ctx, fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS count", label), nil)
		if err != nil {
			return summary, err
		}
		summary.Nodes[label] = countFromRows(rows)
	}
	for _, kind := range summaryEdgeKinds {
		rows, err := s.adapter.Query(ctx, fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r) AS count", kind), nil)
		if err != nil {
			return summary, err
		}
		summary.Edges[kind] = countFromRows(rows)
	}
	return summary, nil
}

func countFromRows(rows []map[string]any) int64 {
	if len(rows) != 1 {
		return 0
	}
	if n, ok := rows[0]["count"].(int64); ok {
		return n
	}
	return 0
}
