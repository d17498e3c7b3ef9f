// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/openfields/uaparse/internal/analyzer"
)

var (
	servePort      int
	serveRateRPS   float64
	serveRateBurst int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a demo HTTP server exposing /v1/parse and a live cache-stats stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildAnalyzer()
		if err != nil {
			return err
		}
		defer a.Close()

		router := gin.New()
		router.Use(gin.Recovery())
		router.Use(otelgin.Middleware("uaparse"))
		if serveRateRPS > 0 {
			router.Use(rateLimitMiddleware(rate.Limit(serveRateRPS), serveRateBurst))
		}

		v1 := router.Group("/v1")
		v1.POST("/parse", handleParse(a))
		v1.GET("/stats", handleStatsSocket(a))

		addr := ":" + strconv.Itoa(servePort)
		slog.Info("starting uaparse server", "address", addr)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-quit
			slog.Info("shutting down uaparse server")
			os.Exit(0)
		}()

		if err := router.Run(addr); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on")
	serveCmd.Flags().Float64Var(&serveRateRPS, "rate-limit", 0, "requests per second allowed process-wide (0 disables rate limiting)")
	serveCmd.Flags().IntVar(&serveRateBurst, "rate-burst", 20, "burst size for --rate-limit")
}

// rateLimitMiddleware rejects requests over a single process-wide
// golang.org/x/time/rate.Limiter with 429, once rps/burst are nonzero.
func rateLimitMiddleware(rps rate.Limit, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

type parseRequest struct {
	UserAgent string `json:"user_agent" binding:"required"`
}

func handleParse(a *analyzer.Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		logger := slog.With("request_id", requestID)

		var req parseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("bad parse request", "error", err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result := a.ParseContext(c.Request.Context(), req.UserAgent)
		c.Header("X-Request-ID", requestID)
		c.JSON(http.StatusOK, result.ToMap())
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStatsSocket streams the parse cache's current size once a second
// over a websocket connection, for a live demo dashboard.
func handleStatsSocket(a *analyzer.Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("stats websocket upgrade failed", "error", err.Error())
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-c.Request.Context().Done():
				return
			case <-ticker.C:
				msg := gin.H{"cache_len": a.CacheLen()}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}
}
