package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func (s *Server) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": s.config.Service.Name,
		"version": s.config.Service.Version,
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail records err on the context so it reaches the request span.
func fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) dbPing(c *gin.Context) {
	rows, err := s.db.Query(c.Request.Context(), "SELECT 1")
	if err != nil {
		fail(c, http.StatusServiceUnavailable, err)
		return
	}
	defer rows.Close()

	var one int
	for rows.Next() {
		if err := rows.Scan(&one); err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
	}
	if err := rows.Err(); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": one})
}

func (s *Server) cacheGet(c *gin.Context) {
	key := c.Param("key")
	value, err := s.cache.Get(c.Request.Context(), key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		c.JSON(http.StatusNotFound, gin.H{"key": key})
	case err != nil:
		fail(c, http.StatusServiceUnavailable, err)
	default:
		c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
	}
}

func (s *Server) proxy(c *gin.Context) {
	resp, err := s.client.Get(c.Request.Context(), s.config.Upstream.URL)
	if err != nil {
		fail(c, http.StatusBadGateway, err)
		return
	}
	c.Data(resp.StatusCode(), resp.Header().Get("Content-Type"), resp.Body())
}

func (s *Server) rpcHealth(c *gin.Context) {
	resp, err := healthpb.NewHealthClient(s.rpc).Check(c.Request.Context(), &healthpb.HealthCheckRequest{})
	if err != nil {
		fail(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": resp.GetStatus().String()})
}
