package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func hitBalance(r *gin.Engine, orgID, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/v1/billing/balance", nil)
	if orgID != "" {
		req.Header.Set("X-Organization-ID", orgID)
	}
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	t.Run("honors the configured budget", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("org-alpha"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("org-alpha"))
	})

	t.Run("budgets are per key", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("org-alpha"))
		assert.True(t, limiter.Allow("org-alpha"))
		assert.False(t, limiter.Allow("org-alpha"))

		assert.True(t, limiter.Allow("org-beta"))
		assert.True(t, limiter.Allow("org-beta"))
	})

	t.Run("budget refills after the window", func(t *testing.T) {
		limiter := NewRateLimiter(2, 50*time.Millisecond)

		assert.True(t, limiter.Allow("org-gamma"))
		assert.True(t, limiter.Allow("org-gamma"))
		assert.False(t, limiter.Allow("org-gamma"))

		time.Sleep(60 * time.Millisecond)

		assert.True(t, limiter.Allow("org-gamma"))
	})

	t.Run("remaining tracks consumption", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)

		assert.Equal(t, 5, limiter.Remaining("org-fresh"))
		limiter.Allow("org-fresh")
		limiter.Allow("org-fresh")
		assert.Equal(t, 3, limiter.Remaining("org-fresh"))
	})

	t.Run("safe under concurrent use", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Minute)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("org-contended") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 100, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(limit int) *gin.Engine {
		r := gin.New()
		r.Use(RateLimit(NewRateLimiter(limit, time.Minute)))
		r.GET("/api/v1/billing/balance", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		return r
	}

	t.Run("serves requests within the budget", func(t *testing.T) {
		router := newRouter(3)
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, hitBalance(router, "", "").Code)
		}
	})

	t.Run("answers 429 past the budget", func(t *testing.T) {
		router := newRouter(2)
		hitBalance(router, "", "")
		hitBalance(router, "", "")

		w := hitBalance(router, "", "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	})

	t.Run("keys on the organization header", func(t *testing.T) {
		router := newRouter(1)

		assert.Equal(t, http.StatusOK, hitBalance(router, "org-alpha", "").Code)
		assert.Equal(t, http.StatusTooManyRequests, hitBalance(router, "org-alpha", "").Code)

		// A different organization has its own budget.
		assert.Equal(t, http.StatusOK, hitBalance(router, "org-beta", "").Code)
	})
}

func TestRateLimitByKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(1, time.Minute)
	router := gin.New()
	router.Use(RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.GetHeader("X-User-ID")
	}))
	router.GET("/api/v1/billing/balance", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	do := func(userID string) int {
		req := httptest.NewRequest("GET", "/api/v1/billing/balance", nil)
		req.Header.Set("X-User-ID", userID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("user-1"))
	assert.Equal(t, http.StatusTooManyRequests, do("user-1"))
	assert.Equal(t, http.StatusOK, do("user-2"))
}

func TestAuthRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newAuthRouter := func(limit int) *gin.Engine {
		r := gin.New()
		r.Use(AuthRateLimit(NewRateLimiter(limit, time.Minute)))
		r.POST("/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})
		return r
	}

	login := func(r *gin.Engine, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("serves attempts within the budget", func(t *testing.T) {
		router := newAuthRouter(5)
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, login(router, "192.168.1.100:12345").Code)
		}
	})

	t.Run("answers 429 with the auth-specific code", func(t *testing.T) {
		router := newAuthRouter(3)
		for i := 0; i < 3; i++ {
			login(router, "192.168.1.100:12345")
		}

		w := login(router, "192.168.1.100:12345")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_RATE_LIMIT_EXCEEDED")
		assert.Contains(t, w.Body.String(), "Too many authentication attempts")
	})

	t.Run("exposes budget headers", func(t *testing.T) {
		router := newAuthRouter(5)

		w := login(router, "192.168.1.100:12345")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("tells blocked callers when to retry", func(t *testing.T) {
		router := newAuthRouter(1)
		login(router, "192.168.1.100:12345")

		w := login(router, "192.168.1.100:12345")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
	})

	t.Run("budgets are per source IP", func(t *testing.T) {
		router := newAuthRouter(2)
		login(router, "192.168.1.1:12345")
		login(router, "192.168.1.1:12345")

		assert.Equal(t, http.StatusTooManyRequests, login(router, "192.168.1.1:12345").Code)
		assert.Equal(t, http.StatusOK, login(router, "192.168.1.2:12345").Code)
	})

	t.Run("auth budget is isolated from the global one", func(t *testing.T) {
		router := gin.New()

		authGroup := router.Group("/auth")
		authGroup.Use(AuthRateLimit(NewRateLimiter(2, time.Minute)))
		authGroup.POST("/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})

		router.Use(RateLimit(NewRateLimiter(100, time.Minute)))
		router.GET("/api/v1/billing/balance", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"data": "ok"})
		})

		exhaust := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest("POST", "/auth/login", nil)
			req.RemoteAddr = "192.168.1.100:12345"
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		exhaust()
		exhaust()
		assert.Equal(t, http.StatusTooManyRequests, exhaust().Code)

		// The billing API keeps its own budget.
		assert.Equal(t, http.StatusOK, hitBalance(router, "", "192.168.1.100:12345").Code)
	})
}
