package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// ResponseCache is a short-TTL cache for idempotent availability reads. The
// TTL is the only invalidation; it must stay well below the interval at
// which staff tolerate a stale slot list, since bookings do not purge it.
// A non-positive TTL disables the cache entirely.
type ResponseCache struct {
	store *gocache.Cache
	ttl   time.Duration
}

func NewResponseCache(ttl time.Duration) *ResponseCache {
	rc := &ResponseCache{ttl: ttl}
	if ttl > 0 {
		rc.store = gocache.New(ttl, 2*ttl)
	}
	return rc
}

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Cache serves GET responses from the store while they are fresh. Only
// successful responses are cached.
func (rc *ResponseCache) Cache() gin.HandlerFunc {
	if rc.store == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if cached, found := rc.store.Get(key); found {
			resp := cached.(*cachedResponse)
			c.Header("X-Cache", "HIT")
			c.Data(resp.Status, resp.ContentType, resp.Body)
			c.Abort()
			return
		}

		writer := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Next()

		if status := writer.Status(); status == http.StatusOK {
			rc.store.Set(key, &cachedResponse{
				Status:      status,
				ContentType: writer.Header().Get("Content-Type"),
				Body:        writer.body.Bytes(),
			}, rc.ttl)
		}
	}
}
