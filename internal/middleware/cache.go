package middleware

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rail-seat-booking/internal/config"
)

// captureWriter copies up to limit bytes of the response body while
// forwarding everything to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain := cw.limit - cw.size; remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// truncated reports whether the body exceeded the capture limit.
func (cw *captureWriter) truncated() bool {
	return cw.limit > 0 && cw.size > cw.limit
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// replay writes a stored response.  Content-Length is left to the server.
func replay(c echo.Context, status int, hdr http.Header, body []byte) {
	for k, vals := range hdr {
		if strings.EqualFold(k, echo.HeaderContentLength) {
			continue
		}
		for _, v := range vals {
			c.Response().Header().Add(k, v)
		}
	}
	c.Response().WriteHeader(status)
	if len(body) > 0 {
		_, _ = c.Response().Write(body)
	}
}

func cloneHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vals := range h {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// SeatMapCache caches seat listings per schedule in Redis.  Listings are
// display snapshots; booking always re-checks the seat in its own
// transaction, so a stale entry can at worst show a taken seat as free
// until the TTL or the next invalidation.
type SeatMapCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log logrus.FieldLogger
}

// NewSeatMapCache returns nil when caching is disabled or Redis is absent.
// A nil *SeatMapCache is valid and does nothing.
func NewSeatMapCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) *SeatMapCache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return &SeatMapCache{cfg: cfg, rdb: rdb, log: log}
}

func (s *SeatMapCache) key(scheduleID string) string {
	return s.cfg.Prefix + ":seats:" + scheduleID
}

func (s *SeatMapCache) genKey(scheduleID string) string {
	return s.key(scheduleID) + ":gen"
}

// storeIfCurrentScript writes the listing only while the generation read
// before rendering is still current. KEYS[1]=entry KEYS[2]=gen
// ARGV[1]=payload ARGV[2]=ttl ms ARGV[3]=expected gen
var storeIfCurrentScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[2]) or "0"
if gen ~= ARGV[3] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

// Middleware serves GET listings for the route parameter "id" from Redis
// and stores successful misses.  A miss is dropped when the schedule was
// invalidated while it was being rendered.
func (s *SeatMapCache) Middleware() echo.MiddlewareFunc {
	if s == nil {
		return passthrough
	}
	maxBody := int64(s.cfg.MaxBodyBytes)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Param("id")
			if c.Request().Method != http.MethodGet || id == "" {
				return next(c)
			}
			ctx := c.Request().Context()
			key := s.key(id)

			if bs, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					c.Response().Header().Set("X-Cache", "HIT")
					replay(c, status, hdr, body)
					return nil
				}
			}

			gen, err := s.rdb.Get(ctx, s.genKey(id)).Result()
			if errors.Is(err, redis.Nil) {
				gen = "0"
			} else if err != nil {
				gen = ""
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.truncated() || gen == "" {
				return nil
			}
			hdr := cloneHeader(c.Response().Header())
			hdr.Del("X-Cache")
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			keys := []string{key, s.genKey(id)}
			err = storeIfCurrentScript.Run(context.WithoutCancel(ctx), s.rdb, keys, payload, s.cfg.TTL.Milliseconds(), gen).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				s.log.WithError(err).WithField("key", key).Warn("seat cache store failed")
			}
			return nil
		}
	}
}

// InvalidateSchedule drops the cached listing of one schedule and bumps its
// generation so renders already in flight are not stored.
func (s *SeatMapCache) InvalidateSchedule(ctx context.Context, scheduleID uint64) {
	if s == nil {
		return
	}
	id := strconv.FormatUint(scheduleID, 10)
	key := s.key(id)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, s.genKey(id))
		p.Del(ctx, key)
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("seat cache invalidation failed")
	}
}
