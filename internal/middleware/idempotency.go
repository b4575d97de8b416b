package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rail-seat-booking/internal/config"
)

// HeaderIdempotencyKey is the request header clients use to make a POST
// safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	maxIdempotencyKeyLen = 128
	maxFingerprintBody   = 1 << 20
	fingerprintLen       = sha256.Size * 2 // hex
)

// releaseLockScript deletes the lock only if it still holds our token.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Idempotency replays the stored response of an earlier request that
// carried the same Idempotency-Key from the same caller.  The body is
// fingerprinted: reusing a key with a different body gets 422 instead of
// someone else's result.  While the first request is still running,
// duplicates get 409.  Only 2xx responses are stored; after a failure the
// key can be retried.  Requests without the header pass through untouched.
func Idempotency(cfg config.IdempotencyConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
			if raw == "" {
				return next(c)
			}
			if len(raw) > maxIdempotencyKeyLen {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "idempotency key too long"})
			}

			fingerprint, err := fingerprintBody(c.Request())
			if errors.Is(err, errBodyTooLarge) {
				return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "request body too large"})
			}
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
			}

			ctx := c.Request().Context()
			base := idempotencyKey(cfg.Prefix, userKey(c), c.Request().Method, c.Path(), raw)
			respKey, lockKey := base+":resp", base+":lock"

			if stored, err := rdb.Get(ctx, respKey).Bytes(); err == nil {
				if len(stored) >= fingerprintLen {
					if string(stored[:fingerprintLen]) != fingerprint {
						return keyReused(c)
					}
					if status, hdr, body, ok := decodePayload(stored[fingerprintLen:]); ok {
						c.Response().Header().Set("Idempotent-Replay", "true")
						replay(c, status, hdr, body)
						return nil
					}
				}
			} else if !errors.Is(err, redis.Nil) {
				log.WithError(err).Warn("idempotency: lookup failed, running request")
				return next(c)
			}

			token := uuid.NewString() + ":" + fingerprint
			acquired, err := rdb.SetNX(ctx, lockKey, token, cfg.LockTTL).Result()
			if err != nil {
				log.WithError(err).Warn("idempotency: lock failed, running request")
				return next(c)
			}
			if !acquired {
				if holder, err := rdb.Get(ctx, lockKey).Result(); err == nil && !strings.HasSuffix(holder, ":"+fingerprint) {
					return keyReused(c)
				}
				return c.JSON(http.StatusConflict, echo.Map{"error": "a request with this idempotency key is in progress"})
			}

			bg := context.WithoutCancel(ctx)
			defer func() {
				if err := releaseLockScript.Run(bg, rdb, []string{lockKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
					log.WithError(err).Warn("idempotency: lock release failed")
				}
			}()

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				return err
			}
			if cw.status < 200 || cw.status >= 300 {
				return nil
			}
			payload, err := encodePayload(cw.status, cloneHeader(c.Response().Header()), cw.buf.Bytes())
			if err != nil {
				return nil
			}
			stored := append([]byte(fingerprint), payload...)
			if err := rdb.Set(bg, respKey, stored, cfg.TTL).Err(); err != nil {
				log.WithError(err).Warn("idempotency: storing response failed")
			}
			return nil
		}
	}
}

func idempotencyKey(prefix, user, method, route, key string) string {
	sum := sha256.Sum256([]byte(method + " " + route + "\x00" + key))
	return prefix + ":" + user + ":" + hex.EncodeToString(sum[:16])
}

var errBodyTooLarge = errors.New("request body too large")

// fingerprintBody hashes the request body and puts it back for the handler.
func fingerprintBody(r *http.Request) (string, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, maxFingerprintBody+1))
		_ = r.Body.Close()
		if err != nil {
			return "", err
		}
		if len(body) > maxFingerprintBody {
			return "", errBodyTooLarge
		}
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

func keyReused(c echo.Context) error {
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "idempotency key reused with a different request"})
}
