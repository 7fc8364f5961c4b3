package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/transport/http/api"
)

const IdempotencyHeader = "Idempotency-Key"

var (
	ErrIdempotencyConflict   = errors.New("idempotency key conflicts with existing request")
	ErrIdempotencyInProgress = errors.New("idempotency key is held by a request in flight")
)

// idempotencyLease bounds how long an unfinished reservation blocks its key,
// so a crashed request does not lock the key forever.
const idempotencyLease = 5 * time.Minute

// IdempotencyBackend persists the first successful response per key.
// Reserve claims the key before the handler runs: found reports a stored
// response to replay, ErrIdempotencyInProgress means another request holds
// the key. Release drops an unfinished reservation.
type IdempotencyBackend interface {
	Reserve(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, response json.RawMessage) error
	Release(ctx context.Context, tenantID, userID, endpoint, key string) error
}

type IdempotencyStore struct {
	db *pgxpool.Pool
}

func NewIdempotencyStore(db *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) Reserve(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, nil
	}
	var reserved bool
	err := s.db.QueryRow(ctx, `
    INSERT INTO idempotency_keys (tenant_id, user_id, key, endpoint, request_hash)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (tenant_id, user_id, key, endpoint)
    DO UPDATE SET request_hash = EXCLUDED.request_hash, created_at = now()
    WHERE idempotency_keys.response_json IS NULL AND idempotency_keys.created_at < $6
    RETURNING true
  `, tenantID, userID, key, endpoint, requestHash, time.Now().Add(-idempotencyLease)).Scan(&reserved)
	if err == nil {
		return nil, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	var storedHash string
	var completed bool
	var stored json.RawMessage
	err = s.db.QueryRow(ctx, `
    SELECT request_hash, response_json IS NOT NULL, COALESCE(response_json, 'null'::jsonb)
    FROM idempotency_keys
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4
  `, tenantID, userID, key, endpoint).Scan(&storedHash, &completed, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		// Released between the two statements; the caller may retry.
		return nil, false, ErrIdempotencyInProgress
	}
	if err != nil {
		return nil, false, err
	}
	if storedHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	if !completed {
		return nil, false, ErrIdempotencyInProgress
	}
	return stored, true, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, tenantID, userID, endpoint, key string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(ctx, `
    DELETE FROM idempotency_keys
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4 AND response_json IS NULL
  `, tenantID, userID, key, endpoint)
	return err
}

func (s *IdempotencyStore) Save(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.db == nil {
		return nil
	}
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (tenant_id, user_id, key, endpoint, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (tenant_id, user_id, key, endpoint)
    DO UPDATE SET response_json = EXCLUDED.response_json
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `, tenantID, userID, key, endpoint, requestHash, response)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key with the same body. Reusing a key with a different body, or
// while the first request is still running, is a 409. Only 2xx responses are
// stored, so failed attempts can be retried.
func Idempotency(store IdempotencyBackend) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if key == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			requestID := GetRequestID(r.Context())
			if len(key) > 255 {
				api.Fail(w, http.StatusBadRequest, "invalid_idempotency_key", "Idempotency-Key must be at most 255 characters", requestID)
				return
			}
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}

			raw, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "could not read request body", requestID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))

			endpoint := r.Method + " " + r.URL.Path
			hash := RequestHash(append([]byte(endpoint+"\n"+r.Header.Get("Content-Type")+"\n"), raw...))

			stored, found, err := store.Reserve(r.Context(), user.TenantID, user.UserID, endpoint, key, hash)
			switch {
			case errors.Is(err, ErrIdempotencyConflict):
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "Idempotency-Key was used with a different request", requestID)
				return
			case errors.Is(err, ErrIdempotencyInProgress):
				w.Header().Set("Retry-After", "1")
				api.Fail(w, http.StatusConflict, "idempotency_in_progress", "a request with this Idempotency-Key is still being processed", requestID)
				return
			case err != nil:
				api.Fail(w, http.StatusInternalServerError, "idempotency_error", "idempotency check failed", requestID)
				return
			}
			if found {
				var replay storedResponse
				if err := json.Unmarshal(stored, &replay); err != nil || replay.Status == 0 {
					api.Fail(w, http.StatusInternalServerError, "idempotency_error", "stored response is unreadable", requestID)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(replay.Status)
				_, _ = w.Write(replay.Body)
				return
			}

			buf := &bufferedWriter{header: w.Header()}
			next.ServeHTTP(buf, r)
			if buf.status == 0 {
				buf.status = http.StatusOK
			}

			// The reservation is settled even when the client has gone away.
			ctx := context.WithoutCancel(r.Context())
			saved := false
			if buf.status >= 200 && buf.status < 300 && json.Valid(buf.body.Bytes()) {
				record, err := json.Marshal(storedResponse{Status: buf.status, Body: buf.body.Bytes()})
				if err == nil {
					err = store.Save(ctx, user.TenantID, user.UserID, endpoint, key, hash, record)
				}
				if err != nil {
					slog.Warn("idempotency save failed", "endpoint", endpoint, "requestId", requestID, "err", err)
				}
				saved = err == nil
			}
			if !saved {
				if err := store.Release(ctx, user.TenantID, user.UserID, endpoint, key); err != nil {
					slog.Warn("idempotency release failed", "endpoint", endpoint, "requestId", requestID, "err", err)
				}
			}

			w.WriteHeader(buf.status)
			_, _ = w.Write(buf.body.Bytes())
		})
	}
}
