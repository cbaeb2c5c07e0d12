package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dbBatchSize = 50

// DBHandler is an slog.Handler that batches WARN+ logs into system_logs.
type DBHandler struct {
	db       *gorm.DB
	mu       sync.Mutex
	buffer   []models.SystemLog
	ticker   *time.Ticker
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewDBHandler(db *gorm.DB) *DBHandler {
	h := &DBHandler{
		db:     db,
		buffer: make([]models.SystemLog, 0, dbBatchSize),
		ticker: time.NewTicker(5 * time.Second),
		done:   make(chan struct{}),
	}
	h.wg.Add(1)
	go h.flushLoop()
	return h
}

func (h *DBHandler) flushLoop() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ticker.C:
			h.Flush()
		case <-h.done:
			h.Flush()
			return
		}
	}
}

// Flush writes buffered records. A failed flush is reported on stderr so it
// never loops back into this handler.
func (h *DBHandler) Flush() {
	h.mu.Lock()
	if len(h.buffer) == 0 {
		h.mu.Unlock()
		return
	}
	batch := h.buffer
	h.buffer = make([]models.SystemLog, 0, dbBatchSize)
	h.mu.Unlock()

	if err := h.db.CreateInBatches(batch, dbBatchSize).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush %d system logs to DB: %v\n", len(batch), err)
	}
}

func (h *DBHandler) Stop() {
	h.stopOnce.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
	h.wg.Wait()
}

// Enabled only handles WARN and above.
func (h *DBHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn
}

func (h *DBHandler) Handle(_ context.Context, record slog.Record) error {
	h.handle(record, nil)
	return nil
}

func (h *DBHandler) handle(record slog.Record, preset []slog.Attr) {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "action":
			entry.Action = a.Value.String()
		case "user_id":
			if id, ok := a.Value.Any().(int64); ok {
				entry.UserID = &id
			}
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range preset {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.mu.Lock()
	h.buffer = append(h.buffer, entry)
	needFlush := len(h.buffer) >= dbBatchSize
	h.mu.Unlock()

	if needFlush {
		go h.Flush()
	}
}

func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dbChild{root: h, attrs: attrs}
}

func (h *DBHandler) WithGroup(string) slog.Handler {
	return h
}

// dbChild carries logger.With attributes and forwards to the root buffer.
type dbChild struct {
	root  *DBHandler
	attrs []slog.Attr
}

func (c *dbChild) Enabled(ctx context.Context, level slog.Level) bool {
	return c.root.Enabled(ctx, level)
}

func (c *dbChild) Handle(_ context.Context, record slog.Record) error {
	c.root.handle(record, c.attrs)
	return nil
}

func (c *dbChild) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(c.attrs)+len(attrs))
	merged = append(merged, c.attrs...)
	merged = append(merged, attrs...)
	return &dbChild{root: c.root, attrs: merged}
}

func (c *dbChild) WithGroup(string) slog.Handler {
	return c
}
