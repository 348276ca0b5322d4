package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"squabble_server/internal/domain"
	"squabble_server/internal/game"
	"squabble_server/internal/logger"
	"squabble_server/internal/metrics"
)

const roomKeyPrefix = "game_room:"

// RoomRegistry - комнаты в памяти поверх долговременного кэша.
// Кэш вспомогательный, финансовые факты живут в журнале участников.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*game.Session

	games    GameStore
	cache    SessionCache
	duration int
	ttl      time.Duration
	group    singleflight.Group
	log      *slog.Logger
}

func NewRoomRegistry(games GameStore, cache SessionCache, durationSec int, ttl time.Duration) *RoomRegistry {
	return &RoomRegistry{
		rooms:    make(map[string]*game.Session),
		games:    games,
		cache:    cache,
		duration: durationSec,
		ttl:      ttl,
		log:      logger.Component("registry"),
	}
}

func roomKey(gameID string) string {
	return roomKeyPrefix + gameID
}

// Create создает пустую комнату для существующей игры с контрактом
func (r *RoomRegistry) Create(ctx context.Context, gameID string) (*game.Session, error) {
	g, err := r.games.GetByID(ctx, gameID)
	if err != nil {
		metrics.Failure("game_store")
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	if g == nil {
		return nil, newValidation(CodeGameNotFound, "game %s not found", gameID)
	}
	if g.ContractGameID == nil {
		return nil, newValidation(CodeNoContract, "game %s has no contract", gameID)
	}
	if g.Status != domain.GameStatusPending {
		return nil, newValidation(CodeAlreadyStarted, "game %s is %s", gameID, g.Status)
	}

	s := game.NewSession(g, r.duration)

	r.mu.Lock()
	if existing, ok := r.rooms[gameID]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.rooms[gameID] = s
	n := len(r.rooms)
	r.mu.Unlock()
	metrics.RoomsActive.Set(float64(n))

	s.Lock()
	snap := s.Snapshot()
	s.Unlock()
	if err := r.SaveSnapshot(ctx, snap); err != nil {
		r.log.Warn("cache write failed", "game_id", gameID, "error", err)
	}

	r.log.Info("room created", "game_id", gameID, "contract_game_id", s.ContractGameID, "bet", s.BetAmount)
	return s, nil
}

// Get ищет комнату в памяти, затем в кэше. nil если нет или данные битые.
func (r *RoomRegistry) Get(ctx context.Context, gameID string) *game.Session {
	r.mu.RLock()
	s, ok := r.rooms[gameID]
	r.mu.RUnlock()
	if ok {
		metrics.CacheLoads.WithLabelValues(metrics.CacheMemory).Inc()
		return s
	}

	loaded := r.load(ctx, gameID)
	if loaded == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rooms[gameID]; ok {
		return existing
	}
	r.rooms[gameID] = loaded
	metrics.RoomsActive.Set(float64(len(r.rooms)))
	return loaded
}

func (r *RoomRegistry) load(ctx context.Context, gameID string) *game.Session {
	raw, ok, err := r.cache.Get(ctx, roomKey(gameID))
	if err != nil {
		metrics.Failure("session_cache")
		r.log.Warn("cache read failed", "game_id", gameID, "error", err)
		return nil
	}
	if !ok {
		metrics.CacheLoads.WithLabelValues(metrics.CacheMiss).Inc()
		return nil
	}

	var snap game.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		metrics.CacheLoads.WithLabelValues(metrics.CacheMalformed).Inc()
		r.log.Error("malformed room payload", "game_id", gameID, "error", err)
		return nil
	}
	if snap.ID != gameID {
		metrics.CacheLoads.WithLabelValues(metrics.CacheMalformed).Inc()
		r.log.Error("room payload id mismatch", "game_id", gameID, "payload_id", snap.ID)
		return nil
	}
	s, err := game.SessionFromSnapshot(&snap)
	if err != nil {
		metrics.CacheLoads.WithLabelValues(metrics.CacheMalformed).Inc()
		r.log.Error("invalid room payload", "game_id", gameID, "error", err)
		return nil
	}

	metrics.CacheLoads.WithLabelValues(metrics.CacheDurable).Inc()
	r.log.Info("room restored from cache", "game_id", gameID, "status", s.Status, "players", s.Roster.Len())
	return s
}

// GetOrCreate - параллельные загрузки одной комнаты схлопываются в один вызов
func (r *RoomRegistry) GetOrCreate(ctx context.Context, gameID string) (*game.Session, error) {
	v, err, _ := r.group.Do(gameID, func() (any, error) {
		if s := r.Get(ctx, gameID); s != nil {
			return s, nil
		}
		return r.Create(ctx, gameID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*game.Session), nil
}

// Save снимает снимок под блокировкой комнаты и пишет в кэш
func (r *RoomRegistry) Save(ctx context.Context, s *game.Session) error {
	s.Lock()
	snap := s.Snapshot()
	s.Unlock()
	return r.SaveSnapshot(ctx, snap)
}

// SaveSnapshot пишет готовый снимок, блокировка комнаты не нужна.
// Снимок комнаты, которой уже нет в памяти, не пишется: Delete всегда побеждает.
func (r *RoomRegistry) SaveSnapshot(ctx context.Context, snap *game.Snapshot) error {
	if !r.tracked(snap.ID) {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", snap.ID, err)
	}
	if err := r.cache.SetWithTTL(ctx, roomKey(snap.ID), raw, r.ttl); err != nil {
		metrics.Failure("session_cache")
		return fmt.Errorf("cache room %s: %w", snap.ID, err)
	}
	// Delete мог пройти между проверкой и записью
	if !r.tracked(snap.ID) {
		if err := r.cache.Delete(ctx, roomKey(snap.ID)); err != nil {
			metrics.Failure("session_cache")
			return fmt.Errorf("drop stale room %s: %w", snap.ID, err)
		}
	}
	return nil
}

func (r *RoomRegistry) tracked(gameID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[gameID]
	return ok
}

// Delete убирает комнату из памяти и из кэша
func (r *RoomRegistry) Delete(ctx context.Context, gameID string) {
	r.mu.Lock()
	delete(r.rooms, gameID)
	n := len(r.rooms)
	r.mu.Unlock()
	metrics.RoomsActive.Set(float64(n))

	if err := r.cache.Delete(ctx, roomKey(gameID)); err != nil {
		metrics.Failure("session_cache")
		r.log.Warn("cache delete failed", "game_id", gameID, "error", err)
	}
}

// ActiveGameIDs - id комнат, найденных в кэше
func (r *RoomRegistry) ActiveGameIDs(ctx context.Context) ([]string, error) {
	keys, err := r.cache.ListByPrefix(ctx, roomKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, roomKeyPrefix))
	}
	return ids, nil
}

// Len - комнат в памяти
func (r *RoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
