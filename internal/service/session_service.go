package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"squabble_server/internal/domain"
	"squabble_server/internal/game"
	"squabble_server/internal/logger"
	"squabble_server/internal/metrics"
)

// запасное стартовое слово, если словарь не дал подходящего
const fallbackSeedWord = "word"

type SessionConfig struct {
	TickInterval time.Duration
	CallTimeout  time.Duration
}

type SessionDeps struct {
	Registry   *RoomRegistry
	Games      GameStore
	Ledger     ParticipantLedger
	Dictionary game.Dictionary
	Letters    *game.LetterBag
	Chain      ChainSettler
	Stakes     StakeVerifier
	Out        Broadcaster
	Audit      Auditor
	Settlement *SettlementCoordinator
}

// SessionService - жизненный цикл комнат: лобби, старт, ходы, таймер, итог.
// Изменения в памяти идут под блокировкой комнаты, внешние вызовы после нее.
type SessionService struct {
	registry   *RoomRegistry
	games      GameStore
	ledger     ParticipantLedger
	dict       game.Dictionary
	letters    *game.LetterBag
	chain      ChainSettler
	stakes     StakeVerifier
	out        Broadcaster
	audit      Auditor
	settlement *SettlementCoordinator

	cfg    SessionConfig
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
	log    *slog.Logger
}

func NewSessionService(deps SessionDeps, cfg SessionConfig) *SessionService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &SessionService{
		registry:   deps.Registry,
		games:      deps.Games,
		ledger:     deps.Ledger,
		dict:       deps.Dictionary,
		letters:    deps.Letters,
		chain:      deps.Chain,
		stakes:     deps.Stakes,
		out:        deps.Out,
		audit:      deps.Audit,
		settlement: deps.Settlement,
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
		log:        logger.Component("session"),
	}
	if s.letters == nil {
		s.letters = game.NewLetterBag()
	}
	if s.chain == nil {
		s.chain = NoopSettler{}
	}
	if s.audit == nil {
		s.audit = NoopAuditor{}
	}
	if s.cfg.CallTimeout <= 0 {
		s.cfg.CallTimeout = 10 * time.Second
	}
	if s.cfg.TickInterval <= 0 {
		s.cfg.TickInterval = time.Second
	}
	if s.settlement == nil {
		s.settlement = NewSettlementCoordinator(s.games, s.ledger, s.chain, NoopNotifier{}, s.audit, s.cfg.CallTimeout)
	}
	return s
}

// Close останавливает все таймеры комнат
func (s *SessionService) Close() {
	s.cancel()
}

func (s *SessionService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.CallTimeout)
}

func metaOf(sess *game.Session) RoomMeta {
	return RoomMeta{
		GameID:         sess.ID,
		ContractGameID: sess.ContractGameID,
		ConversationID: sess.ConversationID,
		BetAmount:      sess.BetAmount,
	}
}

// fail отправляет ошибку только автору запроса
func (s *SessionService) fail(connID, gameID string, err error) error {
	ve := toValidation(err)
	s.out.SendTo(connID, domain.EventError, domain.ErrorPayload{GameID: gameID, Code: ve.Code, Message: ve.Message})
	if ve.Code == CodeUnavailable {
		s.log.Error("request failed", "game_id", gameID, "error", err)
	}
	return ve
}

func checkPlayer(p *domain.Player, gameID string) error {
	if p == nil || p.ID <= 0 {
		return newValidation(CodeBadRequest, "player is required")
	}
	if strings.TrimSpace(gameID) == "" {
		return newValidation(CodeBadRequest, "gameId is required")
	}
	return nil
}

func (s *SessionService) room(ctx context.Context, gameID string) (*game.Session, error) {
	sess := s.registry.Get(ctx, gameID)
	if sess == nil {
		return nil, newValidation(CodeGameNotFound, "game %s not found", gameID)
	}
	return sess, nil
}

func (s *SessionService) persist(ctx context.Context, snap *game.Snapshot) {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.registry.SaveSnapshot(callCtx, snap); err != nil {
		s.log.Warn("room persist failed", "game_id", snap.ID, "error", err)
	}
}

func (s *SessionService) upsertParticipant(ctx context.Context, gameID string, p *domain.Player, joined bool) {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	err := s.ledger.Upsert(callCtx, &domain.GameParticipant{
		PlayerID:    p.ID,
		GameID:      gameID,
		Joined:      joined,
		Paid:        p.Staked,
		PaymentHash: p.PaymentHash,
		Address:     p.Address,
	})
	if err != nil {
		metrics.Failure("ledger")
		s.log.Error("ledger upsert failed", "game_id", gameID, "player_id", p.ID, "error", err)
	}
}

func (s *SessionService) broadcastUpdate(gameID string, players []*domain.Player, status domain.GameStatus) {
	s.out.BroadcastToRoom(gameID, domain.EventGameUpdate, domain.GameUpdatePayload{
		GameID:  gameID,
		Players: players,
		Status:  status,
	})
}

// ConnectToLobby - вход или повторный вход игрока в комнату
func (s *SessionService) ConnectToLobby(ctx context.Context, connID string, req domain.LobbyRequest) error {
	if err := checkPlayer(req.Player, req.GameID); err != nil {
		return s.fail(connID, req.GameID, err)
	}

	sess, err := s.registry.GetOrCreate(ctx, req.GameID)
	if err != nil {
		return s.fail(connID, req.GameID, err)
	}

	prior := s.priorParticipant(ctx, req.Player.ID, req.GameID)

	in := req.Player.Clone()
	in.SocketID = connID

	sess.Lock()
	if sess.Status == domain.GameStatusFinished {
		sess.Unlock()
		return s.fail(connID, req.GameID, game.ErrNotPending)
	}
	if _, member := sess.Roster.Get(in.ID); !member && sess.Status != domain.GameStatusPending {
		sess.Unlock()
		return s.fail(connID, req.GameID, game.ErrNotPending)
	}
	joined, rejoined, err := sess.Roster.Join(in, prior, sess.IsPaid())
	if errors.Is(err, game.ErrRoomFull) {
		players := sess.Roster.Players()
		sess.Unlock()
		s.out.SendTo(connID, domain.EventGameFull, domain.GameFullPayload{GameID: req.GameID, Players: players})
		return toValidation(err)
	}
	if err != nil {
		sess.Unlock()
		return s.fail(connID, req.GameID, err)
	}
	player := joined.Clone()
	players := sess.Roster.Players()
	status := sess.Status
	snap := sess.Snapshot()
	var resume *domain.GameStartedPayload
	if status == domain.GameStatusPlaying {
		resume = s.startedPayload(sess)
	}
	meta := metaOf(sess)
	sess.Unlock()

	s.out.Subscribe(connID, req.GameID)
	s.persist(ctx, snap)
	s.upsertParticipant(ctx, req.GameID, player, true)

	if !rejoined {
		if !meta.isPaid() && player.Address != "" {
			callCtx, cancel := s.callCtx(ctx)
			if err := s.chain.JoinGame(callCtx, meta.ContractGameID, player.Address); err != nil {
				metrics.Failure("chain")
				s.log.Error("chain join failed", "game_id", req.GameID, "player_id", player.ID, "error", err)
			}
			cancel()
		}
		s.audit.Log(ctx, player.ID, req.GameID, domain.AuditActionJoin, domain.AuditCategoryLobby, nil)
	}

	s.log.Info("player joined", "game_id", req.GameID, "player_id", player.ID, "rejoined", rejoined, "players", len(players))
	s.out.BroadcastToRoom(req.GameID, domain.EventPlayerJoined, domain.PlayerJoinedPayload{Player: player, GameID: req.GameID})
	s.broadcastUpdate(req.GameID, players, status)
	if resume != nil {
		s.out.SendTo(connID, domain.EventGameStarted, resume)
	}
	return nil
}

func (m RoomMeta) isPaid() bool {
	return m.BetAmount > 0
}

func (s *SessionService) priorParticipant(ctx context.Context, playerID int64, gameID string) *domain.GameParticipant {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	prior, err := s.ledger.Get(callCtx, playerID, gameID)
	if err != nil {
		metrics.Failure("ledger")
		s.log.Warn("ledger lookup failed", "game_id", gameID, "player_id", playerID, "error", err)
		return nil
	}
	return prior
}

// PlayerReady - готовность в бесплатной игре, в платной нужна ставка
func (s *SessionService) PlayerReady(ctx context.Context, connID string, req domain.LobbyRequest) error {
	if err := checkPlayer(req.Player, req.GameID); err != nil {
		return s.fail(connID, req.GameID, err)
	}
	sess, err := s.room(ctx, req.GameID)
	if err != nil {
		return s.fail(connID, req.GameID, err)
	}

	sess.Lock()
	if sess.IsPaid() {
		sess.Unlock()
		return s.fail(connID, req.GameID, newValidation(CodeStakeRequired, "stake is required to get ready"))
	}
	if sess.Status != domain.GameStatusPending {
		sess.Unlock()
		return s.fail(connID, req.GameID, game.ErrNotPending)
	}
	if _, err := sess.Roster.MarkReady(req.Player.ID); err != nil {
		sess.Unlock()
		return s.fail(connID, req.GameID, err)
	}
	players := sess.Roster.Players()
	snap := sess.Snapshot()
	sess.Unlock()

	s.persist(ctx, snap)
	s.broadcastUpdate(req.GameID, players, domain.GameStatusPending)
	return nil
}

// StakeConfirmed отмечает оплаченную ставку
func (s *SessionService) StakeConfirmed(ctx context.Context, connID string, req domain.StakeConfirmedRequest) error {
	if err := checkPlayer(req.Player, req.GameID); err != nil {
		return s.fail(connID, req.GameID, err)
	}
	if strings.TrimSpace(req.PaymentHash) == "" {
		return s.fail(connID, req.GameID, newValidation(CodeBadRequest, "paymentHash is required"))
	}
	sess, err := s.room(ctx, req.GameID)
	if err != nil {
		return s.fail(connID, req.GameID, err)
	}

	sess.Lock()
	meta := metaOf(sess)
	status := sess.Status
	_, member := sess.Roster.Get(req.Player.ID)
	sess.Unlock()
	if !member {
		return s.fail(connID, req.GameID, game.ErrPlayerNotFound)
	}
	if status != domain.GameStatusPending {
		return s.fail(connID, req.GameID, game.ErrNotPending)
	}

	if s.stakes != nil && meta.isPaid() {
		callCtx, cancel := s.callCtx(ctx)
		err := s.stakes.VerifyStake(callCtx, req.PaymentHash, req.PayerAddress, meta.BetAmount)
		cancel()
		if err != nil {
			s.log.Warn("stake verification failed", "game_id", req.GameID, "player_id", req.Player.ID, "error", err)
			return s.fail(connID, req.GameID, newValidation(CodeStakeInvalid, "stake payment not verified"))
		}
	}

	sess.Lock()
	if sess.Status != domain.GameStatusPending {
		sess.Unlock()
		return s.fail(connID, req.GameID, game.ErrNotPending)
	}
	p, err := sess.Roster.ConfirmStake(req.Player.ID, req.PaymentHash, req.PayerAddress)
	if err != nil {
		sess.Unlock()
		return s.fail(connID, req.GameID, err)
	}
	player := p.Clone()
	players := sess.Roster.Players()
	snap := sess.Snapshot()
	sess.Unlock()

	s.persist(ctx, snap)
	s.upsertParticipant(ctx, req.GameID, player, true)
	s.audit.LogStake(ctx, player.ID, req.GameID, domain.AuditActionStakeConfirmed, req.PaymentHash)
	s.settlement.Notify(ctx, meta, fmt.Sprintf("%s staked and is ready to play!", player.Name()))

	s.broadcastUpdate(req.GameID, players, domain.GameStatusPending)
	return nil
}

// StakeRefunded снимает ставку и готовность
func (s *SessionService) StakeRefunded(ctx context.Context, connID string, req domain.StakeRefundedRequest) error {
	if err := checkPlayer(req.Player, req.GameID); err != nil {
		return s.fail(connID, req.GameID, err)
	}
	sess, err := s.room(ctx, req.GameID)
	if err != nil {
		return s.fail(connID, req.GameID, err)
	}

	sess.Lock()
	p, err := sess.RefundStake(req.Player.ID)
	if err != nil {
		sess.Unlock()
		return s.fail(connID, req.GameID, err)
	}
	player := p.Clone()
	players := sess.Roster.Players()
	snap := sess.Snapshot()
	meta := metaOf(sess)
	sess.Unlock()

	s.persist(ctx, snap)
	s.upsertParticipant(ctx, req.GameID, player, true)
	s.audit.LogStake(ctx, player.ID, req.GameID, domain.AuditActionStakeRefunded, req.TransactionHash)
	s.settlement.Notify(ctx, meta, fmt.Sprintf("%s withdrew their stake.", player.Name()))

	s.broadcastUpdate(req.GameID, players, domain.GameStatusPending)
	return nil
}

// StartGame переводит комнату в PLAYING
func (s *SessionService) StartGame(ctx context.Context, connID string, req domain.LobbyRequest) error {
	if err := checkPlayer(req.Player, req.GameID); err != nil {
		return s.fail(connID, req.GameID, err)
	}
	sess, err := s.room(ctx, req.GameID)
	if err != nil {
		return s.fail(connID, req.GameID, err)
	}

	sess.Lock()
	if _, ok := sess.Roster.Get(req.Player.ID); !ok {
		sess.Unlock()
		return s.fail(connID, req.GameID, game.ErrPlayerNotFound)
	}
	if err := sess.BeginStart(); err != nil {
		sess.Unlock()
		return s.fail(connID, req.GameID, err)
	}
	meta := metaOf(sess)
	sess.Unlock()

	abort := func(err error) error {
		sess.Lock()
		sess.AbortStart()
		sess.Unlock()
		return s.fail(connID, req.GameID, err)
	}

	callCtx, cancel := s.callCtx(ctx)
	record, err := s.games.GetByID(callCtx, req.GameID)
	cancel()
	if err != nil {
		metrics.Failure("game_store")
		return abort(fmt.Errorf("load game record: %w", err))
	}
	if record == nil {
		return abort(newValidation(CodeGameNotFound, "game %s not found", req.GameID))
	}
	if record.Status != domain.GameStatusPending {
		return abort(newValidation(CodeAlreadyStarted, "game is %s", record.Status))
	}

	s.out.BroadcastToRoom(req.GameID, domain.EventGameLoading, domain.GameLoadingPayload{
		GameID: req.GameID,
		Title:  "Starting game",
		Body:   "Waiting for the game contract...",
	})

	callCtx, cancel = s.callCtx(ctx)
	err = s.chain.StartGame(callCtx, meta.ContractGameID)
	cancel()
	if err != nil {
		metrics.Failure("chain")
		s.log.Error("chain start failed", "game_id", req.GameID, "contract_game_id", meta.ContractGameID, "error", err)
		return abort(newValidation(CodeUnavailable, "could not start the game contract"))
	}

	playing := domain.GameStatusPlaying
	callCtx, cancel = s.callCtx(ctx)
	if err := s.games.Update(callCtx, req.GameID, domain.GameUpdate{Status: &playing}); err != nil {
		metrics.Failure("game_store")
		s.log.Error("game record update failed", "game_id", req.GameID, "error", err)
	}
	cancel()

	seed := s.dict.RandomWord(game.SeedMinLen, game.SeedMaxLen)
	if seed == "" {
		seed = fallbackSeedWord
	}

	sess.Lock()
	if err := sess.Begin(seed, s.letters); err != nil {
		sess.Unlock()
		return s.fail(connID, req.GameID, err)
	}
	remaining := sess.TimeRemaining
	started := s.startedPayload(sess)
	players := sess.Roster.Players()
	snap := sess.Snapshot()
	sess.Unlock()

	s.startClock(sess, remaining)
	s.persist(ctx, snap)
	metrics.GamesStarted.Inc()
	s.audit.Log(ctx, req.Player.ID, req.GameID, domain.AuditActionGameStart, domain.AuditCategoryGame, map[string]any{
		"players": len(players),
		"seed":    seed,
	})
	s.log.Info("game started", "game_id", req.GameID, "players", len(players), "time_remaining", remaining)

	s.out.BroadcastToRoom(req.GameID, domain.EventGameStarted, started)
	s.out.BroadcastToRoom(req.GameID, domain.EventRefreshLetters, domain.LettersRefreshedPayload{
		GameID:  req.GameID,
		Players: players,
	})
	return nil
}

// вызывающий держит блокировку комнаты
func (s *SessionService) startedPayload(sess *game.Session) *domain.GameStartedPayload {
	now := s.now()
	end := now.Add(time.Duration(sess.TimeRemaining) * s.cfg.TickInterval)
	return &domain.GameStartedPayload{
		GameID:        sess.ID,
		Board:         sess.Board.Rows(),
		TimeRemaining: sess.TimeRemaining,
		Players:       sess.Roster.Players(),
		StartTime:     now.UnixMilli(),
		EndTime:       end.UnixMilli(),
	}
}

func (s *SessionService) startClock(sess *game.Session, remaining int) {
	sess.Clock().Start(s.ctx, remaining, s.cfg.TickInterval,
		func(left int) { s.onTick(sess, left) },
		func() { s.finishGame(sess) },
	)
}

func (s *SessionService) onTick(sess *game.Session, left int) {
	sess.Lock()
	if sess.Status != domain.GameStatusPlaying {
		sess.Unlock()
		return
	}
	sess.Tick(left)
	remaining := sess.TimeRemaining
	snap := sess.Snapshot()
	sess.Unlock()

	s.out.BroadcastToRoom(sess.ID, domain.EventTimerTick, domain.TimerTickPayload{GameID: sess.ID, TimeRemaining: remaining})
	s.persist(s.ctx, snap)
}

// finishGame - штатное завершение по таймеру
func (s *SessionService) finishGame(sess *game.Session) {
	sess.Lock()
	if !sess.Finish() {
		sess.Unlock()
		return
	}
	sess.Tick(0)
	players := sess.Roster.Players()
	meta := metaOf(sess)
	sess.Unlock()

	result := game.Rank(meta.GameID, players)
	s.settlement.Settle(context.WithoutCancel(s.ctx), meta, result)
	metrics.GamesFinished.WithLabelValues(metrics.ReasonExpired).Inc()

	s.out.BroadcastToRoom(meta.GameID, domain.EventGameEnded, domain.GameEndedPayload{
		GameID:  meta.GameID,
		Players: result.Ranking,
		IsDraw:  result.IsDraw,
		Winners: result.Winners,
	})
	s.registry.Delete(context.WithoutCancel(s.ctx), meta.GameID)
	s.out.DropRoom(meta.GameID)
	s.log.Info("game finished", "game_id", meta.GameID, "is_draw", result.IsDraw)
}

// PlaceLetter - временная буква на поле
func (s *SessionService) PlaceLetter(ctx context.Context, connID string, req domain.PlaceLetterRequest) error {
	if err := checkPlayer(req.Player, req.GameID); err != nil {
		return s.fail(connID, req.GameID, err)
	}
	letter := strings.ToUpper(strings.TrimSpace(req.Letter))
	if len([]rune(letter)) != 1 {
		return s.fail(connID, req.GameID, newValidation(CodeBadRequest, "letter must be a single character"))
	}
	sess, err := s.room(ctx, req.GameID)
	if err != nil {
		return s.fail(connID, req.GameID, err)
	}

	pos := domain.Position{X: req.X, Y: req.Y}
	sess.Lock()
	if err := sess.PlaceTile(req.Player.ID, pos, letter); err != nil {
		sess.Unlock()
		return s.fail(connID, req.GameID, err)
	}
	p, _ := sess.Roster.Get(req.Player.ID)
	player := p.Clone()
	sess.Unlock()

	s.out.BroadcastToRoom(req.GameID, domain.EventLetterPlaced, domain.LetterPlacedPayload{
		GameID:   req.GameID,
		Player:   player,
		Position: pos,
		Letter:   letter,
	})
	return nil
}

// RemoveLetter снимает временную букву, повтор ничего не делает
func (s *SessionService) RemoveLetter(ctx context.Context, connID string, req domain.RemoveLetterRequest) error {
	if err := checkPlayer(req.Player, req.GameID); err != nil {
		return s.fail(connID, req.GameID, err)
	}
	sess, err := s.room(ctx, req.GameID)
	if err != nil {
		return s.fail(connID, req.GameID, err)
	}

	pos := domain.Position{X: req.X, Y: req.Y}
	sess.Lock()
	removed := sess.RemoveTile(req.Player.ID, pos)
	var player *domain.Player
	if p, ok := sess.Roster.Get(req.Player.ID); ok {
		player = p.Clone()
	}
	sess.Unlock()

	if !removed {
		return nil
	}
	s.out.BroadcastToRoom(req.GameID, domain.EventLetterRemoved, domain.LetterRemovedPayload{
		GameID:   req.GameID,
		Player:   player,
		Position: pos,
	})
	return nil
}

// SubmitWord проверяет ход, фиксирует буквы и начисляет очки
func (s *SessionService) SubmitWord(ctx context.Context, connID string, req domain.SubmitWordRequest) error {
	if err := checkPlayer(req.Player, req.GameID); err != nil {
		return s.fail(connID, req.GameID, err)
	}
	sess, err := s.room(ctx, req.GameID)
	if err != nil {
		return s.fail(connID, req.GameID, err)
	}

	pl := game.Placement{Word: req.Word, Path: req.Path, Placed: req.PlacedLetters}

	sess.Lock()
	res, total, err := sess.SubmitWord(s.dict, req.Player.ID, pl)
	board := sess.Board.Rows()
	var player *domain.Player
	if p, ok := sess.Roster.Get(req.Player.ID); ok {
		player = p.Clone()
	}
	var snap *game.Snapshot
	if err == nil && len(res.Words) > 0 {
		snap = sess.Snapshot()
	}
	sess.Unlock()

	if err != nil {
		rejected := domain.WordRejectedPayload{GameID: req.GameID, Player: player, Word: req.Word, Board: board, Path: req.Path}
		switch {
		case errors.Is(err, game.ErrWordNotValid):
			metrics.WordsSubmitted.WithLabelValues(metrics.ResultWordNotValid).Inc()
			s.out.SendTo(connID, domain.EventWordNotValid, rejected)
			return err
		case errors.Is(err, game.ErrAdjacentWordsNotValid):
			metrics.WordsSubmitted.WithLabelValues(metrics.ResultAdjacentInvalid).Inc()
			s.out.SendTo(connID, domain.EventAdjacentWordsNotValid, rejected)
			return err
		default:
			metrics.WordsSubmitted.WithLabelValues(metrics.ResultRejected).Inc()
			return s.fail(connID, req.GameID, err)
		}
	}

	metrics.WordsSubmitted.WithLabelValues(metrics.ResultAccepted).Inc()
	submitted := domain.WordSubmittedPayload{
		GameID: req.GameID,
		Player: player,
		Words:  res.Words,
		Score:  res.Score,
		Path:   req.Path,
		Board:  board,
	}
	if len(res.Words) == 0 {
		s.out.SendTo(connID, domain.EventWordSubmitted, submitted)
		return nil
	}

	if snap != nil {
		s.persist(ctx, snap)
		callCtx, cancel := s.callCtx(ctx)
		if err := s.ledger.UpdatePoints(callCtx, req.Player.ID, req.GameID, total); err != nil {
			metrics.Failure("ledger")
			s.log.Error("points update failed", "game_id", req.GameID, "player_id", req.Player.ID, "error", err)
		}
		cancel()
	}

	s.out.BroadcastToRoom(req.GameID, domain.EventWordSubmitted, submitted)
	s.out.BroadcastToRoom(req.GameID, domain.EventScoreUpdate, domain.ScoreUpdatePayload{
		GameID:     req.GameID,
		Player:     player,
		NewScore:   res.Score,
		TotalScore: total,
	})
	return nil
}

// RefreshLetters выдает игроку новую руку
func (s *SessionService) RefreshLetters(ctx context.Context, connID string, req domain.RefreshLettersRequest) error {
	if req.PlayerID <= 0 || req.GameID == "" {
		return s.fail(connID, req.GameID, newValidation(CodeBadRequest, "gameId and playerId are required"))
	}
	sess, err := s.room(ctx, req.GameID)
	if err != nil {
		return s.fail(connID, req.GameID, err)
	}

	sess.Lock()
	if err := sess.RefreshRack(req.PlayerID, s.letters); err != nil {
		sess.Unlock()
		return s.fail(connID, req.GameID, err)
	}
	players := sess.Roster.Players()
	snap := sess.Snapshot()
	sess.Unlock()

	s.persist(ctx, snap)
	s.out.BroadcastToRoom(req.GameID, domain.EventRefreshLetters, domain.LettersRefreshedPayload{
		GameID:   req.GameID,
		Players:  players,
		PlayerID: req.PlayerID,
	})
	return nil
}

// Leave - явный выход из комнаты
func (s *SessionService) Leave(ctx context.Context, connID string, req domain.LobbyRequest) error {
	if err := checkPlayer(req.Player, req.GameID); err != nil {
		return s.fail(connID, req.GameID, err)
	}
	sess, err := s.room(ctx, req.GameID)
	if err != nil {
		return s.fail(connID, req.GameID, err)
	}
	if err := s.removePlayer(ctx, sess, req.Player.ID); err != nil {
		return s.fail(connID, req.GameID, err)
	}
	s.out.Unsubscribe(connID, req.GameID)
	return nil
}

// Disconnect - соединение закрылось. Действуем, только если оно
// все еще текущее для игрока: в лобби игрок выходит, в игре остается.
func (s *SessionService) Disconnect(ctx context.Context, connID, gameID string, playerID int64) {
	sess := s.registry.Get(ctx, gameID)
	if sess == nil {
		return
	}

	sess.Lock()
	p, ok := sess.Roster.Get(playerID)
	if !ok || p.SocketID != connID {
		sess.Unlock()
		return
	}
	if sess.Status == domain.GameStatusPlaying {
		p.SocketID = ""
		snap := sess.Snapshot()
		sess.Unlock()
		s.persist(ctx, snap)
		return
	}
	sess.Unlock()

	if err := s.removePlayer(ctx, sess, playerID); err != nil {
		s.log.Debug("disconnect leave skipped", "game_id", gameID, "player_id", playerID, "error", err)
	}
}

func (s *SessionService) removePlayer(ctx context.Context, sess *game.Session, playerID int64) error {
	sess.Lock()
	if sess.Starting() {
		sess.Unlock()
		return game.ErrAlreadyStarting
	}
	p, ok := sess.RemovePlayer(playerID)
	if !ok {
		sess.Unlock()
		return game.ErrPlayerNotFound
	}
	empty := sess.Roster.Len() == 0
	status := sess.Status
	players := sess.Roster.Players()
	meta := metaOf(sess)
	abandoned := false
	if empty && status == domain.GameStatusPlaying {
		abandoned = sess.Finish()
	}
	snap := sess.Snapshot()
	sess.Unlock()

	s.upsertParticipant(ctx, meta.GameID, p, false)
	s.audit.Log(ctx, p.ID, meta.GameID, domain.AuditActionLeave, domain.AuditCategoryLobby, nil)
	s.out.BroadcastToRoom(meta.GameID, domain.EventPlayerLeft, domain.PlayerLeftPayload{Player: p, GameID: meta.GameID})
	s.log.Info("player left", "game_id", meta.GameID, "player_id", p.ID, "players", len(players))

	switch {
	case abandoned:
		s.settlement.Abandon(ctx, meta)
		metrics.GamesFinished.WithLabelValues(metrics.ReasonAbandoned).Inc()
		s.registry.Delete(ctx, meta.GameID)
		s.out.DropRoom(meta.GameID)
	case empty && status == domain.GameStatusPending:
		s.registry.Delete(ctx, meta.GameID)
		s.out.DropRoom(meta.GameID)
		s.log.Info("empty lobby discarded", "game_id", meta.GameID)
	case !empty:
		s.persist(ctx, snap)
		s.broadcastUpdate(meta.GameID, players, status)
	}
	return nil
}

// Recover продолжает таймеры комнат, которые были в игре до рестарта
func (s *SessionService) Recover(ctx context.Context) (int, error) {
	ids, err := s.registry.ActiveGameIDs(ctx)
	if err != nil {
		return 0, err
	}

	resumed := 0
	for _, id := range ids {
		sess := s.registry.Get(ctx, id)
		if sess == nil {
			continue
		}
		sess.Lock()
		playing := sess.Status == domain.GameStatusPlaying && !sess.Clock().Running()
		remaining := sess.TimeRemaining
		sess.Unlock()
		if !playing {
			continue
		}
		s.startClock(sess, remaining)
		resumed++
		s.log.Info("room resumed", "game_id", id, "time_remaining", remaining)
	}
	return resumed, nil
}

// RoomSnapshot - текущее состояние комнаты для REST
func (s *SessionService) RoomSnapshot(ctx context.Context, gameID string) (*game.Snapshot, error) {
	sess, err := s.room(ctx, gameID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	return sess.Snapshot(), nil
}

// Leaderboard - очки участников из журнала
func (s *SessionService) Leaderboard(ctx context.Context, gameID string) ([]*domain.GameParticipant, error) {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.ledger.ListByGame(callCtx, gameID)
}
