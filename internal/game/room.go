package game

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rakansens/gardenwars-colyseus/internal/catalog"
	"github.com/rakansens/gardenwars-colyseus/internal/metrics"
	"github.com/rakansens/gardenwars-colyseus/internal/sink"
)

// Client is an attached session's outbound half. Send must never block
// the room loop; implementations buffer and drop on backpressure.
type Client interface {
	SessionID() string
	Send(event string, data any)
	Close()
}

// JoinOptions carry the connect-time identity of a session.
type JoinOptions struct {
	ExternalPlayerID string
	DisplayName      string
	Deck             []string
}

// Join failures returned to the transport layer before a session becomes
// a room member.
var (
	ErrRoomFull   = errors.New("room: already has two players")
	ErrRoomLocked = errors.New("room: match already started")
	ErrRoomClosed = errors.New("room: disposed")
)

// RoomConfig tunes one match.
type RoomConfig struct {
	TickInterval     time.Duration
	StageLength      float64
	CastleHP         float64
	CountdownSeconds int
}

// DefaultRoomConfig returns the standard 20Hz match setup.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		TickInterval:     50 * time.Millisecond,
		StageLength:      DefaultStageLength,
		CastleHP:         DefaultCastleHP,
		CountdownSeconds: 3,
	}
}

// RoomInfo is the registry metadata the discovery layer lists rooms by.
type RoomInfo struct {
	RoomID          string
	Status          string
	HostName        string
	HostDeckPreview []string
	CreatedAt       time.Time
	ClientCount     int
}

// Commands processed by the room's serial loop. Tick and countdown fire
// from the loop's own tickers, so the channel only ever carries client
// intents and membership changes.
type roomCommand interface{ isRoomCommand() }

type cmdJoin struct {
	client Client
	opts   JoinOptions
	reply  chan error
}
type cmdReady struct{ sessionID string }
type cmdSummon struct {
	sessionID string
	unitID    string
}
type cmdUpgradeCost struct{ sessionID string }
type cmdLeave struct{ sessionID string }

func (cmdJoin) isRoomCommand()        {}
func (cmdReady) isRoomCommand()       {}
func (cmdSummon) isRoomCommand()      {}
func (cmdUpgradeCost) isRoomCommand() {}
func (cmdLeave) isRoomCommand()       {}

// Room hosts one castle-rush match as a single-threaded logical actor:
// every mutation of its state runs on the loop inside run(). Rooms are
// independent of each other and scheduled freely by the runtime.
type Room struct {
	ID        string
	createdAt time.Time

	cfg     RoomConfig
	log     zerolog.Logger
	catalog *catalog.Catalog
	sink    sink.ResultSink

	state *State
	sim   *Simulator

	clients  map[string]Client
	commands chan roomCommand

	tickTicker      *time.Ticker
	countdownTicker *time.Ticker
	lastTick        time.Time

	done      chan struct{}
	closeOnce sync.Once
	onDispose func(roomID string)

	metaMu sync.RWMutex
	meta   RoomInfo
}

// NewRoom creates a room and starts its serial loop. onDispose runs once
// after the loop exits.
func NewRoom(id string, cfg RoomConfig, cat *catalog.Catalog, resultSink sink.ResultSink, log zerolog.Logger, onDispose func(roomID string)) *Room {
	r := &Room{
		ID:        id,
		createdAt: time.Now(),
		cfg:       cfg,
		log:       log.With().Str("room", id).Logger(),
		catalog:   cat,
		sink:      resultSink,
		state:     NewState(cfg.StageLength),
		clients:   make(map[string]Client),
		commands:  make(chan roomCommand, 64),
		done:      make(chan struct{}),
		onDispose: onDispose,
		meta: RoomInfo{
			RoomID:    id,
			Status:    string(PhaseWaiting),
			CreatedAt: time.Now(),
		},
	}
	r.sim = NewSimulator(r.state, cat)
	go r.run()
	return r
}

// CreatedAt returns the room's creation time.
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// Info returns a copy of the listing metadata.
func (r *Room) Info() RoomInfo {
	r.metaMu.RLock()
	defer r.metaMu.RUnlock()
	info := r.meta
	info.HostDeckPreview = append([]string(nil), r.meta.HostDeckPreview...)
	return info
}

// Join attaches a session. It blocks until the room loop accepts or
// rejects the join.
func (r *Room) Join(c Client, opts JoinOptions) error {
	cmd := cmdJoin{client: c, opts: opts, reply: make(chan error, 1)}
	select {
	case r.commands <- cmd:
	case <-r.done:
		return ErrRoomClosed
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

// Ready marks a session ready.
func (r *Room) Ready(sessionID string) { r.enqueue(cmdReady{sessionID: sessionID}) }

// Summon requests a unit spawn for a session.
func (r *Room) Summon(sessionID, unitID string) {
	r.enqueue(cmdSummon{sessionID: sessionID, unitID: unitID})
}

// UpgradeCostLevel requests a resource-cap upgrade for a session.
func (r *Room) UpgradeCostLevel(sessionID string) {
	r.enqueue(cmdUpgradeCost{sessionID: sessionID})
}

// Leave signals a transport-level disconnect for a session.
func (r *Room) Leave(sessionID string) { r.enqueue(cmdLeave{sessionID: sessionID}) }

// Close disposes the room. Idempotent; used by the manager on shutdown
// and idle sweeps.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

func (r *Room) enqueue(cmd roomCommand) {
	select {
	case r.commands <- cmd:
	case <-r.done:
	}
}

// run is the room's serial executor. Nil ticker channels block forever,
// so the select only sees tick sources that are currently armed.
func (r *Room) run() {
	defer r.dispose()
	for {
		var tickC, countdownC <-chan time.Time
		if r.tickTicker != nil {
			tickC = r.tickTicker.C
		}
		if r.countdownTicker != nil {
			countdownC = r.countdownTicker.C
		}

		select {
		case cmd := <-r.commands:
			r.handleCommand(cmd)
		case <-countdownC:
			r.countdownTick()
		case <-tickC:
			r.tick()
		case <-r.done:
			return
		}
	}
}

func (r *Room) dispose() {
	r.stopTickers()
	for _, c := range r.clients {
		c.Close()
	}
	if r.onDispose != nil {
		r.onDispose(r.ID)
	}
	r.log.Info().Msg("Room disposed")
}

func (r *Room) stopTickers() {
	if r.tickTicker != nil {
		r.tickTicker.Stop()
		r.tickTicker = nil
	}
	if r.countdownTicker != nil {
		r.countdownTicker.Stop()
		r.countdownTicker = nil
	}
}

func (r *Room) handleCommand(cmd roomCommand) {
	switch c := cmd.(type) {
	case cmdJoin:
		c.reply <- r.handleJoin(c.client, c.opts)
	case cmdReady:
		r.handleReady(c.sessionID)
	case cmdSummon:
		r.handleSummon(c.sessionID, c.unitID)
	case cmdUpgradeCost:
		r.handleUpgradeCost(c.sessionID)
	case cmdLeave:
		r.handleLeave(c.sessionID)
	}
}

// --- membership ---

func (r *Room) handleJoin(c Client, opts JoinOptions) error {
	if r.state.Phase != PhaseWaiting {
		return ErrRoomLocked
	}
	if len(r.state.Players) >= 2 {
		return ErrRoomFull
	}

	name := opts.DisplayName
	if name == "" {
		name = "Guest"
	}
	p := NewPlayer(c.SessionID(), opts.ExternalPlayerID, name, r.validateDeck(opts.Deck), r.cfg.CastleHP)
	if len(r.state.Players) == 0 {
		p.Side = SidePlayer1
	} else {
		p.Side = SidePlayer2
	}
	r.state.Players = append(r.state.Players, p)
	r.clients[c.SessionID()] = c

	r.log.Info().
		Str("session", c.SessionID()).
		Str("name", p.Name).
		Str("side", p.Side.String()).
		Int("deck", len(p.Deck)).
		Msg("Player joined")

	r.broadcast(EventPlayerJoined, viewOfPlayer(p))
	r.broadcast(EventAllPlayers, r.allPlayersPayload())
	c.Send(EventRoomState, r.state.View())

	r.updateMeta()
	return nil
}

// validateDeck keeps only ids the catalog knows, capped at the deck limit.
func (r *Room) validateDeck(deck []string) []string {
	valid := make([]string, 0, MaxDeckSize)
	for _, id := range deck {
		if len(valid) == MaxDeckSize {
			break
		}
		if r.catalog.IsValid(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

func (r *Room) handleLeave(sessionID string) {
	p := r.state.PlayerBySession(sessionID)
	if p == nil {
		if c, ok := r.clients[sessionID]; ok {
			delete(r.clients, sessionID)
			c.Close()
		}
		return
	}

	// A drop during countdown or play is an immediate loss for the
	// leaver; the record is built while both players are still present.
	if r.state.Phase == PhaseCountdown || r.state.Phase == PhasePlaying {
		if opponent := r.state.Opponent(sessionID); opponent != nil {
			r.state.Phase = PhaseFinished
			r.state.WinnerID = opponent.SessionID
			r.state.WinReason = WinReasonOpponentDisconnected
			r.finishMatch()
		}
	}

	r.removePlayer(sessionID)

	if len(r.clients) == 0 {
		r.Close()
	}
}

func (r *Room) removePlayer(sessionID string) {
	for i, p := range r.state.Players {
		if p.SessionID == sessionID {
			r.state.Players = append(r.state.Players[:i], r.state.Players[i+1:]...)
			break
		}
	}
	if c, ok := r.clients[sessionID]; ok {
		delete(r.clients, sessionID)
		c.Close()
	}
	r.log.Info().Str("session", sessionID).Msg("Player left")

	if r.state.Phase == PhaseWaiting {
		r.broadcast(EventAllPlayers, r.allPlayersPayload())
	}
	r.updateMeta()
}

// --- readiness and countdown ---

func (r *Room) handleReady(sessionID string) {
	p := r.state.PlayerBySession(sessionID)
	if p == nil {
		return
	}
	p.Ready = true

	if r.state.Phase == PhaseWaiting && len(r.state.Players) == 2 && r.allReady() {
		r.startCountdown()
	}
}

func (r *Room) allReady() bool {
	for _, p := range r.state.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (r *Room) startCountdown() {
	r.state.Phase = PhaseCountdown
	r.state.Countdown = r.cfg.CountdownSeconds
	r.broadcast(EventPhaseChange, map[string]any{"phase": string(PhaseCountdown)})
	r.broadcast(EventCountdownUpdate, map[string]any{"countdown": r.state.Countdown})
	r.countdownTicker = time.NewTicker(time.Second)
	r.updateMeta()
	r.log.Info().Msg("Countdown started")
}

func (r *Room) countdownTick() {
	r.state.Countdown--
	if r.state.Countdown > 0 {
		r.broadcast(EventCountdownUpdate, map[string]any{"countdown": r.state.Countdown})
		return
	}
	r.countdownTicker.Stop()
	r.countdownTicker = nil
	r.startPlaying()
}

func (r *Room) startPlaying() {
	r.state.Phase = PhasePlaying
	r.state.GameTimeMs = 0
	r.lastTick = time.Now()
	r.tickTicker = time.NewTicker(r.cfg.TickInterval)
	r.broadcast(EventPhaseChange, map[string]any{"phase": string(PhasePlaying)})
	r.updateMeta()
	r.log.Info().Msg("Match started")
}

// --- the tick pump ---

// tick runs one simulation step. The delta is wall-clock measured so
// scheduler jitter integrates out instead of compounding.
func (r *Room) tick() {
	start := time.Now()
	dtMs := start.Sub(r.lastTick).Seconds() * 1000
	r.lastTick = start

	r.advance(dtMs)

	metrics.TickDuration.Observe(time.Since(start).Seconds())
}

// advance applies one delta to the whole room in the fixed order:
// resource regen, cooldown decay, combat, broadcasts, win handling.
func (r *Room) advance(dtMs float64) {
	r.state.GameTimeMs += dtMs

	for _, p := range r.state.Players {
		UpdateCost(p, dtMs)
		p.DecaySpawnCooldowns(dtMs)
	}

	r.sim.Update(dtMs)

	r.broadcast(EventUnitsSync, r.unitsSyncPayload())
	r.broadcast(EventPlayersSync, r.playersSyncPayload())

	if r.state.Phase == PhaseFinished {
		r.finishMatch()
	}
}

// finishMatch stops the pump, announces the terminal phase and hands the
// scoreboard to the sink. Persistence runs after the final broadcast and
// never blocks or alters the outcome.
func (r *Room) finishMatch() {
	r.stopTickers()

	r.broadcast(EventPhaseChange, map[string]any{
		"phase":     string(PhaseFinished),
		"winnerId":  r.state.WinnerID,
		"winReason": r.state.WinReason,
	})
	metrics.MatchesFinished.WithLabelValues(r.state.WinReason).Inc()
	r.updateMeta()
	r.log.Info().
		Str("winner", r.state.WinnerID).
		Str("reason", r.state.WinReason).
		Int("durationSec", int(r.state.GameTimeMs/1000)).
		Msg("Match finished")

	rec := r.buildRecord()
	if rec == nil {
		return
	}
	resultSink, log := r.sink, r.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := resultSink.SaveBattleResult(ctx, rec); err != nil {
			metrics.ResultSinkErrors.Inc()
			log.Error().Err(err).Msg("Failed to persist battle result")
		}
	}()
}

func (r *Room) buildRecord() *sink.BattleRecord {
	if len(r.state.Players) < 2 {
		return nil
	}
	p1, p2 := r.state.Players[0], r.state.Players[1]
	winnerNum := 1
	if r.state.WinnerID == p2.SessionID {
		winnerNum = 2
	}
	return &sink.BattleRecord{
		Player1ID:         p1.ExternalID,
		Player2ID:         p2.ExternalID,
		Player1Name:       p1.Name,
		Player2Name:       p2.Name,
		Player1Deck:       append([]string(nil), p1.Deck...),
		Player2Deck:       append([]string(nil), p2.Deck...),
		WinnerPlayerNum:   winnerNum,
		Player1CastleHP:   int(p1.CastleHP),
		Player2CastleHP:   int(p2.CastleHP),
		Player1Kills:      p1.Kills,
		Player2Kills:      p2.Kills,
		BattleDurationSec: int(math.Floor(r.state.GameTimeMs / 1000)),
		WinReason:         r.state.WinReason,
	}
}

// --- client commands ---

func (r *Room) handleSummon(sessionID, unitID string) {
	p := r.state.PlayerBySession(sessionID)
	if p == nil {
		return
	}
	if r.state.Phase != PhasePlaying {
		r.sendError(sessionID, ErrCodeGameNotPlaying, "match is not in progress")
		return
	}
	def := r.catalog.Lookup(unitID)
	if def == nil {
		r.sendError(sessionID, ErrCodeInvalidUnit, "unknown unit: "+unitID)
		return
	}
	if !p.HasInDeck(unitID) {
		r.sendError(sessionID, ErrCodeUnitNotInDeck, "unit not in deck: "+unitID)
		return
	}
	if p.SpawnCooldownRemaining(unitID) > 0 {
		r.sendError(sessionID, ErrCodeCooldown, "unit is on spawn cooldown: "+unitID)
		return
	}
	if !CanAfford(p, def.Cost) {
		r.sendError(sessionID, ErrCodeInsufficientCost, "not enough cost")
		return
	}

	SpendCost(p, def.Cost)
	u, err := r.sim.SpawnUnit(p, unitID)
	if err != nil {
		// The spend is reverted so a simulator refusal can never cost
		// the player resource.
		RefundCost(p, def.Cost)
		r.log.Warn().Err(err).Str("unit", unitID).Msg("Spawn failed after spend")
		r.sendError(sessionID, ErrCodeSpawnFailed, "spawn failed")
		return
	}
	p.SpawnCooldowns[unitID] = def.EffectiveSpawnCooldownMs()

	metrics.UnitsSpawned.Inc()
	r.broadcast(EventUnitSpawned, viewOfUnit(u))
}

func (r *Room) handleUpgradeCost(sessionID string) {
	p := r.state.PlayerBySession(sessionID)
	if p == nil {
		return
	}
	if r.state.Phase != PhasePlaying {
		r.sendError(sessionID, ErrCodeGameNotPlaying, "match is not in progress")
		return
	}
	if !CanUpgradeCost(p) {
		r.sendError(sessionID, ErrCodeCannotUpgrade, "cost upgrade not available")
		return
	}
	UpgradeCost(p)
}

// --- fan-out ---

func (r *Room) broadcast(event string, data any) {
	for _, c := range r.clients {
		c.Send(event, data)
	}
}

// sendError reports a rejected command to the offending client only.
func (r *Room) sendError(sessionID, code, message string) {
	metrics.CommandsRejected.WithLabelValues(code).Inc()
	if c, ok := r.clients[sessionID]; ok {
		c.Send(EventError, ErrorPayload{Code: code, Message: message})
	}
}

func (r *Room) allPlayersPayload() map[string]any {
	views := make([]PlayerView, 0, len(r.state.Players))
	for _, p := range r.state.Players {
		views = append(views, viewOfPlayer(p))
	}
	return map[string]any{"players": views}
}

func (r *Room) playersSyncPayload() map[string]any {
	views := make([]PlayerSyncView, 0, len(r.state.Players))
	for _, p := range r.state.Players {
		views = append(views, syncViewOfPlayer(p))
	}
	return map[string]any{"players": views}
}

func (r *Room) unitsSyncPayload() map[string]any {
	views := make([]UnitView, 0, len(r.state.Units))
	for _, u := range r.state.orderedUnits() {
		views = append(views, viewOfUnit(u))
	}
	return map[string]any{"units": views}
}

// updateMeta refreshes the registry snapshot the discovery layer reads.
func (r *Room) updateMeta() {
	status := string(r.state.Phase)
	if r.state.Phase == PhaseWaiting && len(r.state.Players) == 2 {
		status = "locked"
	}

	var hostName string
	var preview []string
	if len(r.state.Players) > 0 {
		host := r.state.Players[0]
		hostName = host.Name
		// Half the host deck, rounded up; the rest stays secret.
		n := (len(host.Deck) + 1) / 2
		preview = append([]string(nil), host.Deck[:n]...)
	}

	r.metaMu.Lock()
	r.meta.Status = status
	r.meta.HostName = hostName
	r.meta.HostDeckPreview = preview
	r.meta.ClientCount = len(r.clients)
	r.metaMu.Unlock()
}
