package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// Typed command variants. One struct per caller action keeps payloads
// explicit instead of an open-ended metadata bag.
type command interface{ isCommand() }

type joinCmd struct{ profile domain.Profile }
type leaveCmd struct{ playerID string }
type readyCmd struct {
	playerID string
	ready    bool
}
type kickCmd struct{ actorID, targetID string }
type startCmd struct{ actorID string }
type answerCmd struct {
	playerID   string
	questionID string
	correct    bool
}
type wrongCmd struct {
	playerID   string
	questionID string
	skip       bool
}
type finishCmd struct{ playerID string }
type addBotCmd struct{ level domain.BotLevel }
type expireCmd struct{}

func (joinCmd) isCommand()   {}
func (leaveCmd) isCommand()  {}
func (readyCmd) isCommand()  {}
func (kickCmd) isCommand()   {}
func (startCmd) isCommand()  {}
func (answerCmd) isCommand() {}
func (wrongCmd) isCommand()  {}
func (finishCmd) isCommand() {}
func (addBotCmd) isCommand() {}
func (expireCmd) isCommand() {}

type request struct {
	cmd   command
	reply chan response
}

type response struct {
	room *domain.Room
	err  error
}

// roomActor serializes every mutation of one room. It is the only writer of
// the room's persisted record, so concurrent submissions collapse into some
// serial order by construction instead of racing on the version token.
type roomActor struct {
	id         int64
	room       *domain.Room
	store      RoomStore
	bus        EventBus
	sampler    *Sampler
	settlement *Settlement
	cfg        GameConfig
	clock      func() time.Time
	rnd        *rand.Rand
	registry   *Registry

	requests chan request
	ctx      context.Context
	cancel   context.CancelFunc

	expiry  *time.Timer
	botCtx  context.Context
	botStop context.CancelFunc
	bots    sync.WaitGroup
}

func newRoomActor(room *domain.Room, deps actorDeps) *roomActor {
	ctx, cancel := context.WithCancel(context.Background())
	a := &roomActor{
		id:         room.ID,
		room:       room,
		store:      deps.store,
		bus:        deps.bus,
		sampler:    deps.sampler,
		settlement: deps.settlement,
		cfg:        deps.cfg,
		clock:      deps.clock,
		rnd:        rand.New(rand.NewSource(deps.clock().UnixNano() ^ room.ID)),
		registry:   deps.registry,
		requests:   make(chan request, 32),
		ctx:        ctx,
		cancel:     cancel,
	}
	if room.Status == domain.RoomPlaying {
		// Revival of a live round (e.g. a restart with a persistent store):
		// the deadline and the bot schedules must come back with the actor,
		// otherwise a stalled round would stay playing forever.
		a.armExpiry()
		a.startBots()
	}
	go a.run()
	return a
}

type actorDeps struct {
	store      RoomStore
	bus        EventBus
	sampler    *Sampler
	settlement *Settlement
	cfg        GameConfig
	clock      func() time.Time
	registry   *Registry
}

// do submits one command and waits for the serialized result. Commands
// arriving after the room finished are rejected, not queued.
func (a *roomActor) do(ctx context.Context, cmd command) (*domain.Room, error) {
	req := request{cmd: cmd, reply: make(chan response, 1)}
	select {
	case a.requests <- req:
	case <-a.ctx.Done():
		return nil, domain.ErrInvalidState
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.room, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.ctx.Done():
		select {
		case res := <-req.reply:
			return res.room, res.err
		default:
			return nil, domain.ErrInvalidState
		}
	}
}

func (a *roomActor) run() {
	for {
		select {
		case req := <-a.requests:
			a.handle(req)
			if a.room.Status == domain.RoomFinished {
				a.stop()
				return
			}
		case <-a.ctx.Done():
			a.disarmExpiry()
			a.stopBots()
			a.drain()
			a.bots.Wait()
			return
		}
	}
}

func (a *roomActor) handle(req request) {
	if a.room.Status == domain.RoomFinished {
		req.reply <- response{err: domain.ErrInvalidState}
		return
	}
	now := a.clock()
	statusBefore := a.room.Status

	events, err := a.dispatch(req.cmd, now)
	if err != nil {
		req.reply <- response{err: err}
		return
	}

	finishing := statusBefore != domain.RoomFinished && a.room.Status == domain.RoomFinished
	if finishing {
		a.disarmExpiry()
		a.stopBots()
	}

	if err := a.store.Save(a.ctx, a.room); err != nil {
		// The single writer should never conflict; if it does, something
		// else wrote the record. Resync and surface the failure.
		if fresh, getErr := a.store.Get(a.ctx, a.id); getErr == nil {
			a.room = fresh
		}
		req.reply <- response{err: err}
		return
	}

	var closing []domain.Event
	if finishing {
		// Point awards run only after the finished status has committed;
		// the Settled marker then persists so a second trigger is a no-op.
		closing = a.settlement.Settle(a.ctx, a.room)
		if a.room.Settled {
			if err := a.store.Save(a.ctx, a.room); err != nil {
				log.Printf("room %d: persist settlement marker: %v", a.id, err)
			}
		}
	}

	snapshot := a.room.Clone()
	req.reply <- response{room: snapshot}

	for _, event := range append(events, closing...) {
		event.RoomID = a.id
		event.Room = snapshot
		if pubErr := a.bus.Publish(a.ctx, event); pubErr != nil {
			log.Printf("room %d: publish %s: %v", a.id, event.Type, pubErr)
		}
	}

	if statusBefore == domain.RoomWaiting && a.room.Status == domain.RoomPlaying {
		a.armExpiry()
		a.startBots()
	}
}

func (a *roomActor) dispatch(cmd command, now time.Time) ([]domain.Event, error) {
	switch c := cmd.(type) {
	case joinCmd:
		return applyJoin(a.room, c.profile, now)
	case leaveCmd:
		return applyLeave(a.room, c.playerID, now)
	case readyCmd:
		return applySetReady(a.room, c.playerID, c.ready, now)
	case kickCmd:
		return applyKick(a.room, c.actorID, c.targetID, now)
	case addBotCmd:
		return applyAddBot(a.room, c.level, a.rnd, now)
	case startCmd:
		questions, err := a.sampleQuestions(c.actorID)
		if err != nil {
			return nil, err
		}
		return applyStart(a.room, c.actorID, questions, now)
	case answerCmd:
		return applyAnswer(a.room, c.playerID, c.questionID, c.correct, a.cfg.WrongLimit, now)
	case wrongCmd:
		return applyWrong(a.room, c.playerID, c.questionID, c.skip, a.cfg.WrongLimit, now)
	case finishCmd:
		return applyPlayerFinish(a.room, c.playerID, now)
	case expireCmd:
		return applyExpire(a.room, now), nil
	default:
		return nil, domain.ErrInvalidState
	}
}

// sampleQuestions validates the start guards cheaply before paying for the
// sampler query, so a non-host cannot trigger content loads.
func (a *roomActor) sampleQuestions(actorID string) ([]string, error) {
	if a.room.Status != domain.RoomWaiting {
		return nil, domain.ErrInvalidState
	}
	if p := a.room.Participant(actorID); p == nil || !p.IsHost {
		return nil, domain.ErrForbidden
	}
	return a.sampler.Sample(a.ctx, a.room.Config.GroupID, a.room.Config.QuestionCount)
}

// armExpiry schedules the forced round end relative to StartedAt, so a
// revived actor inherits the original deadline. A deadline already in the
// past fires immediately.
func (a *roomActor) armExpiry() {
	deadline := a.room.StartedAt.Add(a.room.Config.TimeLimit + a.cfg.ExpiryGrace)
	wait := deadline.Sub(a.clock())
	if wait < 0 {
		wait = 0
	}
	a.expiry = time.AfterFunc(wait, func() {
		_, _ = a.do(context.Background(), expireCmd{})
	})
}

func (a *roomActor) disarmExpiry() {
	if a.expiry != nil {
		a.expiry.Stop()
		a.expiry = nil
	}
}

func (a *roomActor) startBots() {
	a.botCtx, a.botStop = context.WithCancel(a.ctx)
	for i := range a.room.Participants {
		p := a.room.Participants[i]
		if !p.IsBot || p.PlayStatus == domain.PlayFinished {
			continue
		}
		runner := &botRunner{
			sink:      a,
			playerID:  p.PlayerID,
			questions: pendingQuestions(&p, a.room.Questions),
			preset:    presetFor(p.BotLevel),
			rnd:       rand.New(rand.NewSource(a.rnd.Int63())),
		}
		a.bots.Add(1)
		go func() {
			defer a.bots.Done()
			runner.run(a.botCtx)
		}()
	}
}

func (a *roomActor) stopBots() {
	if a.botStop != nil {
		a.botStop()
	}
}

// stop tears the actor down after the terminal transition: cancels timers
// and bot schedules, rejects queued commands, waits for the bot runners to
// exit and deregisters the room.
func (a *roomActor) stop() {
	a.disarmExpiry()
	a.stopBots()
	a.cancel()
	a.drain()
	a.bots.Wait()
	if a.registry != nil {
		a.registry.remove(a.id)
	}
}

func (a *roomActor) drain() {
	for {
		select {
		case req := <-a.requests:
			req.reply <- response{err: domain.ErrInvalidState}
		default:
			return
		}
	}
}

// Registry is the explicit per-process map of live room actors, constructed
// at startup and injected into handlers rather than referenced as ambient
// state.
type Registry struct {
	mu     sync.RWMutex
	actors map[int64]*roomActor
}

func NewRegistry() *Registry {
	return &Registry{actors: make(map[int64]*roomActor)}
}

func (r *Registry) get(roomID int64) (*roomActor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actors[roomID]
	return a, ok
}

// getOrSpawn returns the live actor for a room, creating one via spawn under
// the lock so two concurrent commands cannot race two actors into existence.
func (r *Registry) getOrSpawn(roomID int64, spawn func() *roomActor) *roomActor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.actors[roomID]; ok {
		return a
	}
	a := spawn()
	r.actors[roomID] = a
	return a
}

func (r *Registry) remove(roomID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actors, roomID)
}

// Shutdown cancels every live actor; each run loop drains its own queue
// and exits. Used on process teardown.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	actors := make([]*roomActor, 0, len(r.actors))
	for _, a := range r.actors {
		actors = append(actors, a)
	}
	r.actors = make(map[int64]*roomActor)
	r.mu.Unlock()

	for _, a := range actors {
		a.cancel()
	}
}
