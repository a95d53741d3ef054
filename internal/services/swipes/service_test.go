package swipes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/kinmatch/internal/domain/enums"
	"github.com/ivankudzin/kinmatch/internal/domain/model"
	pgrepo "github.com/ivankudzin/kinmatch/internal/repo/postgres"
	usagesvc "github.com/ivankudzin/kinmatch/internal/services/usage"
)

// serialTx runs every transaction under one mutex; pair locking is implied.
type serialTx struct {
	mu         sync.Mutex
	onCommit   func()
	onRollback func()
}

func (s *serialTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn(ctx, nil)
	switch {
	case err != nil && s.onRollback != nil:
		s.onRollback()
	case err == nil && s.onCommit != nil:
		s.onCommit()
	}
	return err
}

type lockerStub struct {
	pairs [][2]int64
}

func (s *lockerStub) LockPair(_ context.Context, _ pgx.Tx, a, b int64) error {
	a, b = model.CanonicalPair(a, b)
	s.pairs = append(s.pairs, [2]int64{a, b})
	return nil
}

type profilesStub map[int64]model.Profile

func (s profilesStub) GetProfile(_ context.Context, userID int64) (model.Profile, error) {
	p, ok := s[userID]
	if !ok {
		return model.Profile{}, pgrepo.ErrProfileNotFound
	}
	return p, nil
}

type blocksStub map[[2]int64]bool

func (s blocksStub) IsBlocked(_ context.Context, a, b int64) (bool, error) {
	return s[[2]int64{a, b}] || s[[2]int64{b, a}], nil
}

// memoryStore keeps swipes, matches and conversations with the same uniqueness rules as the schema.
type memoryStore struct {
	nextID        int64
	swipes        map[[2]int64]model.SwipeRecord
	matches       map[[2]int64]model.Match
	conversations map[[2]int64]string
	skipExists    bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		swipes:        map[[2]int64]model.SwipeRecord{},
		matches:       map[[2]int64]model.Match{},
		conversations: map[[2]int64]string{},
	}
}

func (m *memoryStore) Exists(_ context.Context, _ pgx.Tx, actor, target int64) (bool, error) {
	if m.skipExists {
		return false, nil
	}
	_, ok := m.swipes[[2]int64{actor, target}]
	return ok, nil
}

func (m *memoryStore) Create(_ context.Context, _ pgx.Tx, actor, target int64, kind enums.SwipeKind, now time.Time) (model.SwipeRecord, error) {
	key := [2]int64{actor, target}
	if _, ok := m.swipes[key]; ok {
		return model.SwipeRecord{}, pgrepo.ErrSwipeExists
	}
	m.nextID++
	rec := model.SwipeRecord{ID: m.nextID, ActorUserID: actor, TargetUserID: target, Kind: kind, CreatedAt: now}
	m.swipes[key] = rec
	return rec, nil
}

func (m *memoryStore) FindReciprocalLike(_ context.Context, _ pgx.Tx, actor, target int64) (model.SwipeRecord, error) {
	rec, ok := m.swipes[[2]int64{target, actor}]
	if !ok || !rec.Kind.IsLike() {
		return model.SwipeRecord{}, pgrepo.ErrSwipeNotFound
	}
	return rec, nil
}

func (m *memoryStore) MarkMatched(_ context.Context, _ pgx.Tx, ids ...int64) error {
	for key, rec := range m.swipes {
		for _, id := range ids {
			if rec.ID == id {
				rec.Matched = true
				m.swipes[key] = rec
			}
		}
	}
	return nil
}

func (m *memoryStore) LastPassSince(_ context.Context, _ pgx.Tx, actor int64, since time.Time) (model.SwipeRecord, error) {
	var best model.SwipeRecord
	found := false
	for _, rec := range m.swipes {
		if rec.ActorUserID != actor || rec.Kind != enums.SwipeKindPass || rec.CreatedAt.Before(since) {
			continue
		}
		if !found || rec.CreatedAt.After(best.CreatedAt) {
			best = rec
			found = true
		}
	}
	if !found {
		return model.SwipeRecord{}, pgrepo.ErrSwipeNotFound
	}
	return best, nil
}

func (m *memoryStore) DeleteByID(_ context.Context, _ pgx.Tx, id int64) error {
	for key, rec := range m.swipes {
		if rec.ID == id {
			delete(m.swipes, key)
			return nil
		}
	}
	return pgrepo.ErrSwipeNotFound
}

func (m *memoryStore) CreateConversation(_ context.Context, _ pgx.Tx, a, b int64) (string, error) {
	a, b = model.CanonicalPair(a, b)
	key := [2]int64{a, b}
	if id, ok := m.conversations[key]; ok {
		return id, nil
	}
	id := fmt.Sprintf("conv-%d-%d", a, b)
	m.conversations[key] = id
	return id, nil
}

type matchStore struct {
	*memoryStore
}

func (m matchStore) Create(_ context.Context, _ pgx.Tx, a, b int64, conversationID string, now time.Time) (model.Match, error) {
	a, b = model.CanonicalPair(a, b)
	key := [2]int64{a, b}
	if existing, ok := m.matches[key]; ok {
		return existing, nil
	}
	m.nextID++
	match := model.Match{ID: m.nextID, UserAID: a, UserBID: b, ConversationID: conversationID, CreatedAt: now}
	m.matches[key] = match
	return match, nil
}

type usageStub struct {
	mu      sync.Mutex
	likeCap int
	likes   map[int64]int
	staged  []int64
}

func (u *usageStub) ConsumeTx(_ context.Context, _ pgx.Tx, userID int64, _ enums.UsageAction) (usagesvc.Limits, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.likes == nil {
		u.likes = map[int64]int{}
	}
	if u.likeCap > 0 && u.likes[userID] >= u.likeCap {
		return usagesvc.Limits{LikesDaily: usagesvc.Counter{Used: u.likes[userID], Max: u.likeCap}}, usagesvc.ErrLimitReached
	}
	u.likes[userID]++
	u.staged = append(u.staged, userID)
	return usagesvc.Limits{LikesDaily: usagesvc.Counter{Used: u.likes[userID], Max: u.likeCap}}, nil
}

func (u *usageStub) commit() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.staged = nil
}

func (u *usageStub) rollback() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, userID := range u.staged {
		u.likes[userID]--
	}
	u.staged = nil
}

func (u *usageStub) GetLimits(_ context.Context, userID int64) (usagesvc.Limits, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return usagesvc.Limits{LikesDaily: usagesvc.Counter{Used: u.likes[userID], Max: u.likeCap}}, nil
}

type cacheStub struct {
	mu          sync.Mutex
	invalidated []int64
}

func (c *cacheStub) Invalidate(_ context.Context, ids ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, ids...)
	return nil
}

type fixture struct {
	svc    *Service
	store  *memoryStore
	usage  *usageStub
	cache  *cacheStub
	locker *lockerStub
	now    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemoryStore()
	usage := &usageStub{}
	cache := &cacheStub{}
	locker := &lockerStub{}
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

	svc := NewService(Dependencies{
		Tx:     &serialTx{onCommit: usage.commit, onRollback: usage.rollback},
		Locker: locker,
		Profiles: profilesStub{
			1: {UserID: 1, Active: true},
			2: {UserID: 2, Active: true},
			3: {UserID: 3, Active: true},
			4: {UserID: 4, Active: false},
		},
		Blocks:        blocksStub{{1, 3}: true},
		SwipeStore:    store,
		MatchStore:    matchStore{store},
		Conversations: store,
		Usage:         usage,
		Cache:         cache,
	}, Config{})
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, store: store, usage: usage, cache: cache, locker: locker, now: &now}
}

func TestSwipeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		actor, target int64
		kind          enums.SwipeKind
	}{
		{actor: 1, target: 1, kind: enums.SwipeKindLike},
		{actor: 0, target: 2, kind: enums.SwipeKindLike},
		{actor: 1, target: 2, kind: enums.SwipeKind("boost")},
	}
	for _, tc := range cases {
		if _, err := f.svc.Swipe(ctx, tc.actor, tc.target, tc.kind); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", tc, err)
		}
	}
}

func TestSwipeTargetNotFoundOrInactive(t *testing.T) {
	f := newFixture(t)
	for _, target := range []int64{4, 99} {
		res, err := f.svc.Swipe(context.Background(), 1, target, enums.SwipeKindLike)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome != enums.SwipeOutcomeUserNotFound {
			t.Fatalf("unexpected outcome for target %d: %s", target, res.Outcome)
		}
	}
	if len(f.store.swipes) != 0 {
		t.Fatalf("no swipe must be recorded")
	}
}

func TestSwipeBlockedEitherDirection(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Swipe(context.Background(), 3, 1, enums.SwipeKindLike)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != enums.SwipeOutcomeUserBlocked {
		t.Fatalf("unexpected outcome: %s", res.Outcome)
	}
	if f.usage.likes[3] != 0 {
		t.Fatalf("blocked swipe must not consume quota")
	}
}

func TestSwipeTwiceIsAlreadyProcessed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindLike)
	if err != nil || first.Outcome != enums.SwipeOutcomeLikeRecorded {
		t.Fatalf("unexpected first swipe: %+v err=%v", first, err)
	}
	second, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindPass)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Outcome != enums.SwipeOutcomeAlreadyProcessed {
		t.Fatalf("unexpected second outcome: %s", second.Outcome)
	}
	if len(f.store.swipes) != 1 {
		t.Fatalf("expected one swipe record, got %d", len(f.store.swipes))
	}
	if f.usage.likes[1] != 1 {
		t.Fatalf("duplicate swipe must not consume quota, got %d", f.usage.likes[1])
	}
}

func TestSwipeUniqueViolationMapsToAlreadyProcessed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindPass); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.store.skipExists = true
	res, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindPass)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != enums.SwipeOutcomeAlreadyProcessed {
		t.Fatalf("unexpected outcome: %s", res.Outcome)
	}
}

func TestSwipeUniqueViolationReportsCommittedUsage(t *testing.T) {
	f := newFixture(t)
	f.usage.likeCap = 5
	ctx := context.Background()
	if _, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindLike); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.store.skipExists = true
	res, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindLike)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != enums.SwipeOutcomeAlreadyProcessed {
		t.Fatalf("unexpected outcome: %s", res.Outcome)
	}
	if res.Usage.LikesDaily.Used != 1 {
		t.Fatalf("expected usage after rollback, got used=%d", res.Usage.LikesDaily.Used)
	}
}

func TestSwipeLimitReached(t *testing.T) {
	f := newFixture(t)
	f.usage.likeCap = 1
	ctx := context.Background()

	if res, _ := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindLike); res.Outcome != enums.SwipeOutcomeLikeRecorded {
		t.Fatalf("unexpected first outcome: %s", res.Outcome)
	}
	res, err := f.svc.Swipe(ctx, 1, 4, enums.SwipeKindLike)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != enums.SwipeOutcomeUserNotFound {
		t.Fatalf("inactive target must be checked before quota, got %s", res.Outcome)
	}

	f.svc.profiles = profilesStub{5: {UserID: 5, Active: true}}
	res, err = f.svc.Swipe(ctx, 1, 5, enums.SwipeKindLike)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != enums.SwipeOutcomeLimitReached {
		t.Fatalf("unexpected outcome: %s", res.Outcome)
	}
	if res.Usage.LikesDaily.Used != 1 {
		t.Fatalf("expected usage snapshot on limit, got %+v", res.Usage)
	}
	if _, ok := f.store.swipes[[2]int64{1, 5}]; ok {
		t.Fatalf("limited swipe must not be recorded")
	}

	pass, err := f.svc.Swipe(ctx, 1, 5, enums.SwipeKindPass)
	if err != nil || pass.Outcome != enums.SwipeOutcomePassRecorded {
		t.Fatalf("pass must never be quota limited: %+v err=%v", pass, err)
	}
}

func TestMutualLikeCreatesSingleMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Swipe(ctx, 2, 1, enums.SwipeKindSuperLike)
	if err != nil || first.Outcome != enums.SwipeOutcomeSuperLikeRecorded {
		t.Fatalf("unexpected first swipe: %+v err=%v", first, err)
	}
	second, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindLike)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Outcome != enums.SwipeOutcomeMatchCreated {
		t.Fatalf("unexpected outcome: %s", second.Outcome)
	}
	if second.ConversationID != "conv-1-2" || second.MatchID == 0 {
		t.Fatalf("unexpected match payload: %+v", second)
	}
	for key, rec := range f.store.swipes {
		if !rec.Matched {
			t.Fatalf("expected swipe %v to be marked matched", key)
		}
	}
	if len(f.store.matches) != 1 || len(f.store.conversations) != 1 {
		t.Fatalf("expected exactly one match and conversation, got %d/%d", len(f.store.matches), len(f.store.conversations))
	}
	if len(f.locker.pairs) != 2 || f.locker.pairs[0] != f.locker.pairs[1] {
		t.Fatalf("expected both directions to lock the same canonical pair, got %v", f.locker.pairs)
	}
	if len(f.cache.invalidated) < 3 {
		t.Fatalf("expected actor and target caches to be invalidated, got %v", f.cache.invalidated)
	}
}

func TestPassDoesNotMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Swipe(ctx, 2, 1, enums.SwipeKindLike); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindPass)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != enums.SwipeOutcomePassRecorded || len(f.store.matches) != 0 {
		t.Fatalf("pass must not create a match: %+v", res)
	}
}

func TestConcurrentMutualLikesCreateOneConversation(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		outcomes := make([]enums.SwipeOutcome, 2)
		for n, pair := range [][2]int64{{1, 2}, {2, 1}} {
			wg.Add(1)
			go func(n int, actor, target int64) {
				defer wg.Done()
				res, err := f.svc.Swipe(ctx, actor, target, enums.SwipeKindLike)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				outcomes[n] = res.Outcome
			}(n, pair[0], pair[1])
		}
		wg.Wait()

		matched := 0
		for _, o := range outcomes {
			if o == enums.SwipeOutcomeMatchCreated {
				matched++
			}
		}
		if matched != 1 {
			t.Fatalf("expected exactly one match_created outcome, got %v", outcomes)
		}
		if len(f.store.conversations) != 1 || len(f.store.matches) != 1 {
			t.Fatalf("expected one conversation and match, got %d/%d", len(f.store.conversations), len(f.store.matches))
		}
	}
}

func TestUndoWindow(t *testing.T) {
	cases := []struct {
		name string
		age  time.Duration
		want enums.SwipeOutcome
	}{
		{name: "four_minutes", age: 4 * time.Minute, want: enums.SwipeOutcomeSwipeUndone},
		{name: "six_minutes", age: 6 * time.Minute, want: enums.SwipeOutcomeNoRecentPassToUndo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			if _, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindPass); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			*f.now = f.now.Add(tc.age)

			res, err := f.svc.UndoLastSwipe(ctx, 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Outcome != tc.want {
				t.Fatalf("unexpected outcome: got %s want %s", res.Outcome, tc.want)
			}
			_, stillThere := f.store.swipes[[2]int64{1, 2}]
			if tc.want == enums.SwipeOutcomeSwipeUndone && (stillThere || res.TargetID != 2) {
				t.Fatalf("expected pass to be deleted: %+v", res)
			}
			if tc.want == enums.SwipeOutcomeNoRecentPassToUndo && !stillThere {
				t.Fatalf("expected old pass to stay")
			}
		})
	}
}

func TestUndoIgnoresLikes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindLike); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := f.svc.UndoLastSwipe(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != enums.SwipeOutcomeNoRecentPassToUndo {
		t.Fatalf("likes must not be undoable, got %s", res.Outcome)
	}
	if res.Usage.LikesDaily.Used != 1 {
		t.Fatalf("undo must not refund quota, got %+v", res.Usage)
	}
}

func TestUndoThenSwipeAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindPass); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res, _ := f.svc.UndoLastSwipe(ctx, 1); res.Outcome != enums.SwipeOutcomeSwipeUndone {
		t.Fatalf("unexpected undo outcome: %s", res.Outcome)
	}
	res, err := f.svc.Swipe(ctx, 1, 2, enums.SwipeKindLike)
	if err != nil || res.Outcome != enums.SwipeOutcomeLikeRecorded {
		t.Fatalf("expected pair to be unprocessed after undo: %+v err=%v", res, err)
	}
}
