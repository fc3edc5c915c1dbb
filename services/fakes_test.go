package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/repositories"
	"github.com/google/uuid"
)

// memStore backs every fake repository so cross-entity rules (unique
// registration, game in use) behave like the database.
type memStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]models.User
	games         map[uuid.UUID]models.Game
	tournaments   map[uuid.UUID]models.Tournament
	registrations map[uuid.UUID]models.Registration
	matches       map[uuid.UUID]models.Match

	statusWrites     int
	failMatchCascade error
	// deleted by a concurrent request just before the status write lands
	vanishOnStatusWrite map[uuid.UUID]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[uuid.UUID]models.User{},
		games:         map[uuid.UUID]models.Game{},
		tournaments:   map[uuid.UUID]models.Tournament{},
		registrations: map[uuid.UUID]models.Registration{},
		matches:       map[uuid.UUID]models.Match{},
	}
}

func (s *memStore) statusWriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusWrites
}

func (s *memStore) tournament(id uuid.UUID) models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tournaments[id]
}

func (s *memStore) match(id uuid.UUID) models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[id]
}

// --- users ---

type fakeUserRepo struct{ *memStore }

func (r fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	u.CreatedAt = time.Now()
	r.users[u.ID] = *u
	return nil
}

func (r fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r fakeUserRepo) List(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

func (r fakeUserRepo) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.users[u.ID] = *u
	return nil
}

func (r fakeUserRepo) GetSummaries(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := map[uuid.UUID]models.UserSummary{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			result[id] = models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
	return result, nil
}

// --- games ---

type fakeGameRepo struct{ *memStore }

func (r fakeGameRepo) Create(_ context.Context, g *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.games {
		if existing.Name == g.Name {
			return repositories.ErrGameNameConflict
		}
	}
	r.games[g.ID] = *g
	return nil
}

func (r fakeGameRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	return &g, nil
}

func (r fakeGameRepo) GetAll(_ context.Context) ([]models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	games := make([]models.Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].Name < games[j].Name })
	return games, nil
}

func (r fakeGameRepo) Update(_ context.Context, g *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[g.ID]; !ok {
		return repositories.ErrGameNotFound
	}
	for id, existing := range r.games {
		if id != g.ID && existing.Name == g.Name {
			return repositories.ErrGameNameConflict
		}
	}
	r.games[g.ID] = *g
	return nil
}

func (r fakeGameRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[id]; !ok {
		return repositories.ErrGameNotFound
	}
	for _, t := range r.tournaments {
		if t.GameID == id {
			return repositories.ErrGameInUse
		}
	}
	delete(r.games, id)
	return nil
}

func (r fakeGameRepo) GetSummaries(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.GameSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := map[uuid.UUID]models.GameSummary{}
	for _, id := range ids {
		if g, ok := r.games[id]; ok {
			result[id] = models.GameSummary{ID: g.ID, Name: g.Name}
		}
	}
	return result, nil
}

// --- tournaments ---

type fakeTournamentRepo struct{ *memStore }

func (r fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[t.GameID]; !ok {
		return repositories.ErrTournamentInvalidGame
	}
	t.CreatedAt = time.Now()
	stored := *t
	stored.Game, stored.Organizer = nil, nil
	r.tournaments[t.ID] = stored
	return nil
}

func (r fakeTournamentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r fakeTournamentRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := map[uuid.UUID]models.Tournament{}
	for _, id := range ids {
		if t, ok := r.tournaments[id]; ok {
			result[id] = t
		}
	}
	return result, nil
}

func (r fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if filter.GameID != nil && t.GameID != *filter.GameID {
			continue
		}
		if filter.OrganizerID != nil && t.OrganizerID != *filter.OrganizerID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		if filter.Order == repositories.OrderByNewest {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].Dates.Start.Before(list[j].Dates.Start)
	})
	return list, nil
}

func (r fakeTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	stored := *t
	stored.Game, stored.Organizer = nil, nil
	r.tournaments[t.ID] = stored
	return nil
}

func (r fakeTournamentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vanishOnStatusWrite[id] {
		delete(r.tournaments, id)
	}
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	r.tournaments[id] = t
	r.statusWrites++
	return nil
}

func (r fakeTournamentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

func (r fakeTournamentRepo) Count(_ context.Context, status *models.TournamentStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, t := range r.tournaments {
		if status == nil || t.Status == *status {
			count++
		}
	}
	return count, nil
}

// --- registrations ---

type fakeRegistrationRepo struct{ *memStore }

func (r fakeRegistrationRepo) Create(_ context.Context, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[reg.TournamentID]; !ok {
		return repositories.ErrRegistrationInvalidTournament
	}
	for _, existing := range r.registrations {
		if existing.UserID == reg.UserID && existing.TournamentID == reg.TournamentID {
			return repositories.ErrRegistrationConflict
		}
	}
	reg.CreatedAt = time.Now()
	r.registrations[reg.ID] = *reg
	return nil
}

func (r fakeRegistrationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	return &reg, nil
}

func (r fakeRegistrationRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := map[uuid.UUID]models.Registration{}
	for _, id := range ids {
		if reg, ok := r.registrations[id]; ok {
			result[id] = reg
		}
	}
	return result, nil
}

func (r fakeRegistrationRepo) listWhere(keep func(models.Registration) bool) []models.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]models.Registration, 0)
	for _, reg := range r.registrations {
		if keep(reg) {
			list = append(list, reg)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

func (r fakeRegistrationRepo) ListByTournament(_ context.Context, tournamentID uuid.UUID) ([]models.Registration, error) {
	return r.listWhere(func(reg models.Registration) bool { return reg.TournamentID == tournamentID }), nil
}

func (r fakeRegistrationRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Registration, error) {
	return r.listWhere(func(reg models.Registration) bool { return reg.UserID == userID }), nil
}

func (r fakeRegistrationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.RegistrationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = status
	r.registrations[id] = reg
	return nil
}

func (r fakeRegistrationRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.registrations[id]; !ok {
		return repositories.ErrRegistrationNotFound
	}
	delete(r.registrations, id)
	return nil
}

func (r fakeRegistrationRepo) DeleteByTournament(_ context.Context, tournamentID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, reg := range r.registrations {
		if reg.TournamentID == tournamentID {
			delete(r.registrations, id)
			n++
		}
	}
	return n, nil
}

func (r fakeRegistrationRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registrations), nil
}

// --- matches ---

type fakeMatchRepo struct{ *memStore }

func (r fakeMatchRepo) Create(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[m.TournamentID]; !ok {
		return repositories.ErrMatchInvalidTournament
	}
	r.matches[m.ID] = *m
	return nil
}

func (r fakeMatchRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &m, nil
}

func (r fakeMatchRepo) listWhere(keep func(models.Match) bool) []models.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]models.Match, 0)
	for _, m := range r.matches {
		if keep(m) {
			list = append(list, m)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	return list
}

func (r fakeMatchRepo) ListByTournament(_ context.Context, tournamentID uuid.UUID) ([]models.Match, error) {
	return r.listWhere(func(m models.Match) bool { return m.TournamentID == tournamentID }), nil
}

func (r fakeMatchRepo) ListByTeams(_ context.Context, ids []uuid.UUID) ([]models.Match, error) {
	set := map[uuid.UUID]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return r.listWhere(func(m models.Match) bool { return set[m.TeamA] || set[m.TeamB] }), nil
}

func (r fakeMatchRepo) Update(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	r.matches[m.ID] = *m
	return nil
}

func (r fakeMatchRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.matches, id)
	return nil
}

func (r fakeMatchRepo) DeleteByTournament(_ context.Context, tournamentID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMatchCascade != nil {
		return 0, r.failMatchCascade
	}
	var n int64
	for id, m := range r.matches {
		if m.TournamentID == tournamentID {
			delete(r.matches, id)
			n++
		}
	}
	return n, nil
}

func (r fakeMatchRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches), nil
}

// --- notifier & clock ---

type recordingNotifier struct {
	mu       sync.Mutex
	messages []LiveMessage
}

func (n *recordingNotifier) BroadcastToRoom(_ string, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if m, ok := message.(LiveMessage); ok {
		n.messages = append(n.messages, m)
	}
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]string, 0, len(n.messages))
	for _, m := range n.messages {
		types = append(types, m.Type)
	}
	return types
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// --- wiring ---

type testEnv struct {
	store         *memStore
	clock         *testClock
	notifier      *recordingNotifier
	games         GameService
	tournaments   TournamentService
	registrations RegistrationService
	matches       MatchService

	organizer Actor
	admin     Actor
	player    Actor
	game      *models.Game
}

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv() *testEnv {
	store := newMemStore()
	clock := &testClock{now: t0}
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userRepo := fakeUserRepo{store}
	gameRepo := fakeGameRepo{store}
	tournamentRepo := fakeTournamentRepo{store}
	registrationRepo := fakeRegistrationRepo{store}
	matchRepo := fakeMatchRepo{store}

	env := &testEnv{
		store:         store,
		clock:         clock,
		notifier:      notifier,
		games:         NewGameService(gameRepo),
		tournaments:   NewTournamentService(tournamentRepo, gameRepo, userRepo, registrationRepo, matchRepo, notifier, clock.Now, logger),
		registrations: NewRegistrationService(registrationRepo, tournamentRepo, gameRepo, userRepo, notifier, clock.Now, logger),
		matches:       NewMatchService(matchRepo, tournamentRepo, registrationRepo, userRepo, notifier, logger),
	}

	env.organizer = env.addUser("Olga", models.RoleOrganizer)
	env.admin = env.addUser("Adam", models.RoleAdmin)
	env.player = env.addUser("Pavel", models.RolePlayer)

	game := &models.Game{ID: uuid.New(), Name: "Valorant", ImageURL: "IMAGE_GAME_1"}
	store.games[game.ID] = *game
	env.game = game
	return env
}

func (e *testEnv) addUser(name string, role models.UserRole) Actor {
	id := uuid.New()
	e.store.users[id] = models.User{ID: id, Name: name, Email: name + "@example.com", Role: role}
	return Actor{ID: id, Role: role, Name: name}
}

// seedTournament stores a tournament directly, bypassing derivation.
func (e *testEnv) seedTournament(start, end time.Time, status models.TournamentStatus) models.Tournament {
	t := models.Tournament{
		ID:               uuid.New(),
		Name:             "Cup " + uuid.NewString()[:8],
		GameID:           e.game.ID,
		OrganizerID:      e.organizer.ID,
		Format:           "single elimination",
		Dates:            models.DateRange{Start: start, End: end},
		ImageURL:         "IMAGE_TOURNAMENT_1",
		Status:           status,
		RegistrationOpen: true,
		CreatedAt:        time.Now(),
	}
	e.store.mu.Lock()
	e.store.tournaments[t.ID] = t
	e.store.mu.Unlock()
	return t
}

func (e *testEnv) seedRegistration(user Actor, tournamentID uuid.UUID, status models.RegistrationStatus) models.Registration {
	reg := models.Registration{
		ID:           uuid.New(),
		UserID:       user.ID,
		TournamentID: tournamentID,
		TeamName:     user.Name + " Squad",
		Status:       status,
		CreatedAt:    time.Now(),
	}
	e.store.mu.Lock()
	e.store.registrations[reg.ID] = reg
	e.store.mu.Unlock()
	return reg
}
