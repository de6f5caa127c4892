package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"directory_backend/internal/auth"
	"directory_backend/internal/models"
	"directory_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)
	return db, mock
}

// ---------------------------------------------------------------------------
// users / statuses / roles / tokens
// ---------------------------------------------------------------------------

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[string]*models.User
	statuses *fakeStatusRepo
	findErr  error
	// createHook вызывается до записи; тесты держат в нем запрос "в полете"
	createHook func()
}

func newFakeUserRepo(statuses *fakeStatusRepo) *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}, statuses: statuses}
}

func (r *fakeUserRepo) Create(_ *gorm.DB, user *models.User) error {
	if r.createHook != nil {
		r.createHook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repositories.ErrUserAlreadyExists
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) withStatus(u *models.User) *models.User {
	cp := *u
	if r.statuses != nil {
		if st, err := r.statuses.FindByUserID(nil, u.ID); err == nil {
			cp.Status = st
		}
	}
	return &cp
}

func (r *fakeUserRepo) FindByID(_ *gorm.DB, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return r.withStatus(u), nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(_ *gorm.DB, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return r.withStatus(u), nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByUsername(_ *gorm.DB, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return r.withStatus(u), nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) FindByIDs(_ *gorm.DB, ids []string) ([]models.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) List(_ *gorm.DB, _ repositories.UserFilter) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		out = append(out, *r.withStatus(u))
	}
	return out, int64(len(out)), nil
}

// addUser регистрирует пользователя с паролем напрямую
func (r *fakeUserRepo) addUser(t *testing.T, username, domain, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Username: username, Email: auth.LoginIdentifier(username, domain), PasswordHash: hash}
	require.NoError(t, r.Create(nil, u))
	return u
}

type fakeStatusRepo struct {
	mu        sync.Mutex
	rows       map[string]*models.UserStatus
	upsertErr  error
	bannedHook func()
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{rows: map[string]*models.UserStatus{}}
}

func (r *fakeStatusRepo) Create(_ *gorm.DB, status *models.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *status
	r.rows[status.UserID] = &cp
	return nil
}

func (r *fakeStatusRepo) FindByUserID(_ *gorm.DB, userID string) (*models.UserStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.rows[userID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, repositories.ErrUserStatusNotFound
}

func (r *fakeStatusRepo) upsert(userID string, set func(*models.UserStatus)) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rows[userID]
	if !ok {
		st = &models.UserStatus{UserID: userID}
		r.rows[userID] = st
	}
	set(st)
	return nil
}

func (r *fakeStatusRepo) UpsertApproved(_ *gorm.DB, userID string, approved bool) error {
	return r.upsert(userID, func(s *models.UserStatus) { s.Approved = approved })
}

func (r *fakeStatusRepo) UpsertBanned(_ *gorm.DB, userID string, banned bool) error {
	if r.bannedHook != nil {
		r.bannedHook()
	}
	return r.upsert(userID, func(s *models.UserStatus) { s.Banned = banned })
}

func (r *fakeStatusRepo) CountApproved(_ *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, st := range r.rows {
		if st.Approved && !st.Banned {
			n++
		}
	}
	return n, nil
}

type fakeRoleRepo struct {
	mu    sync.Mutex
	roles map[string]map[models.Capability]bool
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[string]map[models.Capability]bool{}}
}

func (r *fakeRoleRepo) HasCapability(_ *gorm.DB, userID string, c models.Capability) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roles[userID][c], nil
}

func (r *fakeRoleRepo) Grant(_ *gorm.DB, userID string, c models.Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.roles[userID] == nil {
		r.roles[userID] = map[models.Capability]bool{}
	}
	r.roles[userID][c] = true
	return nil
}

func (r *fakeRoleRepo) Revoke(_ *gorm.DB, userID string, c models.Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.roles[userID], c)
	return nil
}

func (r *fakeRoleRepo) ListByUserID(_ *gorm.DB, userID string) ([]models.Capability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Capability
	for c := range r.roles[userID] {
		out = append(out, c)
	}
	return out, nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]*models.RefreshToken{}}
}

func (r *fakeTokenRepo) Create(_ *gorm.DB, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *fakeTokenRepo) FindByToken(_ *gorm.DB, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, repositories.ErrRefreshTokenNotFound
}

func (r *fakeTokenRepo) DeleteByToken(_ *gorm.DB, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return repositories.ErrRefreshTokenNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *fakeTokenRepo) DeleteByUserID(_ *gorm.DB, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *fakeTokenRepo) CleanExpired(_ *gorm.DB) (int64, error) { return 0, nil }

func (r *fakeTokenRepo) countFor(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// signup: countries / progress / verifications
// ---------------------------------------------------------------------------

type fakeCountryRepo struct {
	mu        sync.Mutex
	countries map[string]*models.Country
}

func newFakeCountryRepo(countries ...*models.Country) *fakeCountryRepo {
	r := &fakeCountryRepo{countries: map[string]*models.Country{}}
	for _, c := range countries {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		r.countries[c.ID] = c
	}
	return r
}

func (r *fakeCountryRepo) Create(_ *gorm.DB, c *models.Country) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.NewString()
	cp := *c
	r.countries[c.ID] = &cp
	return nil
}

func (r *fakeCountryRepo) Update(_ *gorm.DB, c *models.Country) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.countries[c.ID]; !ok {
		return repositories.ErrCountryNotFound
	}
	cp := *c
	r.countries[c.ID] = &cp
	return nil
}

func (r *fakeCountryRepo) Delete(_ *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.countries[id]; !ok {
		return repositories.ErrCountryNotFound
	}
	delete(r.countries, id)
	return nil
}

func (r *fakeCountryRepo) FindByID(_ *gorm.DB, id string) (*models.Country, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.countries[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, repositories.ErrCountryNotFound
}

func (r *fakeCountryRepo) FindByName(_ *gorm.DB, name string) (*models.Country, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.countries {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repositories.ErrCountryNotFound
}

func (r *fakeCountryRepo) list(onlyActive bool) []models.Country {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Country
	for _, c := range r.countries {
		if onlyActive && !c.Active {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *fakeCountryRepo) ListActive(_ *gorm.DB) ([]models.Country, error) { return r.list(true), nil }
func (r *fakeCountryRepo) ListAll(_ *gorm.DB) ([]models.Country, error)    { return r.list(false), nil }

type fakeProgressRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.SignupProgress
	countries *fakeCountryRepo
}

func newFakeProgressRepo(countries *fakeCountryRepo) *fakeProgressRepo {
	return &fakeProgressRepo{rows: map[string]*models.SignupProgress{}, countries: countries}
}

func (r *fakeProgressRepo) Create(_ *gorm.DB, p *models.SignupProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.rows[p.UserID] = &cp
	return nil
}

func (r *fakeProgressRepo) FindByUserID(_ *gorm.DB, userID string) (*models.SignupProgress, error) {
	r.mu.Lock()
	p, ok := r.rows[userID]
	r.mu.Unlock()
	if !ok {
		return nil, repositories.ErrProgressNotFound
	}
	cp := *p
	if cp.CountryID != nil && r.countries != nil {
		if c, err := r.countries.FindByID(nil, *cp.CountryID); err == nil {
			cp.Country = c
		}
	}
	return &cp, nil
}

func (r *fakeProgressRepo) Advance(_ *gorm.DB, userID, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[userID]
	if !ok || p.Step != from {
		return repositories.ErrStepConflict
	}
	p.Step = to
	return nil
}

func (r *fakeProgressRepo) AdvanceWithCountry(db *gorm.DB, userID, from, to, countryID string) error {
	if err := r.Advance(db, userID, from, to); err != nil {
		return err
	}
	r.mu.Lock()
	r.rows[userID].CountryID = &countryID
	r.mu.Unlock()
	return nil
}

func (r *fakeProgressRepo) step(userID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.rows[userID]; ok {
		return p.Step
	}
	return ""
}

type fakeVerificationRepo struct {
	mu        sync.Mutex
	rows      []*models.PaymentVerification
	createErr error
	reviewErr error
}

func (r *fakeVerificationRepo) Create(_ *gorm.DB, v *models.PaymentVerification) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = uuid.NewString()
	v.CreatedAt = time.Now().Add(time.Duration(len(r.rows)) * time.Millisecond)
	cp := *v
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *fakeVerificationRepo) FindByID(_ *gorm.DB, id string) (*models.PaymentVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.rows {
		if v.ID == id {
			cp := *v
			return &cp, nil
		}
	}
	return nil, repositories.ErrVerificationNotFound
}

func (r *fakeVerificationRepo) FindLatestByUserID(_ *gorm.DB, userID string) (*models.PaymentVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].UserID == userID {
			cp := *r.rows[i]
			return &cp, nil
		}
	}
	return nil, repositories.ErrVerificationNotFound
}

func (r *fakeVerificationRepo) List(_ *gorm.DB, f repositories.VerificationFilter) ([]models.PaymentVerification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PaymentVerification
	for i := len(r.rows) - 1; i >= 0; i-- {
		v := r.rows[i]
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *fakeVerificationRepo) Review(_ *gorm.DB, id string, status models.VerificationStatus, reviewerID string, at time.Time) error {
	if r.reviewErr != nil {
		return r.reviewErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.rows {
		if v.ID == id {
			if v.Status != models.VerificationStatusPending {
				return repositories.ErrVerificationNotPending
			}
			v.Status = status
			v.ReviewedBy = &reviewerID
			v.ReviewedAt = &at
			return nil
		}
	}
	return repositories.ErrVerificationNotPending
}

func (r *fakeVerificationRepo) CountByStatus(_ *gorm.DB, status models.VerificationStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, v := range r.rows {
		if v.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeVerificationRepo) ProofPathsByUser(_ *gorm.DB, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, v := range r.rows {
		if v.UserID == userID {
			out = append(out, v.ProofImagePath)
		}
	}
	return out, nil
}

func (r *fakeVerificationRepo) add(userID string, status models.VerificationStatus) *models.PaymentVerification {
	v := &models.PaymentVerification{UserID: userID, Status: status, ProofImagePath: "payment-proofs/" + userID + "/1.png"}
	_ = r.Create(nil, v)
	return v
}

// ---------------------------------------------------------------------------
// profiles / site status / audit / events
// ---------------------------------------------------------------------------

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*models.Profile{}}
}

func (r *fakeProfileRepo) Create(_ *gorm.DB, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.Slug == p.Slug {
			return repositories.ErrSlugTaken
		}
	}
	p.ID = uuid.NewString()
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *fakeProfileRepo) Update(_ *gorm.DB, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.profiles[p.ID]
	if !ok {
		return repositories.ErrProfileNotFound
	}
	images, verified, premium := existing.Images, existing.IsVerified, existing.IsPremium
	cp := *p
	cp.Images, cp.IsVerified, cp.IsPremium = images, verified, premium
	r.profiles[p.ID] = &cp
	return nil
}

func (r *fakeProfileRepo) Delete(_ *gorm.DB, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return repositories.ErrProfileNotFound
	}
	delete(r.profiles, id)
	return nil
}

func (r *fakeProfileRepo) FindByID(_ *gorm.DB, id string) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repositories.ErrProfileNotFound
}

func (r *fakeProfileRepo) SlugExists(_ *gorm.DB, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProfileRepo) List(_ *gorm.DB, _ repositories.ProfileFilter) ([]models.Profile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Profile
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProfileRepo) SetFlag(_ *gorm.DB, id, column string, value bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return repositories.ErrProfileNotFound
	}
	switch column {
	case repositories.ProfileFlagVerified:
		p.IsVerified = value
	case repositories.ProfileFlagPremium:
		p.IsPremium = value
	default:
		return errors.New("unknown flag")
	}
	return nil
}

func (r *fakeProfileRepo) SetImages(_ *gorm.DB, id string, images []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return repositories.ErrProfileNotFound
	}
	p.Images = append([]string{}, images...)
	return nil
}

func (r *fakeProfileRepo) Count(_ *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.profiles)), nil
}

type fakeSiteStatusRepo struct {
	mu       sync.Mutex
	status   *models.SiteStatus
	saveHook func()
}

func (r *fakeSiteStatusRepo) Get(_ *gorm.DB) (*models.SiteStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == nil {
		return nil, repositories.ErrSiteStatusNotFound
	}
	cp := *r.status
	return &cp, nil
}

func (r *fakeSiteStatusRepo) Save(_ *gorm.DB, s *models.SiteStatus) error {
	if r.saveHook != nil {
		r.saveHook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.status = &cp
	return nil
}

func (r *fakeSiteStatusRepo) EnsureDefault(_ *gorm.DB) error { return nil }

type fakeModerationRepo struct {
	mu      sync.Mutex
	actions []models.ModerationAction
}

func (r *fakeModerationRepo) Create(_ *gorm.DB, a *models.ModerationAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.NewString()
	r.actions = append(r.actions, *a)
	return nil
}

func (r *fakeModerationRepo) List(_ *gorm.DB, _ repositories.ModerationFilter) ([]models.ModerationAction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.ModerationAction{}, r.actions...)
	return out, int64(len(out)), nil
}

func (r *fakeModerationRepo) actionsFor(targetID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, a := range r.actions {
		if a.TargetID == targetID {
			out = append(out, a.Action)
		}
	}
	return out
}

func (r *fakeModerationRepo) last() models.ModerationAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.actions[len(r.actions)-1]
}

// holdFirst задерживает первый вызов хука до release; остальные проходят сразу
type holdFirst struct {
	calls   int32
	entered chan struct{}
	release chan struct{}
}

func newHoldFirst() *holdFirst {
	return &holdFirst{entered: make(chan struct{}), release: make(chan struct{})}
}

func (h *holdFirst) hook() {
	if atomic.AddInt32(&h.calls, 1) == 1 {
		close(h.entered)
		<-h.release
	}
}

type emitted struct {
	Type    string
	Topic   string
	Key     string
	Payload any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (e *fakeEmitter) Emit(_ context.Context, eventType, topic, key string, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{Type: eventType, Topic: topic, Key: key, Payload: payload})
	return nil
}

func (e *fakeEmitter) last(eventType string) (emitted, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.events) - 1; i >= 0; i-- {
		if e.events[i].Type == eventType {
			return e.events[i], true
		}
	}
	return emitted{}, false
}

func (e *fakeEmitter) has(eventType, topic string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if ev.Type == eventType && ev.Topic == topic {
			return true
		}
	}
	return false
}

type fakeCache struct {
	mu     sync.Mutex
	status models.SiteStatus
}

func (c *fakeCache) Current() models.SiteStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *fakeCache) Set(s models.SiteStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
}
