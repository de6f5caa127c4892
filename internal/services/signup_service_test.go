package services

import (
	"context"
	"testing"
	"time"

	"directory_backend/internal/auth"
	"directory_backend/internal/dedup"
	"directory_backend/internal/models"
	"directory_backend/internal/services/dto"
	"directory_backend/internal/signup"
	"directory_backend/internal/storage"
	"directory_backend/pkg/apperrors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testLoginDomain = "members.local"

// pngProof - минимальный файл, который http.DetectContentType опознает как png
var pngProof = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

type signupFixture struct {
	svc           SignupService
	auth          AuthService
	users         *fakeUserRepo
	statuses      *fakeStatusRepo
	progress      *fakeProgressRepo
	countries     *fakeCountryRepo
	verifications *fakeVerificationRepo
	tokens        *fakeTokenRepo
	store         *storage.MemoryStorage
	emitter       *fakeEmitter
	db            *gorm.DB
	mock          sqlmock.Sqlmock
}

func newSignupFixture(t *testing.T, countries ...*models.Country) *signupFixture {
	t.Helper()
	db, mock := newMockDB(t)

	f := &signupFixture{
		statuses:      newFakeStatusRepo(),
		countries:     newFakeCountryRepo(countries...),
		verifications: &fakeVerificationRepo{},
		tokens:        newFakeTokenRepo(),
		store:         storage.NewMemoryStorage("http://files.test"),
		emitter:       &fakeEmitter{},
		db:            db,
		mock:          mock,
	}
	f.users = newFakeUserRepo(f.statuses)
	f.progress = newFakeProgressRepo(f.countries)
	f.auth = NewAuthService(
		f.users, f.statuses, newFakeRoleRepo(), f.progress, f.tokens,
		auth.NewTokenManager("test-secret", time.Hour), 24*time.Hour, testLoginDomain, f.emitter,
	)
	f.svc = NewSignupService(
		f.users, f.statuses, f.progress, f.countries, f.verifications,
		f.auth, f.store, dedup.NewGuard(nil, time.Second), f.emitter, nil,
		SignupOptions{LoginDomain: testLoginDomain},
	)
	return f
}

func zambia() *models.Country {
	return &models.Country{
		Name:         "Zambia",
		Currency:     "ZMW",
		SignupPrice:  25,
		PaymentPhone: "+260 97 000 0000",
		PaymentName:  "Directory Ltd",
		Active:       true,
	}
}

func (f *signupFixture) register(t *testing.T, username string) string {
	t.Helper()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	resp, err := f.svc.Register(context.Background(), f.db, &dto.RegisterRequest{Username: username, Password: "secret123"})
	require.NoError(t, err)
	return resp.UserID
}

// toProofStep проводит пользователя через выбор страны и оплату
func (f *signupFixture) toProofStep(t *testing.T, userID, countryID string) {
	t.Helper()
	_, err := f.svc.SelectCountry(f.db, userID, &dto.SelectCountryRequest{CountryID: countryID})
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(f.db, userID)
	require.NoError(t, err)
}

func (f *signupFixture) submit(userID string) (*dto.ProofResponse, error) {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	return f.svc.SubmitProof(context.Background(), f.db, userID, &dto.ProofUpload{FileName: "proof.png", Data: pngProof})
}

func TestSignup_RegisterCreatesUnapprovedStatusAndProgress(t *testing.T) {
	f := newSignupFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	resp, err := f.svc.Register(context.Background(), f.db, &dto.RegisterRequest{Username: "Alice", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())

	assert.Equal(t, signup.StepCountrySelection, resp.Step)
	require.NotNil(t, resp.Session)
	assert.NotEmpty(t, resp.Session.AccessToken)
	assert.Equal(t, "alice", resp.Session.User.Username)

	status, err := f.statuses.FindByUserID(nil, resp.UserID)
	require.NoError(t, err)
	assert.False(t, status.Approved)
	assert.False(t, status.Banned)

	assert.Equal(t, string(signup.StepCountrySelection), f.progress.step(resp.UserID))

	user, err := f.users.FindByID(nil, resp.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice@"+testLoginDomain, user.Email)
	assert.True(t, f.emitter.has("user.registered", "moderation"))
}

func TestSignup_RegisterDuplicateUsername(t *testing.T) {
	f := newSignupFixture(t)
	f.register(t, "bob")

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.Register(context.Background(), f.db, &dto.RegisterRequest{Username: "BOB", Password: "secret123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSignup_RegisterRejectsShortUsername(t *testing.T) {
	f := newSignupFixture(t)

	_, err := f.svc.Register(context.Background(), f.db, &dto.RegisterRequest{Username: "ab", Password: "secret123"})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.HTTPCode)
}

func TestSignup_ListCountriesOnlyActive(t *testing.T) {
	inactive := &models.Country{Name: "Kenya", Currency: "KES", SignupPrice: 100, Active: false}
	f := newSignupFixture(t, zambia(), inactive)

	options, err := f.svc.ListCountries(f.db)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "Zambia", options[0].Name)
	assert.Equal(t, "K25.00", options[0].FormattedAmount)
}

func TestSignup_SelectCountry(t *testing.T) {
	z := zambia()
	inactive := &models.Country{Name: "Kenya", Currency: "KES", Active: false}
	f := newSignupFixture(t, z, inactive)
	userID := f.register(t, "carol")

	t.Run("inactive country", func(t *testing.T) {
		_, err := f.svc.SelectCountry(f.db, userID, &dto.SelectCountryRequest{CountryID: inactive.ID})
		assert.ErrorIs(t, err, apperrors.ErrCountryInactive)
	})

	t.Run("unknown country", func(t *testing.T) {
		_, err := f.svc.SelectCountry(f.db, userID, &dto.SelectCountryRequest{CountryID: "00000000-0000-0000-0000-000000000000"})
		assert.ErrorIs(t, err, apperrors.ErrCountryNotFound)
	})

	t.Run("active country advances", func(t *testing.T) {
		state, err := f.svc.SelectCountry(f.db, userID, &dto.SelectCountryRequest{CountryID: z.ID})
		require.NoError(t, err)
		assert.Equal(t, signup.StepPaymentInstructions, state.Step)
		require.NotNil(t, state.CountryID)
		assert.Equal(t, z.ID, *state.CountryID)
	})

	t.Run("second selection is out of order", func(t *testing.T) {
		_, err := f.svc.SelectCountry(f.db, userID, &dto.SelectCountryRequest{CountryID: z.ID})
		assert.ErrorIs(t, err, apperrors.ErrInvalidSignupStep)
	})
}

func TestSignup_Instructions(t *testing.T) {
	z := zambia()
	f := newSignupFixture(t, z)
	userID := f.register(t, "dave")

	_, err := f.svc.Instructions(f.db, userID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignupStep)

	_, err = f.svc.SelectCountry(f.db, userID, &dto.SelectCountryRequest{CountryID: z.ID})
	require.NoError(t, err)

	info, err := f.svc.Instructions(f.db, userID)
	require.NoError(t, err)
	assert.Equal(t, "Zambia", info.Country)
	assert.Equal(t, "K25.00", info.FormattedAmount)
	assert.Equal(t, "ZMW", info.Currency)
	assert.Equal(t, "+260 97 000 0000", info.PaymentPhone)
	assert.Equal(t, "Directory Ltd", info.PaymentName)
	assert.Equal(t, "REF-DAVE", info.Reference)
}

func TestSignup_SubmitProofAdvancesAndSignsOut(t *testing.T) {
	z := zambia()
	f := newSignupFixture(t, z)
	userID := f.register(t, "erin")
	f.toProofStep(t, userID, z.ID)
	require.Equal(t, 1, f.tokens.countFor(userID))

	resp, err := f.submit(userID)
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())

	assert.Equal(t, models.VerificationStatusPending, resp.Status)
	assert.Equal(t, signup.StepConfirmation, resp.Step)
	assert.Equal(t, LoginRedirect, resp.Redirect)
	assert.Equal(t, string(signup.StepConfirmation), f.progress.step(userID))
	assert.Equal(t, 0, f.tokens.countFor(userID))
	assert.True(t, f.emitter.has("verification.submitted", "moderation"))

	state, err := f.svc.State(f.db, userID)
	require.NoError(t, err)
	require.NotNil(t, state.VerificationStatus)
	assert.Equal(t, models.VerificationStatusPending, *state.VerificationStatus)
	assert.False(t, state.CanResubmit)
}

func TestSignup_ResubmitRequiresDecline(t *testing.T) {
	z := zambia()
	f := newSignupFixture(t, z)
	userID := f.register(t, "frank")
	f.toProofStep(t, userID, z.ID)

	_, err := f.submit(userID)
	require.NoError(t, err)

	// pending блокирует повторную отправку
	_, err = f.svc.SubmitProof(context.Background(), f.db, userID, &dto.ProofUpload{FileName: "p.png", Data: pngProof})
	assert.ErrorIs(t, err, apperrors.ErrVerificationPending)

	latest, err := f.verifications.FindLatestByUserID(nil, userID)
	require.NoError(t, err)
	require.NoError(t, f.verifications.Review(nil, latest.ID, models.VerificationStatusDeclined, "admin", time.Now()))

	state, err := f.svc.State(f.db, userID)
	require.NoError(t, err)
	assert.True(t, state.CanResubmit)

	_, err = f.submit(userID)
	require.NoError(t, err)

	objects, err := f.store.List(context.Background(), "payment-proofs/"+userID+"/")
	require.NoError(t, err)
	assert.Len(t, objects, 1)

	count, err := f.verifications.CountByStatus(nil, models.VerificationStatusPending)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSignup_SubmitProofRejectsBadFiles(t *testing.T) {
	z := zambia()
	f := newSignupFixture(t, z)
	userID := f.register(t, "gina")
	f.toProofStep(t, userID, z.ID)

	_, err := f.svc.SubmitProof(context.Background(), f.db, userID, &dto.ProofUpload{FileName: "a.png"})
	assert.ErrorIs(t, err, apperrors.ErrFileRequired)

	_, err = f.svc.SubmitProof(context.Background(), f.db, userID, &dto.ProofUpload{FileName: "a.txt", Data: []byte("plain text, not an image")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidFileType)

	assert.Equal(t, string(signup.StepProofOfPayment), f.progress.step(userID))
}

func TestSignup_SubmitProofOutOfOrder(t *testing.T) {
	f := newSignupFixture(t, zambia())
	userID := f.register(t, "hank")

	_, err := f.svc.SubmitProof(context.Background(), f.db, userID, &dto.ProofUpload{FileName: "p.png", Data: pngProof})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignupStep)

	objects, err := f.store.List(context.Background(), "payment-proofs/")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestSignup_FailedInsertDiscardsProof(t *testing.T) {
	z := zambia()
	f := newSignupFixture(t, z)
	userID := f.register(t, "iris")
	f.toProofStep(t, userID, z.ID)
	f.verifications.createErr = assert.AnError

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.SubmitProof(context.Background(), f.db, userID, &dto.ProofUpload{FileName: "p.png", Data: pngProof})
	require.Error(t, err)

	objects, err := f.store.List(context.Background(), "payment-proofs/"+userID+"/")
	require.NoError(t, err)
	assert.Empty(t, objects)
	assert.Equal(t, string(signup.StepProofOfPayment), f.progress.step(userID))
}

func TestSignup_StateRejectsMalformedUser(t *testing.T) {
	f := newSignupFixture(t)
	_, err := f.svc.State(f.db, "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestSignup_ConcurrentRegisterNeverSharesSession(t *testing.T) {
	f := newSignupFixture(t)
	hold := newHoldFirst()
	f.users.createHook = hold.hook

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	type result struct {
		resp *dto.RegisterResponse
		err  error
	}
	first := make(chan result, 1)
	go func() {
		resp, err := f.svc.Register(context.Background(), f.db, &dto.RegisterRequest{Username: "carol", Password: "first-pass"})
		first <- result{resp, err}
	}()
	<-hold.entered

	// тот же username, другой пароль, пока первая регистрация не завершилась
	second, err := f.svc.Register(context.Background(), f.db, &dto.RegisterRequest{Username: "Carol", Password: "second-pass"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateRequest)
	assert.Nil(t, second)

	close(hold.release)
	r := <-first
	require.NoError(t, r.err)
	require.NotNil(t, r.resp.Session)
	require.NoError(t, f.mock.ExpectationsWereMet())

	_, err = f.auth.SignIn(context.Background(), nil, &dto.LoginRequest{Username: "carol", Password: "second-pass"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = f.auth.SignIn(context.Background(), nil, &dto.LoginRequest{Username: "carol", Password: "first-pass"})
	assert.NoError(t, err)
}
