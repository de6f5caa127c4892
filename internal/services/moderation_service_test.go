package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"directory_backend/internal/auth"
	"directory_backend/internal/dedup"
	"directory_backend/internal/models"
	"directory_backend/internal/repositories"
	"directory_backend/internal/services/dto"
	"directory_backend/internal/storage"
	"directory_backend/pkg/apperrors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type moderationFixture struct {
	svc           ModerationService
	users         *fakeUserRepo
	statuses      *fakeStatusRepo
	verifications *fakeVerificationRepo
	profiles      *fakeProfileRepo
	siteStatus    *fakeSiteStatusRepo
	audit         *fakeModerationRepo
	tokens        *fakeTokenRepo
	cache         *fakeCache
	emitter       *fakeEmitter
	db            *gorm.DB
	mock          sqlmock.Sqlmock
}

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()
	db, mock := newMockDB(t)

	f := &moderationFixture{
		statuses:      newFakeStatusRepo(),
		verifications: &fakeVerificationRepo{},
		profiles:      newFakeProfileRepo(),
		siteStatus:    &fakeSiteStatusRepo{},
		audit:         &fakeModerationRepo{},
		tokens:        newFakeTokenRepo(),
		cache:         &fakeCache{status: models.DefaultSiteStatus()},
		emitter:       &fakeEmitter{},
		db:            db,
		mock:          mock,
	}
	f.users = newFakeUserRepo(f.statuses)
	roles := newFakeRoleRepo()
	store := storage.NewMemoryStorage("http://files.test")

	authService := NewAuthService(
		f.users, f.statuses, roles, newFakeProgressRepo(nil), f.tokens,
		auth.NewTokenManager("test-secret", time.Hour), time.Hour, testLoginDomain, f.emitter,
	)
	profileService := NewProfileService(f.profiles, f.statuses, roles, f.audit, store, nil, 0, f.emitter)

	f.svc = NewModerationService(
		f.verifications, f.statuses, f.users, f.siteStatus, f.audit,
		authService, profileService, store, f.cache,
		dedup.NewGuard(nil, time.Second), f.emitter, nil, time.Minute,
	)
	return f
}

// pendingUser - зарегистрированный пользователь с pending проверкой
func (f *moderationFixture) pendingUser(t *testing.T, username string) (*models.User, *models.PaymentVerification) {
	t.Helper()
	user := f.users.addUser(t, username, testLoginDomain, "secret123")
	require.NoError(t, f.statuses.Create(nil, &models.UserStatus{UserID: user.ID}))
	return user, f.verifications.add(user.ID, models.VerificationStatusPending)
}

func TestModeration_ApproveSetsStatus(t *testing.T) {
	f := newModerationFixture(t)
	user, v := f.pendingUser(t, "alice")
	adminID := uuid.NewString()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	item, err := f.svc.Approve(context.Background(), f.db, adminID, v.ID)
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())

	assert.Equal(t, models.VerificationStatusApproved, item.Status)
	require.NotNil(t, item.ReviewedBy)
	assert.Equal(t, adminID, *item.ReviewedBy)
	assert.Contains(t, item.ProofImageURL, "payment-proofs/"+user.ID)

	status, err := f.statuses.FindByUserID(nil, user.ID)
	require.NoError(t, err)
	assert.True(t, status.Approved)
	assert.False(t, status.Banned)

	assert.Equal(t, ActionApprove, f.audit.last().Action)
	assert.True(t, f.emitter.has("verification.reviewed", "moderation"))
}

func TestModeration_ApproveTwiceIsConflict(t *testing.T) {
	f := newModerationFixture(t)
	_, v := f.pendingUser(t, "bob")

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err := f.svc.Approve(context.Background(), f.db, uuid.NewString(), v.ID)
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.svc.Approve(context.Background(), f.db, uuid.NewString(), v.ID)
	assert.ErrorIs(t, err, apperrors.ErrVerificationNotPending)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestModeration_ApproveUnknownVerification(t *testing.T) {
	f := newModerationFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.Approve(context.Background(), f.db, uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrVerificationNotFound)
}

func TestModeration_ApproveStatusFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	audit := &fakeModerationRepo{}
	svc := NewModerationService(
		repositories.NewVerificationRepository(),
		repositories.NewUserStatusRepository(),
		newFakeUserRepo(nil), &fakeSiteStatusRepo{}, audit,
		nil, nil, nil, &fakeCache{},
		dedup.NewGuard(nil, time.Second), nil, nil, time.Minute,
	)

	verificationID := uuid.NewString()
	userID := uuid.NewString()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payment_verifications" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "proof_image_path", "proof_image_url", "status", "created_at", "updated_at"}).
			AddRow(verificationID, userID, "payment-proofs/x/1.png", "http://files.test/x", "pending", now, now))
	mock.ExpectExec(`UPDATE "payment_verifications" SET .* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "user_statuses" .* ON CONFLICT \("user_id"\) DO UPDATE SET "approved"=\$\d+,"updated_at"=\$\d+`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), db, uuid.NewString(), verificationID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrApprovalFailed)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, audit.actions)
}

func TestModeration_DeclineLeavesStatus(t *testing.T) {
	f := newModerationFixture(t)
	user, v := f.pendingUser(t, "carol")

	item, err := f.svc.Decline(context.Background(), f.db, uuid.NewString(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusDeclined, item.Status)

	status, err := f.statuses.FindByUserID(nil, user.ID)
	require.NoError(t, err)
	assert.False(t, status.Approved)
	assert.False(t, status.Banned)

	_, err = f.svc.Decline(context.Background(), f.db, uuid.NewString(), v.ID)
	assert.ErrorIs(t, err, apperrors.ErrVerificationNotPending)
	assert.Equal(t, ActionDecline, f.audit.last().Action)
}

func TestModeration_BanWithoutStatusRow(t *testing.T) {
	f := newModerationFixture(t)
	user := f.users.addUser(t, "dave", testLoginDomain, "secret123")
	require.NoError(t, f.tokens.Create(nil, &models.RefreshToken{UserID: user.ID, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}))

	status, err := f.svc.SetBanned(context.Background(), f.db, uuid.NewString(), user.ID, true)
	require.NoError(t, err)
	assert.True(t, status.Banned)
	assert.False(t, status.Approved)
	assert.Equal(t, 0, f.tokens.countFor(user.ID))
	assert.Equal(t, ActionBan, f.audit.last().Action)

	status, err = f.svc.SetBanned(context.Background(), f.db, uuid.NewString(), user.ID, false)
	require.NoError(t, err)
	assert.False(t, status.Banned)
	assert.Equal(t, ActionUnban, f.audit.last().Action)
}

func TestModeration_BanKeepsApproval(t *testing.T) {
	f := newModerationFixture(t)
	user, _ := f.pendingUser(t, "erin")
	require.NoError(t, f.statuses.UpsertApproved(nil, user.ID, true))

	status, err := f.svc.SetBanned(context.Background(), f.db, uuid.NewString(), user.ID, true)
	require.NoError(t, err)
	assert.True(t, status.Banned)
	assert.True(t, status.Approved)
}

func TestModeration_BanUnknownUser(t *testing.T) {
	f := newModerationFixture(t)
	_, err := f.svc.SetBanned(context.Background(), f.db, uuid.NewString(), uuid.NewString(), true)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestModeration_ListVerificationsUnknownUser(t *testing.T) {
	f := newModerationFixture(t)
	user, _ := f.pendingUser(t, "frank")
	orphanID := uuid.NewString()
	f.verifications.add(orphanID, models.VerificationStatusPending)

	page, err := f.svc.ListVerifications(context.Background(), f.db, &dto.VerificationListQuery{Status: "pending"})
	require.NoError(t, err)
	items := page.Data.([]dto.VerificationItem)
	require.Len(t, items, 2)

	// от новых к старым
	assert.Equal(t, UnknownUserLabel(orphanID), items[0].Username)
	assert.Equal(t, "frank", items[1].Username)
	assert.Equal(t, user.Email, items[1].Email)

	f.users.findErr = errors.New("db down")
	page, err = f.svc.ListVerifications(context.Background(), f.db, &dto.VerificationListQuery{})
	require.NoError(t, err)
	for _, item := range page.Data.([]dto.VerificationItem) {
		assert.Equal(t, UnknownUserLabel(item.UserID), item.Username)
	}
}

func TestUnknownUserLabel(t *testing.T) {
	assert.Equal(t, "Unknown user (12345678)", UnknownUserLabel("12345678-aaaa-bbbb-cccc-dddddddddddd"))
	assert.Equal(t, "Unknown user (abc)", UnknownUserLabel("abc"))
}

func TestModeration_UpdateSiteStatus(t *testing.T) {
	f := newModerationFixture(t)
	adminID := uuid.NewString()
	offline := false

	status, err := f.svc.UpdateSiteStatus(context.Background(), f.db, adminID, &dto.SiteStatusRequest{
		IsOnline:           &offline,
		MaintenanceMessage: "  Back soon  ",
	})
	require.NoError(t, err)
	assert.False(t, status.IsOnline)
	assert.Equal(t, "Back soon", status.MaintenanceMessage)

	saved, err := f.siteStatus.Get(nil)
	require.NoError(t, err)
	assert.Equal(t, models.GlobalSiteStatusID, saved.ID)
	require.NotNil(t, saved.UpdatedBy)
	assert.Equal(t, adminID, *saved.UpdatedBy)

	assert.False(t, f.svc.GetSiteStatus().IsOnline)
	assert.True(t, f.emitter.has("site_status.changed", "site_status"))
	assert.Equal(t, ActionSiteStatus, f.audit.last().Action)
}

func TestModeration_ProfileFlags(t *testing.T) {
	f := newModerationFixture(t)
	profile := &models.Profile{Name: "Jane", Slug: "jane", Age: 25, City: "Lusaka", Country: "Zambia"}
	require.NoError(t, f.profiles.Create(nil, profile))

	resp, err := f.svc.SetProfileVerified(context.Background(), f.db, uuid.NewString(), profile.ID, true)
	require.NoError(t, err)
	assert.True(t, resp.IsVerified)
	assert.Equal(t, ActionVerified, f.audit.last().Action)

	resp, err = f.svc.SetProfilePremium(context.Background(), f.db, uuid.NewString(), profile.ID, true)
	require.NoError(t, err)
	assert.True(t, resp.IsPremium)

	_, err = f.svc.SetProfilePremium(context.Background(), f.db, uuid.NewString(), uuid.NewString(), true)
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}

func TestModeration_ConcurrentBanAndUnbanBothApply(t *testing.T) {
	f := newModerationFixture(t)
	user := f.users.addUser(t, "gina", testLoginDomain, "secret123")
	hold := newHoldFirst()
	f.statuses.bannedHook = hold.hook
	adminID := uuid.NewString()

	banned := make(chan error, 1)
	go func() {
		_, err := f.svc.SetBanned(context.Background(), f.db, adminID, user.ID, true)
		banned <- err
	}()
	<-hold.entered

	status, err := f.svc.SetBanned(context.Background(), f.db, adminID, user.ID, false)
	require.NoError(t, err)
	assert.False(t, status.Banned)

	close(hold.release)
	require.NoError(t, <-banned)

	// последняя запись выигрывает: бан завершился позже
	row, err := f.statuses.FindByUserID(nil, user.ID)
	require.NoError(t, err)
	assert.True(t, row.Banned)
	assert.ElementsMatch(t, []string{ActionUnban, ActionBan}, f.audit.actionsFor(user.ID))
}

func TestModeration_ConcurrentSiteStatusUpdatesBothApply(t *testing.T) {
	f := newModerationFixture(t)
	hold := newHoldFirst()
	f.siteStatus.saveHook = hold.hook
	offline, online := false, true

	first := make(chan error, 1)
	go func() {
		_, err := f.svc.UpdateSiteStatus(context.Background(), f.db, uuid.NewString(), &dto.SiteStatusRequest{
			IsOnline: &offline, MaintenanceMessage: "Maintenance",
		})
		first <- err
	}()
	<-hold.entered

	status, err := f.svc.UpdateSiteStatus(context.Background(), f.db, uuid.NewString(), &dto.SiteStatusRequest{IsOnline: &online})
	require.NoError(t, err)
	assert.True(t, status.IsOnline)
	assert.Empty(t, status.MaintenanceMessage)

	close(hold.release)
	require.NoError(t, <-first)

	saved, err := f.siteStatus.Get(nil)
	require.NoError(t, err)
	assert.False(t, saved.IsOnline)
	assert.Equal(t, "Maintenance", saved.MaintenanceMessage)
}
