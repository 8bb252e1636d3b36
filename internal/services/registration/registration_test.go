package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/godlycrypto/referral-bot/internal/messages"
	"github.com/godlycrypto/referral-bot/internal/models"
	"github.com/godlycrypto/referral-bot/internal/storage/repository"
)

type MemberRepositoryMock struct {
	mock.Mock
}

func (m *MemberRepositoryMock) GetMemberByID(ctx context.Context, userID int64) (*models.Member, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MemberRepositoryMock) GetMemberByUsername(ctx context.Context, username string) (*models.Member, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MemberRepositoryMock) UpsertMember(ctx context.Context, member models.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func newService(repo MemberRepository) *RegistrationService {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewRegistrationService(repo, NewDraftStore(time.Hour), 5000, log)
}

func TestStart_NewUser(t *testing.T) {
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(nil, repository.ErrMemberNotFound)
	svc := newService(repo)

	reply, err := svc.Start(context.Background(), 1, "alice")

	require.NoError(t, err)
	assert.Equal(t, messages.KindWelcome, reply.Kind)
	assert.True(t, svc.InProgress(1))
	repo.AssertExpectations(t)
}

func TestStart_ApprovedMemberSkipsDialog(t *testing.T) {
	renewalDate := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(&models.Member{
		UserID:                  1,
		Language:                models.LanguageFR,
		Status:                  models.StatusApproved,
		SubscriptionRenewalDate: &renewalDate,
	}, nil)
	svc := newService(repo)

	reply, err := svc.Start(context.Background(), 1, "alice")

	require.NoError(t, err)
	assert.Equal(t, messages.KindAlreadyActive, reply.Kind)
	assert.Equal(t, models.LanguageFR, reply.Lang)
	assert.Equal(t, "25 July 2025", reply.Params.RenewalDate)
	assert.False(t, svc.InProgress(1))
}

func TestStart_RejectedMemberRestartsDialog(t *testing.T) {
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(&models.Member{
		UserID: 1,
		Status: models.StatusRejected,
	}, nil)
	svc := newService(repo)

	reply, err := svc.Start(context.Background(), 1, "alice")

	require.NoError(t, err)
	assert.Equal(t, messages.KindWelcome, reply.Kind)
	assert.True(t, svc.InProgress(1))
}

func TestStart_RepositoryError(t *testing.T) {
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(nil, errors.New("connection refused"))
	svc := newService(repo)

	_, err := svc.Start(context.Background(), 1, "alice")

	require.Error(t, err)
	assert.False(t, svc.InProgress(1))
}

func TestFullRegistrationWalk(t *testing.T) {
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(nil, repository.ErrMemberNotFound)
	repo.On("UpsertMember", mock.Anything, mock.MatchedBy(func(m models.Member) bool {
		return m.UserID == 1 &&
			m.FullName == "Alice A" &&
			m.Phone == "670000000" &&
			m.Email == "alice@example.com" &&
			m.Godfather != nil && *m.Godfather == 42 &&
			m.PaymentMethod == models.PaymentMTN &&
			m.TransactionID == "TX123" &&
			m.Status == models.StatusPending
	})).Return(nil)
	svc := newService(repo)
	ctx := context.Background()

	_, err := svc.Start(ctx, 1, "alice")
	require.NoError(t, err)

	reply, ok := svc.SetLanguage(1, models.LanguageEN)
	require.True(t, ok)
	assert.Equal(t, messages.KindAskName, reply.Kind)

	reply, _, err = svc.HandleText(ctx, 1, "Alice A")
	require.NoError(t, err)
	assert.Equal(t, messages.KindAskNumber, reply.Kind)

	reply, _, err = svc.HandleText(ctx, 1, "670000000")
	require.NoError(t, err)
	assert.Equal(t, messages.KindAskEmail, reply.Kind)

	// Адрес приводится к нижнему регистру.
	reply, _, err = svc.HandleText(ctx, 1, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, messages.KindAskGodfather, reply.Kind)

	// Числовой спонсор принимается без проверки существования.
	reply, _, err = svc.HandleText(ctx, 1, "42")
	require.NoError(t, err)
	assert.Equal(t, messages.KindChoosePayment, reply.Kind)
	assert.Equal(t, 5000, reply.Params.Fee)

	reply, ok = svc.SetPaymentMethod(1, models.PaymentMTN)
	require.True(t, ok)
	assert.Equal(t, messages.KindPaymentInstructions, reply.Kind)

	reply, member, err := svc.HandleText(ctx, 1, "TX123")
	require.NoError(t, err)
	assert.Equal(t, messages.KindPendingApproval, reply.Kind)
	require.NotNil(t, member)
	assert.Equal(t, models.StatusPending, member.Status)
	assert.False(t, svc.InProgress(1))
	repo.AssertExpectations(t)
}

func TestHandleText_NoDialogIgnored(t *testing.T) {
	svc := newService(new(MemberRepositoryMock))

	reply, member, err := svc.HandleText(context.Background(), 1, "hello")

	require.NoError(t, err)
	assert.Equal(t, messages.KindNone, reply.Kind)
	assert.Nil(t, member)
}

func TestHandleText_ButtonStepsIgnoreText(t *testing.T) {
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(nil, repository.ErrMemberNotFound)
	svc := newService(repo)
	ctx := context.Background()

	_, err := svc.Start(ctx, 1, "alice")
	require.NoError(t, err)

	// Шаг выбора языка ждёт кнопку: текст не продвигает диалог.
	reply, member, err := svc.HandleText(ctx, 1, "english please")
	require.NoError(t, err)
	assert.Equal(t, messages.KindNone, reply.Kind)
	assert.Nil(t, member)

	_, ok := svc.SetLanguage(1, models.LanguageEN)
	require.True(t, ok)
	reply, _, err = svc.HandleText(ctx, 1, "Alice A")
	require.NoError(t, err)
	assert.Equal(t, messages.KindAskNumber, reply.Kind)
}

func TestSetLanguage_WrongStepRejected(t *testing.T) {
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(nil, repository.ErrMemberNotFound)
	svc := newService(repo)
	ctx := context.Background()

	_, err := svc.Start(ctx, 1, "alice")
	require.NoError(t, err)
	_, ok := svc.SetLanguage(1, models.LanguageEN)
	require.True(t, ok)

	// Повторное нажатие кнопки языка после перехода игнорируется.
	_, ok = svc.SetLanguage(1, models.LanguageFR)
	assert.False(t, ok)

	// Кнопка оплаты до шага оплаты тоже.
	_, ok = svc.SetPaymentMethod(1, models.PaymentMTN)
	assert.False(t, ok)
}

func TestGodfather_SkipCaseInsensitive(t *testing.T) {
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(nil, repository.ErrMemberNotFound)
	svc := newService(repo)
	ctx := context.Background()

	walkToGodfather(t, svc, ctx, 1)

	reply, _, err := svc.HandleText(ctx, 1, "SKIP")
	require.NoError(t, err)
	assert.Equal(t, messages.KindChoosePayment, reply.Kind)

	d, ok := svc.drafts.Get(1)
	require.True(t, ok)
	assert.Nil(t, d.Godfather)
}

func TestGodfather_UsernameResolved(t *testing.T) {
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(nil, repository.ErrMemberNotFound)
	repo.On("GetMemberByUsername", mock.Anything, "bob").Return(&models.Member{UserID: 99}, nil)
	svc := newService(repo)
	ctx := context.Background()

	walkToGodfather(t, svc, ctx, 1)

	_, _, err := svc.HandleText(ctx, 1, "bob")
	require.NoError(t, err)

	d, ok := svc.drafts.Get(1)
	require.True(t, ok)
	require.NotNil(t, d.Godfather)
	assert.Equal(t, int64(99), *d.Godfather)
	repo.AssertExpectations(t)
}

func TestGodfather_UnknownUsernameDropped(t *testing.T) {
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(nil, repository.ErrMemberNotFound)
	repo.On("GetMemberByUsername", mock.Anything, "ghost").Return(nil, repository.ErrMemberNotFound)
	svc := newService(repo)
	ctx := context.Background()

	walkToGodfather(t, svc, ctx, 1)

	reply, _, err := svc.HandleText(ctx, 1, "ghost")
	require.NoError(t, err)
	assert.Equal(t, messages.KindChoosePayment, reply.Kind)

	d, ok := svc.drafts.Get(1)
	require.True(t, ok)
	assert.Nil(t, d.Godfather)
}

func TestSubmit_StoreFailureDropsDraft(t *testing.T) {
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(nil, repository.ErrMemberNotFound)
	repo.On("UpsertMember", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	svc := newService(repo)
	ctx := context.Background()

	walkToGodfather(t, svc, ctx, 1)
	_, _, err := svc.HandleText(ctx, 1, "skip")
	require.NoError(t, err)
	_, ok := svc.SetPaymentMethod(1, models.PaymentOrange)
	require.True(t, ok)

	reply, member, err := svc.HandleText(ctx, 1, "TX500")

	require.Error(t, err)
	assert.Equal(t, messages.KindStoreError, reply.Kind)
	assert.Nil(t, member)
	// Повторной попытки нет: диалог завершён.
	assert.False(t, svc.InProgress(1))
}

func TestCancel(t *testing.T) {
	repo := new(MemberRepositoryMock)
	repo.On("GetMemberByID", mock.Anything, int64(1)).Return(nil, repository.ErrMemberNotFound)
	svc := newService(repo)
	ctx := context.Background()

	_, err := svc.Start(ctx, 1, "alice")
	require.NoError(t, err)
	_, ok := svc.SetLanguage(1, models.LanguageFR)
	require.True(t, ok)

	reply := svc.Cancel(1)

	assert.Equal(t, messages.KindCancelled, reply.Kind)
	assert.Equal(t, models.LanguageFR, reply.Lang)
	assert.False(t, svc.InProgress(1))
}

func TestCancel_WithoutDialog(t *testing.T) {
	svc := newService(new(MemberRepositoryMock))

	reply := svc.Cancel(1)

	assert.Equal(t, messages.KindCancelled, reply.Kind)
	assert.Equal(t, models.LanguageEN, reply.Lang)
}

// walkToGodfather проводит диалог до шага ввода спонсора.
func walkToGodfather(t *testing.T, svc *RegistrationService, ctx context.Context, userID int64) {
	t.Helper()
	_, err := svc.Start(ctx, userID, "alice")
	require.NoError(t, err)
	_, ok := svc.SetLanguage(userID, models.LanguageEN)
	require.True(t, ok)
	_, _, err = svc.HandleText(ctx, userID, "Alice A")
	require.NoError(t, err)
	_, _, err = svc.HandleText(ctx, userID, "670000000")
	require.NoError(t, err)
	_, _, err = svc.HandleText(ctx, userID, "alice@example.com")
	require.NoError(t, err)
}
