package leads

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQualifier struct {
	reply   string
	verdict Verdict
	calls   int
	history []Turn
}

func (f *fakeQualifier) Classify(_ context.Context, history []Turn) (string, Verdict) {
	f.calls++
	f.history = history
	return f.reply, f.verdict
}

type fakeNotifier struct {
	calls int
	fail  bool
	last  string
}

func (f *fakeNotifier) NotifyHotLead(_ context.Context, _ int64, lastMessage, _, _ string) error {
	f.calls++
	f.last = lastMessage
	if f.fail {
		return errors.New("telegram down")
	}
	return nil
}

func newTestService(q Qualifier, n Notifier) (Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	return NewService(repo, q, n, zerolog.Nop()), repo
}

// Сценарий A: новый лид присылает 6-значный ключ
func TestOverrideKeyEscalates(t *testing.T) {
	q := &fakeQualifier{}
	n := &fakeNotifier{}
	svc, repo := newTestService(q, n)

	result, err := svc.HandleNewReply(context.Background(), &LeadMessage{
		UserID: 10,
		ChatID: 100,
		Text:   "123456",
	})
	require.NoError(t, err)

	assert.Equal(t, KeyAcceptedReply, result.Reply)
	assert.Equal(t, StatusHot, result.Status)
	assert.Equal(t, 0, q.calls, "AI must not be consulted on override")
	assert.Equal(t, 1, n.calls)

	history, err := repo.GetHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "123456", history[0].Text)
	assert.Equal(t, KeyAcceptedReply, history[1].Text)

	status, _ := repo.Status(10)
	assert.Equal(t, StatusHot, status)
}

// Сценарий B: обычный диалог, вердикт COLD
func TestColdVerdictKeepsAIActive(t *testing.T) {
	q := &fakeQualifier{
		reply:   "Понимаю вас.",
		verdict: Verdict{ResponseText: "Понимаю вас.", QualificationStatus: "COLD", Reasoning: "нет интереса"},
	}
	n := &fakeNotifier{}
	svc, repo := newTestService(q, n)

	result, err := svc.HandleNewReply(context.Background(), &LeadMessage{
		UserID: 20,
		Text:   "я не работаю",
	})
	require.NoError(t, err)

	assert.Equal(t, "Понимаю вас.", result.Reply)
	assert.Equal(t, StatusCold, result.Status)
	assert.Equal(t, 0, n.calls)

	history, err := repo.GetHistory(context.Background(), 20)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	status, _ := repo.Status(20)
	assert.Equal(t, StatusAIActive, status)
}

// Сценарий C: классификатор деградировал до ERROR
func TestErrorVerdictIsNonFatal(t *testing.T) {
	q := &fakeQualifier{
		reply:   ParseErrorReply,
		verdict: Verdict{QualificationStatus: string(StatusError)},
	}
	n := &fakeNotifier{}
	svc, repo := newTestService(q, n)

	result, err := svc.HandleNewReply(context.Background(), &LeadMessage{
		UserID: 30,
		Text:   "расскажите подробнее",
	})
	require.NoError(t, err)

	assert.Equal(t, ParseErrorReply, result.Reply)
	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, 0, n.calls)

	status, _ := repo.Status(30)
	assert.Equal(t, StatusAIActive, status)
}

func TestWarmVerdictNormalizedToAIActive(t *testing.T) {
	q := &fakeQualifier{
		reply:   "Отлично!",
		verdict: Verdict{ResponseText: "Отлично!", QualificationStatus: "WARM"},
	}
	svc, repo := newTestService(q, &fakeNotifier{})

	result, err := svc.HandleNewReply(context.Background(), &LeadMessage{UserID: 40, Text: "интересно"})
	require.NoError(t, err)

	// наружу уходит WARM, в БД — AI_ACTIVE
	assert.Equal(t, StatusWarm, result.Status)
	status, _ := repo.Status(40)
	assert.Equal(t, StatusAIActive, status)
}

func TestHotVerdictNotifiesOperator(t *testing.T) {
	q := &fakeQualifier{
		reply:   "Передаю специалисту.",
		verdict: Verdict{ResponseText: "Передаю специалисту.", QualificationStatus: "HOT"},
	}
	n := &fakeNotifier{}
	svc, repo := newTestService(q, n)

	result, err := svc.HandleNewReply(context.Background(), &LeadMessage{UserID: 50, ChatID: 500, Text: "хочу купить"})
	require.NoError(t, err)

	assert.Equal(t, StatusHot, result.Status)
	assert.Equal(t, 1, n.calls)
	assert.Equal(t, "хочу купить", n.last)

	status, _ := repo.Status(50)
	assert.Equal(t, StatusHot, status)
}

func TestNotifierFailureDoesNotFailRequest(t *testing.T) {
	q := &fakeQualifier{
		reply:   "Ок",
		verdict: Verdict{ResponseText: "Ок", QualificationStatus: "HOT"},
	}
	n := &fakeNotifier{fail: true}
	svc, repo := newTestService(q, n)

	result, err := svc.HandleNewReply(context.Background(), &LeadMessage{UserID: 60, Text: "беру"})
	require.NoError(t, err)
	assert.Equal(t, StatusHot, result.Status)

	status, _ := repo.Status(60)
	assert.Equal(t, StatusHot, status)
}

func TestFirstContactNotRecordedAsUserTurn(t *testing.T) {
	q := &fakeQualifier{
		reply:   "Привет! Я ассистент по актуализации данных для оцифровки трудовых книжек.",
		verdict: Verdict{QualificationStatus: "COLD"},
	}
	svc, repo := newTestService(q, &fakeNotifier{})

	_, err := svc.HandleNewReply(context.Background(), &LeadMessage{
		UserID:       70,
		FirstContact: true,
	})
	require.NoError(t, err)

	// классификатор видит пустую историю, в транскрипте только ответ
	assert.Empty(t, q.history)
	history, err := repo.GetHistory(context.Background(), 70)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, RoleAssistant, history[0].Role)
}

func TestClassifierSeesAppendedUserTurn(t *testing.T) {
	q := &fakeQualifier{
		reply:   "ответ",
		verdict: Verdict{QualificationStatus: "COLD"},
	}
	svc, repo := newTestService(q, &fakeNotifier{})
	ctx := context.Background()

	require.NoError(t, repo.RecordExchange(ctx, 80, []Turn{
		{Role: RoleUser, Text: "первое"},
		{Role: RoleAssistant, Text: "ответ один"},
	}, StatusAIActive))

	_, err := svc.HandleNewReply(ctx, &LeadMessage{UserID: 80, Text: "второе"})
	require.NoError(t, err)

	require.Len(t, q.history, 3)
	assert.Equal(t, "второе", q.history[2].Text)
}

// HOT не «липнет»: следующий спокойный ответ возвращает сессию AI
func TestHotStatusIsNotSticky(t *testing.T) {
	q := &fakeQualifier{
		reply:   "Хорошо.",
		verdict: Verdict{QualificationStatus: "COLD"},
	}
	svc, repo := newTestService(q, &fakeNotifier{})
	ctx := context.Background()

	require.NoError(t, repo.RecordExchange(ctx, 90, []Turn{
		{Role: RoleUser, Text: "123456"},
		{Role: RoleAssistant, Text: KeyAcceptedReply},
	}, StatusHot))

	_, err := svc.HandleNewReply(ctx, &LeadMessage{UserID: 90, Text: "спасибо"})
	require.NoError(t, err)

	status, _ := repo.Status(90)
	assert.Equal(t, StatusAIActive, status)
}

type failingRepo struct {
	*MemoryRepo
}

func (f *failingRepo) RecordExchange(context.Context, int64, []Turn, Status) error {
	return errors.New("db gone")
}

func TestStoreFailureSurfacesAsError(t *testing.T) {
	q := &fakeQualifier{reply: "x", verdict: Verdict{QualificationStatus: "COLD"}}
	svc := NewService(&failingRepo{NewMemoryRepo()}, q, &fakeNotifier{}, zerolog.Nop())

	_, err := svc.HandleNewReply(context.Background(), &LeadMessage{UserID: 99, Text: "привет"})
	require.Error(t, err)
}
