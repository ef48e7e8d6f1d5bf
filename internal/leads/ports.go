package leads

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status — квалификация лида. Хранится только одно из четырёх значений;
// StatusError — сигнальное значение "не смогли классифицировать",
// в БД оно никогда не попадает.
type Status string

const (
	StatusAIActive Status = "AI_ACTIVE"
	StatusCold     Status = "COLD"
	StatusWarm     Status = "WARM"
	StatusHot      Status = "HOT"
	StatusHandover Status = "HANDOVER"

	StatusError Status = "ERROR"
)

// Turn — одна реплика в транскрипте, append-only
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// LeadMessage — входящее сообщение от канального адаптера
type LeadMessage struct {
	UserID          int64
	ChatID          int64
	SenderAccountID int64
	Text            string
	Username        string
	Timestamp       int64

	// FirstContact — первый контакт без текста от человека
	// (бывший магический маркер START_DIALOG_FROM_COMMAND)
	FirstContact bool
}

// Result — ответ оркестратора на одно входящее сообщение
type Result struct {
	Message string
	Reply   string
	Status  Status
}

// Verdict — структурный ответ классификатора
type Verdict struct {
	ResponseText        string `json:"response_text"`
	QualificationStatus string `json:"qualification_status"`
	Reasoning           string `json:"reasoning"`
}

// Repo — persistence. Одна строка на user_id, транскрипт — jsonb-массив.
type Repo interface {
	GetHistory(ctx context.Context, userID int64) ([]Turn, error)
	AppendTurn(ctx context.Context, userID int64, turn Turn) error
	SetStatus(ctx context.Context, userID int64, status Status) error

	// RecordExchange атомарно дописывает реплики и выставляет статус —
	// одна транзакция на одно входящее сообщение
	RecordExchange(ctx context.Context, userID int64, turns []Turn, status Status) error
}

// Qualifier — один вызов классификации; никогда не возвращает ошибку
// наружу, деградирует до фиксированного ответа и StatusError
type Qualifier interface {
	Classify(ctx context.Context, history []Turn) (string, Verdict)
}

// Notifier — уведомление оператора, best-effort
type Notifier interface {
	NotifyHotLead(ctx context.Context, chatID int64, lastMessage, replyText, username string) error
}

// Service — оркестрация
type Service interface {
	HandleNewReply(ctx context.Context, msg *LeadMessage) (*Result, error)
}
