package services

import (
	"sync"
	"time"

	"github.com/godlycrypto/referral-bot/internal/models"
)

// Step шаг диалога регистрации. Шаги проходятся строго по порядку.
type Step int

// Шаги диалога. За StepTransaction следует отправка заявки.
const (
	StepLanguage Step = iota
	StepName
	StepPhone
	StepEmail
	StepGodfather
	StepPayment
	StepTransaction
)

// Draft черновик регистрации одного пользователя. Живёт только в памяти
// процесса и уничтожается при отправке заявки или отмене.
type Draft struct {
	Step          Step
	Username      string
	Language      models.Language
	FullName      string
	Phone         string
	Email         string
	Godfather     *int64
	PaymentMethod models.PaymentMethod
	UpdatedAt     time.Time
}

// DraftStore хранит черновики по идентификатору пользователя.
// Заброшенные черновики удаляются по TTL.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[int64]*Draft
	ttl    time.Duration
}

// NewDraftStore создает новый экземпляр DraftStore.
func NewDraftStore(ttl time.Duration) *DraftStore {
	return &DraftStore{
		drafts: make(map[int64]*Draft),
		ttl:    ttl,
	}
}

// Put заводит черновик, перезаписывая существующий для этого пользователя.
func (ds *DraftStore) Put(userID int64, draft *Draft) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	draft.UpdatedAt = time.Now()
	ds.drafts[userID] = draft
}

// Get возвращает черновик пользователя и признак его наличия.
// События одного пользователя обрабатываются последовательно, поэтому
// изменение полученного черновика снаружи безопасно.
func (ds *DraftStore) Get(userID int64) (*Draft, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	d, ok := ds.drafts[userID]
	if ok {
		d.UpdatedAt = time.Now()
	}
	return d, ok
}

// Delete удаляет черновик пользователя.
func (ds *DraftStore) Delete(userID int64) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.drafts, userID)
}

// Len возвращает количество активных черновиков.
func (ds *DraftStore) Len() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return len(ds.drafts)
}

// Sweep периодически удаляет черновики, к которым не прикасались дольше TTL.
// Запускается отдельной горутиной и завершается по отмене контекста.
func (ds *DraftStore) Sweep(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-ds.ttl)
			ds.mu.Lock()
			for id, d := range ds.drafts {
				if d.UpdatedAt.Before(cutoff) {
					delete(ds.drafts, id)
				}
			}
			ds.mu.Unlock()
		}
	}
}
