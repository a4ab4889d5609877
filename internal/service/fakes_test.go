package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/influencelytic/marketplace/internal/domain"
	"github.com/influencelytic/marketplace/internal/provider"
	"github.com/influencelytic/marketplace/internal/queue"
	"github.com/influencelytic/marketplace/internal/repository"
)

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
	createErr error
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[string]*domain.Campaign)}
}

func (f *fakeCampaignRepo) Create(_ context.Context, c *domain.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	clone := *c
	f.campaigns[c.ID] = &clone
	return nil
}

func (f *fakeCampaignRepo) GetByID(_ context.Context, id string) (*domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCampaignRepo) Update(_ context.Context, c *domain.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.campaigns[c.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *c
	f.campaigns[c.ID] = &clone
	return nil
}

func (f *fakeCampaignRepo) UpdateStatus(_ context.Context, id string, from, to domain.CampaignStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Status != from {
		return domain.ErrInvalidStateTransition
	}
	c.Status = to
	return nil
}

func (f *fakeCampaignRepo) List(_ context.Context, _ repository.CampaignListParams) ([]domain.Campaign, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Campaign, 0, len(f.campaigns))
	for _, c := range f.campaigns {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

type fakeApplicationRepo struct {
	mu           sync.Mutex
	applications map[string]*domain.CampaignApplication
	createErr    error
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{applications: make(map[string]*domain.CampaignApplication)}
}

func (f *fakeApplicationRepo) put(a *domain.CampaignApplication) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *a
	f.applications[a.ID] = &clone
}

func (f *fakeApplicationRepo) Create(_ context.Context, a *domain.CampaignApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.applications {
		if existing.CampaignID == a.CampaignID && existing.InfluencerID == a.InfluencerID {
			return domain.ErrConflict
		}
	}
	clone := *a
	f.applications[a.ID] = &clone
	return nil
}

func (f *fakeApplicationRepo) GetByID(_ context.Context, id string) (*domain.CampaignApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (f *fakeApplicationRepo) GetByCampaignAndInfluencer(_ context.Context, campaignID, influencerID string) (*domain.CampaignApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.applications {
		if a.CampaignID == campaignID && a.InfluencerID == influencerID {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeApplicationRepo) ListByCampaign(_ context.Context, campaignID string) ([]domain.CampaignApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CampaignApplication
	for _, a := range f.applications {
		if a.CampaignID == campaignID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeApplicationRepo) ListByInfluencer(_ context.Context, influencerID string) ([]domain.CampaignApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CampaignApplication
	for _, a := range f.applications {
		if a.InfluencerID == influencerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeApplicationRepo) ListByBrand(_ context.Context, _ string) ([]domain.CampaignApplication, error) {
	return nil, nil
}

func (f *fakeApplicationRepo) Respond(_ context.Context, id string, to domain.ApplicationStatus, respondedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applications[id]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Status != domain.ApplicationPending {
		return domain.ErrInvalidStateTransition
	}
	a.Status = to
	a.RespondedAt = &respondedAt
	return nil
}

func (f *fakeApplicationRepo) CompleteAccepted(_ context.Context, id string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applications[id]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Status != domain.ApplicationAccepted {
		return domain.ErrInvalidStateTransition
	}
	a.Status = domain.ApplicationCompleted
	a.CompletedAt = &completedAt
	return nil
}

func (f *fakeApplicationRepo) DeletePending(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.applications[id]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Status != domain.ApplicationPending {
		return domain.ErrInvalidStateTransition
	}
	delete(f.applications, id)
	return nil
}

type fakeTransactionRepo struct {
	mu           sync.Mutex
	transactions map[string]*domain.Transaction
	createErr    error
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{transactions: make(map[string]*domain.Transaction)}
}

func (f *fakeTransactionRepo) put(t *domain.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *t
	f.transactions[t.ID] = &clone
}

func (f *fakeTransactionRepo) get(id string) *domain.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transactions[id]
	if !ok {
		return nil
	}
	clone := *t
	return &clone
}

func (f *fakeTransactionRepo) Create(_ context.Context, t *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.transactions {
		if existing.ApplicationID == t.ApplicationID {
			return domain.ErrConflict
		}
	}
	clone := *t
	f.transactions[t.ID] = &clone
	return nil
}

func (f *fakeTransactionRepo) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	if t := f.get(id); t != nil {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTransactionRepo) GetByPaymentIntent(_ context.Context, paymentIntentID string) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.transactions {
		if t.PaymentIntentID == paymentIntentID {
			clone := *t
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTransactionRepo) GetByApplicationID(_ context.Context, applicationID string) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.transactions {
		if t.ApplicationID == applicationID {
			clone := *t
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTransactionRepo) CompletePending(_ context.Context, id string, processedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status != domain.TransactionPending {
		return domain.ErrInvalidStateTransition
	}
	t.Status = domain.TransactionCompleted
	t.ProcessedAt = &processedAt
	return nil
}

func (f *fakeTransactionRepo) FailPending(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status != domain.TransactionPending {
		return domain.ErrInvalidStateTransition
	}
	t.Status = domain.TransactionFailed
	return nil
}

func (f *fakeTransactionRepo) MarkRefunded(_ context.Context, id string, refundAmount int64, refundReason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status != domain.TransactionCompleted {
		return domain.ErrInvalidStateTransition
	}
	t.Status = domain.TransactionRefunded
	t.RefundAmount = &refundAmount
	if refundReason != "" {
		t.RefundReason = &refundReason
	}
	return nil
}

func (f *fakeTransactionRepo) List(_ context.Context, params repository.TransactionListParams) ([]domain.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Transaction
	for _, t := range f.transactions {
		if params.Role == domain.RoleBrand && t.BrandID != params.UserID {
			continue
		}
		if params.Role == domain.RoleInfluencer && t.InfluencerID != params.UserID {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTransactionRepo) Summary(_ context.Context, _ string, _ domain.Role) (*repository.TransactionSummary, error) {
	return &repository.TransactionSummary{}, nil
}

func (f *fakeTransactionRepo) Revenue(_ context.Context, _, _ time.Time) (*repository.PlatformRevenue, error) {
	return &repository.PlatformRevenue{}, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*domain.Profile)}
}

func (f *fakeProfileRepo) put(p *domain.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *p
	f.profiles[p.ID] = &clone
}

func (f *fakeProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeProfileRepo) SetStripeAccount(_ context.Context, userID, stripeAccountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return domain.ErrNotFound
	}
	p.StripeAccountID = &stripeAccountID
	return nil
}

func (f *fakeProfileRepo) UpdateCapabilities(_ context.Context, stripeAccountID string, chargesEnabled, payoutsEnabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.StripeAccountID != nil && *p.StripeAccountID == stripeAccountID {
			p.ChargesEnabled = chargesEnabled
			p.PayoutsEnabled = payoutsEnabled
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeProfileRepo) GetByStripeAccount(_ context.Context, stripeAccountID string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.StripeAccountID != nil && *p.StripeAccountID == stripeAccountID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []domain.Notification
	createErr     error
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeNotificationRepo) List(_ context.Context, params repository.NotificationListParams) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.notifications {
		if n.UserID == params.UserID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, _, _ string) error { return nil }

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, _ string) error { return nil }

type publishedMessage struct {
	Queue   string
	Message queue.NotificationMessage
}

type fakePublisher struct {
	mu         sync.Mutex
	published  []publishedMessage
	publishErr error
}

func (f *fakePublisher) Publish(_ context.Context, queueName string, msg queue.NotificationMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishedMessage{Queue: queueName, Message: msg})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) messages() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishedMessage, len(f.published))
	copy(out, f.published)
	return out
}

// queueMessages filters published messages down to one queue so tests can
// count per-event fan-out without double counting.
func (f *fakePublisher) queueMessages(queueName string) []queue.NotificationMessage {
	var out []queue.NotificationMessage
	for _, p := range f.messages() {
		if p.Queue == queueName {
			out = append(out, p.Message)
		}
	}
	return out
}

type fakeProcessor struct {
	mu sync.Mutex

	intents       map[string]*provider.PaymentIntent
	createdParams []provider.CreateIntentParams
	createErr     error

	refunds   []fakeRefundCall
	refundErr error

	accounts        map[string]*provider.Account
	accountLinkURL  string
	createdAccounts int

	balance *provider.Balance
	payouts []fakePayoutCall
}

type fakeRefundCall struct {
	PaymentIntentID string
	Amount          int64
	Reason          string
	IdempotencyKey  string
}

type fakePayoutCall struct {
	AccountID string
	Amount    int64
	Currency  string
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		intents:        make(map[string]*provider.PaymentIntent),
		accounts:       make(map[string]*provider.Account),
		accountLinkURL: "https://connect.example.com/onboarding",
	}
}

func (f *fakeProcessor) CreatePaymentIntent(_ context.Context, params provider.CreateIntentParams) (*provider.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdParams = append(f.createdParams, params)

	// Same idempotency key returns the same intent.
	for id, intent := range f.intents {
		if id == "key:"+params.IdempotencyKey {
			return intent, nil
		}
	}

	intent := &provider.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", len(f.intents)+1),
		ClientSecret: fmt.Sprintf("pi_%d_secret", len(f.intents)+1),
		Status:       "requires_payment_method",
		Amount:       params.Amount,
		Currency:     params.Currency,
	}
	f.intents["key:"+params.IdempotencyKey] = intent
	return intent, nil
}

func (f *fakeProcessor) GetPaymentIntent(_ context.Context, id string) (*provider.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, intent := range f.intents {
		if intent.ID == id {
			clone := *intent
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("intent %s not found", id)
}

func (f *fakeProcessor) setIntentStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, intent := range f.intents {
		if intent.ID == id {
			intent.Status = status
		}
	}
}

func (f *fakeProcessor) seedIntent(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents["seed:"+id] = &provider.PaymentIntent{ID: id, Status: status}
}

func (f *fakeProcessor) CreateRefund(_ context.Context, params provider.RefundParams) (*provider.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	f.refunds = append(f.refunds, fakeRefundCall{
		PaymentIntentID: params.PaymentIntentID,
		Amount:          params.Amount,
		Reason:          params.Reason,
		IdempotencyKey:  params.IdempotencyKey,
	})
	return &provider.Refund{ID: "re_1", Amount: params.Amount, Status: "succeeded"}, nil
}

func (f *fakeProcessor) CreateAccount(_ context.Context, _, _, _ string) (*provider.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdAccounts++
	account := &provider.Account{ID: fmt.Sprintf("acct_%d", f.createdAccounts)}
	f.accounts[account.ID] = account
	return account, nil
}

func (f *fakeProcessor) CreateAccountLink(_ context.Context, _, _, _ string) (*provider.AccountLink, error) {
	return &provider.AccountLink{URL: f.accountLinkURL}, nil
}

func (f *fakeProcessor) GetAccount(_ context.Context, accountID string) (*provider.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s not found", accountID)
	}
	clone := *account
	return &clone, nil
}

func (f *fakeProcessor) GetBalance(_ context.Context, _ string) (*provider.Balance, error) {
	if f.balance == nil {
		return &provider.Balance{}, nil
	}
	return f.balance, nil
}

func (f *fakeProcessor) CreatePayout(_ context.Context, accountID string, amount int64, currency string) (*provider.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payouts = append(f.payouts, fakePayoutCall{AccountID: accountID, Amount: amount, Currency: currency})
	return &provider.Payout{ID: "po_1", Amount: amount, Status: "pending"}, nil
}

type fakeRateLimiter struct {
	allowed bool
	err     error
}

func (f *fakeRateLimiter) Allow(_ context.Context, _ string) (bool, error) {
	return f.allowed, f.err
}

type fakeDeduper struct {
	mu       sync.Mutex
	seen     map[string]bool
	released []string
	err      error
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: make(map[string]bool)}
}

func (f *fakeDeduper) FirstDelivery(_ context.Context, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen[eventID] {
		return false, nil
	}
	f.seen[eventID] = true
	return true, nil
}

func (f *fakeDeduper) Release(_ context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.seen, eventID)
	f.released = append(f.released, eventID)
	return nil
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []provider.Email
	sendErr error
}

func (f *fakeMailer) Send(_ context.Context, email provider.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, email)
	return nil
}
