package analyzerService

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/KotFed0t/portfolio_analyzer_bot/data/cache"
	"github.com/KotFed0t/portfolio_analyzer_bot/data/repository"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/analytics"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/externalApi"
	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/google/uuid"
)

type storedTx struct {
	tx  model.Transaction
	seq int
}

type fakeRepo struct {
	mu      sync.Mutex
	users   map[int64]int64
	txs     []storedTx
	nextSeq int
	failOn  string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[int64]int64)}
}

func (r *fakeRepo) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	r.mu.Lock()
	snapshot := append([]storedTx(nil), r.txs...)
	r.mu.Unlock()

	if err := tFunc(ctx); err != nil {
		r.mu.Lock()
		r.txs = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *fakeRepo) RegUser(ctx context.Context, chatID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[chatID]; ok {
		return 0, repository.ErrAlreadyExists
	}
	userID := int64(len(r.users) + 1)
	r.users[chatID] = userID
	return userID, nil
}

func (r *fakeRepo) GetUserID(ctx context.Context, chatID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.users[chatID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return userID, nil
}

func (r *fakeRepo) InsertTransaction(ctx context.Context, tx model.Transaction) error {
	return r.InsertTransactions(ctx, []model.Transaction{tx})
}

func (r *fakeRepo) InsertTransactions(ctx context.Context, txs []model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn == "insert" {
		return io.ErrUnexpectedEOF
	}
	for _, tx := range txs {
		r.nextSeq++
		r.txs = append(r.txs, storedTx{tx: tx, seq: r.nextSeq})
	}
	return nil
}

func (r *fakeRepo) GetTransaction(ctx context.Context, transactionID uuid.UUID) (model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.txs {
		if st.tx.ID == transactionID {
			return st.tx, nil
		}
	}
	return model.Transaction{}, repository.ErrNotFound
}

func (r *fakeRepo) owned(userID int64) []storedTx {
	res := make([]storedTx, 0)
	for _, st := range r.txs {
		if st.tx.OwnerID == userID {
			res = append(res, st)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if !res[i].tx.Timestamp.Equal(res[j].tx.Timestamp) {
			return res[i].tx.Timestamp.Before(res[j].tx.Timestamp)
		}
		return res[i].seq < res[j].seq
	})
	return res
}

func (r *fakeRepo) ListTransactions(ctx context.Context, userID int64) ([]model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]model.Transaction, 0)
	for _, st := range r.owned(userID) {
		res = append(res, st.tx)
	}
	return res, nil
}

func (r *fakeRepo) ListTransactionsPage(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owned := r.owned(userID)
	res := make([]model.Transaction, 0)
	for i := len(owned) - 1 - offset; i >= 0 && len(res) < limit; i-- {
		res = append(res, owned[i].tx)
	}
	return res, nil
}

func (r *fakeRepo) UpdateTransaction(ctx context.Context, tx model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.txs {
		if r.txs[i].tx.ID == tx.ID {
			r.txs[i].tx = tx
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeRepo) DeleteTransaction(ctx context.Context, transactionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.txs {
		if r.txs[i].tx.ID == transactionID {
			r.txs = append(r.txs[:i], r.txs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeRepo) DeleteAllTransactions(ctx context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.txs[:0]
	var deleted int64
	for _, st := range r.txs {
		if st.tx.OwnerID == userID {
			deleted++
			continue
		}
		kept = append(kept, st)
	}
	r.txs = kept
	return deleted, nil
}

func (r *fakeRepo) ListOwnerIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[int64]struct{})
	res := make([]int64, 0)
	for _, st := range r.txs {
		if _, ok := seen[st.tx.OwnerID]; ok {
			continue
		}
		seen[st.tx.OwnerID] = struct{}{}
		res = append(res, st.tx.OwnerID)
	}
	return res, nil
}

type fakeCache struct {
	mu     sync.Mutex
	quotes map[string]model.Quote
}

func newFakeCache() *fakeCache {
	return &fakeCache{quotes: make(map[string]model.Quote)}
}

func (c *fakeCache) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quotes[symbol]
	if !ok {
		return model.Quote{}, cache.ErrNotFound
	}
	return q, nil
}

func (c *fakeCache) SetQuote(ctx context.Context, quote model.Quote) error {
	return c.SetQuotes(ctx, []model.Quote{quote})
}

func (c *fakeCache) SetQuotes(ctx context.Context, quotes []model.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range quotes {
		c.quotes[q.Symbol] = q
	}
	return nil
}

type fakeProvider struct {
	mu     sync.Mutex
	quotes map[string]model.Quote
	errs   map[string]error
	calls  map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		quotes: make(map[string]model.Quote),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (p *fakeProvider) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[symbol]++
	if err, ok := p.errs[symbol]; ok {
		return model.Quote{}, err
	}
	q, ok := p.quotes[symbol]
	if !ok {
		return model.Quote{}, externalApi.ErrNotFound
	}
	return q, nil
}

type fakeImporter struct {
	txs    []model.Transaction
	result model.ImportResult
	err    error
}

func (i *fakeImporter) Parse(ctx context.Context, filename string, r io.Reader, ownerID int64) ([]model.Transaction, model.ImportResult, error) {
	if i.err != nil {
		return nil, model.ImportResult{}, i.err
	}
	txs := make([]model.Transaction, 0, len(i.txs))
	for _, tx := range i.txs {
		tx.OwnerID = ownerID
		txs = append(txs, tx)
	}
	return txs, i.result, nil
}

type fakeGenerator struct {
	report analytics.Report
}

func (g *fakeGenerator) Generate(ctx context.Context, report analytics.Report) ([]byte, string, error) {
	g.report = report
	return []byte("report"), ".xlsx", nil
}

type fakeStorage struct {
	filename string
	content  []byte
	cleaned  bool
}

func (s *fakeStorage) UploadFile(ctx context.Context, reader io.Reader, filename string) (string, error) {
	buf := bytes.Buffer{}
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	s.filename = filename
	s.content = buf.Bytes()
	return "https://example.com/" + filename, nil
}

func (s *fakeStorage) DeleteOldFiles(ctx context.Context) error {
	s.cleaned = true
	return nil
}
