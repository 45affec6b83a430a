package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"komodo-ledger/internal/core/domain"
	"komodo-ledger/internal/core/ports"
	"komodo-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// memState is the complete persisted state of the in-memory store. All
// writes are copy-on-write: a stored struct is never mutated in place,
// so a shallow map/slice copy is a consistent snapshot.
type memState struct {
	wallets      map[uuid.UUID]*domain.Wallet
	walletsByKey map[string]uuid.UUID
	transactions []*domain.Transaction
	orders       map[uuid.UUID]*domain.Order
	ordersByKey  map[string]uuid.UUID
	snapshots    map[uuid.UUID]*domain.FinancialSnapshot // keyed by order ID
	stands       map[uuid.UUID]*domain.StandDetail
	products     map[uuid.UUID][]domain.Product
	names        map[uuid.UUID]string // user/org/stand display names for exports
}

func newMemState() memState {
	return memState{
		wallets:      make(map[uuid.UUID]*domain.Wallet),
		walletsByKey: make(map[string]uuid.UUID),
		orders:       make(map[uuid.UUID]*domain.Order),
		ordersByKey:  make(map[string]uuid.UUID),
		snapshots:    make(map[uuid.UUID]*domain.FinancialSnapshot),
		stands:       make(map[uuid.UUID]*domain.StandDetail),
		products:     make(map[uuid.UUID][]domain.Product),
		names:        make(map[uuid.UUID]string),
	}
}

func (s memState) clone() memState {
	c := newMemState()
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.walletsByKey {
		c.walletsByKey[k] = v
	}
	c.transactions = append(c.transactions, s.transactions...)
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.ordersByKey {
		c.ordersByKey[k] = v
	}
	for k, v := range s.snapshots {
		c.snapshots[k] = v
	}
	for k, v := range s.stands {
		c.stands[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.names {
		c.names[k] = v
	}
	return c
}

// memStore backs every in-memory repo. mu guards state for plain reads
// and writes; txMu serializes database transactions, which together with
// the snapshot taken at Begin gives the same observable semantics as
// PostgreSQL's row locks and atomic commit: transactions run one at a
// time and a rollback discards every write made since Begin.
type memStore struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	state memState
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (s *memStore) snapshot() memState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *memStore) restore(snap memState) {
	s.mu.Lock()
	s.state = snap
	s.mu.Unlock()
}

// seedStand registers a stand with its catalog so checkout can resolve
// prices and commission. Display names feed the snapshot export.
func (s *memStore) seedStand(detail domain.StandDetail, standName string, products []domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := detail
	s.state.stands[detail.Stand.ID] = &d
	s.state.products[detail.Stand.ID] = append([]domain.Product(nil), products...)
	s.state.names[detail.Stand.ID] = standName
	if detail.OrganizationID != nil {
		if _, ok := s.state.names[*detail.OrganizationID]; !ok {
			s.state.names[*detail.OrganizationID] = "org-" + detail.OrganizationID.String()[:8]
		}
	}
}

func (s *memStore) seedName(id uuid.UUID, name string) {
	s.mu.Lock()
	s.state.names[id] = name
	s.mu.Unlock()
}

// --- Wallet repo ---

type inMemoryWalletRepo struct{ s *memStore }

func newInMemoryWalletRepo(s *memStore) *inMemoryWalletRepo { return &inMemoryWalletRepo{s: s} }

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.state.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByOwnerKey(ctx context.Context, ownerKey string) (*domain.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.state.walletsByKey[ownerKey]
	if !ok {
		return nil, nil
	}
	cp := *r.s.state.wallets[id]
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetOrCreate(ctx context.Context, ownerKey string) (*domain.Wallet, error) {
	// Outside a transaction the write must not land inside another
	// goroutine's open snapshot window, or a rollback would discard it.
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	return r.getOrCreate(ownerKey)
}

func (r *inMemoryWalletRepo) getOrCreate(ownerKey string) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.state.walletsByKey[ownerKey]; ok {
		cp := *r.s.state.wallets[id]
		return &cp, nil
	}
	now := time.Now().UTC()
	w := &domain.Wallet{
		ID:        uuid.New(),
		OwnerKey:  ownerKey,
		Balance:   decimal.Zero,
		Currency:  domain.DefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.state.wallets[w.ID] = w
	r.s.state.walletsByKey[ownerKey] = w.ID
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetOrCreateTx(ctx context.Context, tx pgx.Tx, ownerKey string) (*domain.Wallet, error) {
	// The caller already holds the transaction lock.
	return r.getOrCreate(ownerKey)
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	// Row locking is provided by the serialized transactor; a plain
	// read inside the transaction already sees the latest committed row.
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.state.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	cp := *w
	cp.Balance = balance
	cp.UpdatedAt = time.Now().UTC()
	r.s.state.wallets[walletID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) SumBalances(ctx context.Context) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sum := decimal.Zero
	for _, w := range r.s.state.wallets {
		sum = sum.Add(w.Balance)
	}
	return sum, nil
}

// --- Transaction repo ---

type inMemoryTransactionRepo struct{ s *memStore }

func newInMemoryTransactionRepo(s *memStore) *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{s: s}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	r.s.state.transactions = append(r.s.state.transactions, &cp)
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.state.transactions {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Transaction
	// transactions is append-ordered; walk newest first.
	for i := len(r.s.state.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.state.transactions[i].WalletID == walletID {
			out = append(out, *r.s.state.transactions[i])
		}
	}
	return out, nil
}

func (r *inMemoryTransactionRepo) SumForOrder(ctx context.Context, orderID, walletID uuid.UUID, txType domain.TransactionType) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range r.s.state.transactions {
		if t.OrderID != nil && *t.OrderID == orderID && t.WalletID == walletID && t.Type == txType {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (r *inMemoryTransactionRepo) SumByType(ctx context.Context, txType domain.TransactionType) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range r.s.state.transactions {
		if t.Type == txType {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (r *inMemoryTransactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	return apperror.ErrImmutableRecord()
}

func (r *inMemoryTransactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return apperror.ErrImmutableRecord()
}

// --- Order repo ---

type inMemoryOrderRepo struct{ s *memStore }

func newInMemoryOrderRepo(s *memStore) *inMemoryOrderRepo { return &inMemoryOrderRepo{s: s} }

func (r *inMemoryOrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o.IdempotencyKey != nil {
		if _, exists := r.s.state.ordersByKey[*o.IdempotencyKey]; exists {
			// Mirror the error the postgres driver raises on the
			// partial unique index over idempotency_key.
			return &pgconn.PgError{
				Code:           "23505",
				Message:        "duplicate key value violates unique constraint",
				ConstraintName: "orders_idempotency_key_key",
			}
		}
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	r.s.state.orders[cp.ID] = &cp
	if cp.IdempotencyKey != nil {
		r.s.state.ordersByKey[*cp.IdempotencyKey] = cp.ID
	}
	return nil
}

func (r *inMemoryOrderRepo) getLocked(id uuid.UUID) *domain.Order {
	o, ok := r.s.state.orders[id]
	if !ok {
		return nil
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp
}

func (r *inMemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.getLocked(id), nil
}

func (r *inMemoryOrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryOrderRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.state.ordersByKey[key]
	if !ok {
		return nil, nil
	}
	return r.getLocked(id), nil
}

func (r *inMemoryOrderRepo) GetByIdempotencyKeyTx(ctx context.Context, tx pgx.Tx, key string) (*domain.Order, error) {
	return r.GetByIdempotencyKey(ctx, key)
}

func (r *inMemoryOrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.OrderStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.state.orders[id]
	if !ok {
		return fmt.Errorf("order not found: %s", id)
	}
	cp := *o
	cp.Status = status
	cp.UpdatedAt = time.Now().UTC()
	r.s.state.orders[id] = &cp
	return nil
}

func (r *inMemoryOrderRepo) MarkReversed(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.state.orders[id]
	if !ok {
		return fmt.Errorf("order not found: %s", id)
	}
	cp := *o
	cp.IsReversed = true
	cp.UpdatedAt = time.Now().UTC()
	r.s.state.orders[id] = &cp
	return nil
}

func (r *inMemoryOrderRepo) ListCompletedIDs(ctx context.Context) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []uuid.UUID
	for id, o := range r.s.state.orders {
		if o.Status == domain.OrderStatusCompleted {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// --- Snapshot repo ---

type inMemorySnapshotRepo struct{ s *memStore }

func newInMemorySnapshotRepo(s *memStore) *inMemorySnapshotRepo { return &inMemorySnapshotRepo{s: s} }

func (r *inMemorySnapshotRepo) Create(ctx context.Context, tx pgx.Tx, snap *domain.FinancialSnapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *snap
	r.s.state.snapshots[snap.OrderID] = &cp
	return nil
}

func (r *inMemorySnapshotRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.FinancialSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	snap, ok := r.s.state.snapshots[orderID]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

func (r *inMemorySnapshotRepo) ExistsForOrder(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.state.snapshots[orderID]
	return ok, nil
}

func (r *inMemorySnapshotRepo) ListExportRows(ctx context.Context, start, end *time.Time) ([]ports.SnapshotExportRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var rows []ports.SnapshotExportRow
	for _, snap := range r.s.state.snapshots {
		if start != nil && snap.CreatedAt.Before(*start) {
			continue
		}
		if end != nil && snap.CreatedAt.After(*end) {
			continue
		}
		row := ports.SnapshotExportRow{
			OrderID:          snap.OrderID,
			TotalAmount:      snap.TotalAmount,
			CommissionAmount: snap.CommissionAmount,
			NetAmount:        snap.NetAmount,
			CreatedAt:        snap.CreatedAt,
		}
		if snap.UserID != nil {
			row.User = r.s.state.names[*snap.UserID]
		}
		if snap.OrganizationID != nil {
			row.Organization = r.s.state.names[*snap.OrganizationID]
		}
		if snap.StandID != nil {
			row.Stand = r.s.state.names[*snap.StandID]
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows, nil
}

// --- Catalog repo ---

type inMemoryCatalogRepo struct{ s *memStore }

func newInMemoryCatalogRepo(s *memStore) *inMemoryCatalogRepo { return &inMemoryCatalogRepo{s: s} }

func (r *inMemoryCatalogRepo) GetStandDetail(ctx context.Context, standID uuid.UUID) (*domain.StandDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.state.stands[standID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *inMemoryCatalogRepo) GetProductsByStand(ctx context.Context, standID uuid.UUID) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.Product(nil), r.s.state.products[standID]...), nil
}

// --- Transactor ---

// inMemoryTransactor serializes transactions behind a mutex and
// snapshots the store at Begin. Commit keeps the writes; Rollback
// restores the snapshot. This gives checkout and reversal tests real
// atomicity: a failed settlement leaves nothing behind, exactly as the
// database transaction does.
type inMemoryTransactor struct{ s *memStore }

func newInMemoryTransactor(s *memStore) *inMemoryTransactor { return &inMemoryTransactor{s: s} }

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.s.txMu.Lock()
	return &memTx{store: t.s, snap: t.s.snapshot()}, nil
}

// memTx is the pgx.Tx handed out by inMemoryTransactor. Only Commit and
// Rollback carry behavior; the repos never touch the SQL surface.
type memTx struct {
	store *memStore
	snap  memState
	done  bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.restore(t.snap)
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *memTx) Conn() *pgx.Conn                                               { return nil }
