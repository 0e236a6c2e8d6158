// Package memory implementa los puertos de persistencia sobre estructuras en
// memoria. Sirve para tests de casos de uso y para correr el binario en modo
// demo sin PostgreSQL. Un solo mutex por Store: los tests no necesitan más
// granularidad y el Runner lo reutiliza como "transacción".
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/domain"
	"github.com/farmapos/farmacore/internal/domain/entity"
	"github.com/farmapos/farmacore/internal/domain/repository"
)

// Store contiene el estado compartido de todos los repositorios en memoria.
type Store struct {
	mu        sync.Mutex
	movements []*entity.Movement
	levels    map[string]*entity.StockLevel // clave: StockKey.String()
	transfers map[string]*entity.StockTransfer
	products  map[string]*entity.Product
	sessions  map[string]*entity.POSSession
	payments  []Payment
}

// Payment es una fila del ledger de pagos externo, sembrada por los tests.
type Payment struct {
	TenantID  string
	SessionID string
	Kind      string // sale | refund | drop
	Method    string
	Amount    decimal.Decimal
	Status    string // completed | voided
}

// NewStore crea un estado vacío.
func NewStore() *Store {
	return &Store{
		levels:    make(map[string]*entity.StockLevel),
		transfers: make(map[string]*entity.StockTransfer),
		products:  make(map[string]*entity.Product),
		sessions:  make(map[string]*entity.POSSession),
	}
}

// SeedProduct registra un producto en el catálogo en memoria.
func (s *Store) SeedProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SeedSession registra una sesión de caja.
func (s *Store) SeedSession(sess *entity.POSSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// SeedPayment agrega una fila al ledger de pagos.
func (s *Store) SeedPayment(p Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Status == "" {
		p.Status = "completed"
	}
	s.payments = append(s.payments, p)
}

// Movements devuelve una copia del ledger (para aserciones).
func (s *Store) Movements() []*entity.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Movement, len(s.movements))
	copy(out, s.movements)
	return out
}

// Runner implementa el TxRunner de aplicación sobre el Store. El "rollback"
// es por instantánea: se copia el estado mutable antes de fn y se restaura si
// fn devuelve error, de modo que una operación multi-línea fallida no deja
// escrituras parciales, igual que la transacción real en PostgreSQL.
type Runner struct {
	store *Store
}

// NewRunner crea el runner.
func NewRunner(store *Store) *Runner {
	return &Runner{store: store}
}

// Run ejecuta fn con repositorios atados al Store; restaura el estado ante error.
func (r *Runner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockLevelRepository,
	transferRepo repository.TransferRepository,
) error) error {
	snap := r.store.snapshot()
	err := fn(
		NewMovementRepository(r.store),
		NewStockLevelRepository(r.store),
		NewTransferRepository(r.store),
	)
	if err != nil {
		r.store.restore(snap)
	}
	return err
}

type storeSnapshot struct {
	movements []*entity.Movement
	levels    map[string]*entity.StockLevel
	transfers map[string]*entity.StockTransfer
}

func (s *Store) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := storeSnapshot{
		movements: make([]*entity.Movement, len(s.movements)),
		levels:    make(map[string]*entity.StockLevel, len(s.levels)),
		transfers: make(map[string]*entity.StockTransfer, len(s.transfers)),
	}
	copy(snap.movements, s.movements)
	for k, l := range s.levels {
		clone := *l
		snap.levels[k] = &clone
	}
	for k, t := range s.transfers {
		clone := *t
		snap.transfers[k] = &clone
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = snap.movements
	s.levels = snap.levels
	s.transfers = snap.transfers
}

// ---- Movimientos ----

// MovementRepo ledger en memoria.
type MovementRepo struct{ s *Store }

// NewMovementRepository construye el repo.
func NewMovementRepository(s *Store) *MovementRepo { return &MovementRepo{s: s} }

var _ repository.MovementRepository = (*MovementRepo)(nil)

func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	clone := *m
	r.s.movements = append(r.s.movements, &clone)
	return nil
}

func (r *MovementRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.movements {
		if m.ID == id && m.TenantID == tenantID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MovementRepo) ListByProduct(_ context.Context, tenantID, productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(limit, offset, func(m *entity.Movement) bool {
		return m.TenantID == tenantID && m.ProductID == productID && inRange(m.CreatedAt, from, to)
	}), nil
}

func (r *MovementRepo) ListByLocation(_ context.Context, tenantID string, location entity.Location, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(limit, offset, func(m *entity.Movement) bool {
		return m.TenantID == tenantID && m.Location.Equal(location) && inRange(m.CreatedAt, from, to)
	}), nil
}

func (r *MovementRepo) ListByReference(_ context.Context, tenantID, reference string) ([]*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Movement
	for _, m := range r.s.movements {
		if m.TenantID == tenantID && m.Reference == reference {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *MovementRepo) ListBatches(_ context.Context, key entity.StockKey) ([]entity.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byBatch := make(map[string]*entity.Batch)
	var order []string
	for _, m := range r.s.movements {
		if m.StockKey() != key || m.BatchNumber == "" {
			continue
		}
		b, ok := byBatch[m.BatchNumber]
		if !ok {
			b = &entity.Batch{BatchNumber: m.BatchNumber, Remaining: decimal.Zero}
			byBatch[m.BatchNumber] = b
			order = append(order, m.BatchNumber)
		}
		b.Remaining = b.Remaining.Add(m.Quantity)
		if b.ExpiryDate == nil && m.ExpiryDate != nil {
			d := *m.ExpiryDate
			b.ExpiryDate = &d
		}
		if m.CreatedAt.After(b.LastMovementAt) {
			b.LastMovementAt = m.CreatedAt
		}
	}

	var out []entity.Batch
	for _, name := range order {
		if byBatch[name].Remaining.IsPositive() {
			out = append(out, *byBatch[name])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate == nil:
			return a.LastMovementAt.Before(b.LastMovementAt)
		case a.ExpiryDate == nil:
			return false
		case b.ExpiryDate == nil:
			return true
		case !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		default:
			return a.LastMovementAt.Before(b.LastMovementAt)
		}
	})
	return out, nil
}

func (r *MovementRepo) SumByKey(_ context.Context, key entity.StockKey) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, m := range r.s.movements {
		if m.StockKey() == key {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

func (r *MovementRepo) filter(limit, offset int, keep func(*entity.Movement) bool) []*entity.Movement {
	var out []*entity.Movement
	for _, m := range r.s.movements {
		if keep(m) {
			clone := *m
			out = append(out, &clone)
		}
	}
	// Más recientes primero, como el adaptador SQL.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset)
}

// ---- Niveles de stock ----

// StockLevelRepo índice materializado en memoria.
type StockLevelRepo struct{ s *Store }

// NewStockLevelRepository construye el repo.
func NewStockLevelRepository(s *Store) *StockLevelRepo { return &StockLevelRepo{s: s} }

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

func (r *StockLevelRepo) Get(_ context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if level, ok := r.s.levels[key.String()]; ok {
		clone := *level
		return &clone, nil
	}
	return nil, nil
}

func (r *StockLevelRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	level, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return &entity.StockLevel{Key: key, Quantity: decimal.Zero}, nil
	}
	return level, nil
}

// ApplyDelta suma relativa, igual que el adaptador de PostgreSQL: dos
// escrituras que estrenan la misma clave acumulan ambos deltas.
func (r *StockLevelRepo) ApplyDelta(_ context.Context, key entity.StockKey, delta decimal.Decimal, at time.Time) (*entity.StockLevel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	level, ok := r.s.levels[key.String()]
	if !ok {
		level = &entity.StockLevel{Key: key, Quantity: decimal.Zero}
		r.s.levels[key.String()] = level
	}
	level.Quantity = level.Quantity.Add(delta)
	level.UpdatedAt = at
	clone := *level
	return &clone, nil
}

func (r *StockLevelRepo) UpdateThresholds(_ context.Context, level *entity.StockLevel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.levels[level.Key.String()]
	if !ok {
		return domain.ErrStockRecordNotFound
	}
	existing.MinStockLevel = level.MinStockLevel
	existing.MaxStockLevel = level.MaxStockLevel
	existing.ReorderPoint = level.ReorderPoint
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *StockLevelRepo) Delete(_ context.Context, key entity.StockKey) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.levels[key.String()]; !ok {
		return domain.ErrStockRecordNotFound
	}
	delete(r.s.levels, key.String())
	return nil
}

func (r *StockLevelRepo) ListByTenant(_ context.Context, tenantID string, location *entity.Location, limit, offset int) ([]*entity.StockLevel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.collect(func(l *entity.StockLevel) bool {
		if l.Key.TenantID != tenantID {
			return false
		}
		return location == nil || l.Key.Location.Equal(*location)
	})
	return paginate(out, limit, offset), nil
}

func (r *StockLevelRepo) ListBelowReorderPoint(_ context.Context, tenantID string, location *entity.Location) ([]*entity.StockLevel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(l *entity.StockLevel) bool {
		if l.Key.TenantID != tenantID || l.ReorderPoint == nil {
			return false
		}
		if location != nil && !l.Key.Location.Equal(*location) {
			return false
		}
		return l.Quantity.LessThanOrEqual(*l.ReorderPoint)
	}), nil
}

func (r *StockLevelRepo) collect(keep func(*entity.StockLevel) bool) []*entity.StockLevel {
	var out []*entity.StockLevel
	for _, l := range r.s.levels {
		if keep(l) {
			clone := *l
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// ---- Traslados ----

// TransferRepo traslados en memoria.
type TransferRepo struct{ s *Store }

// NewTransferRepository construye el repo.
func NewTransferRepository(s *Store) *TransferRepo { return &TransferRepo{s: s} }

var _ repository.TransferRepository = (*TransferRepo)(nil)

func (r *TransferRepo) Create(_ context.Context, t *entity.StockTransfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if _, ok := r.s.transfers[t.ID]; ok {
		return domain.ErrDuplicate
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	clone := *t
	r.s.transfers[t.ID] = &clone
	return nil
}

func (r *TransferRepo) GetByID(_ context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transfers[id]
	if !ok || !visibleTo(t, tenantID) {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (r *TransferRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *TransferRepo) UpdateStatus(_ context.Context, t *entity.StockTransfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.transfers[t.ID]
	if !ok {
		return domain.ErrTransferNotFound
	}
	existing.Status = t.Status
	existing.ApprovedBy = t.ApprovedBy
	existing.Notes = t.Notes
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *TransferRepo) Delete(_ context.Context, tenantID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transfers[id]
	if !ok || t.TenantID != tenantID {
		return domain.ErrTransferNotFound
	}
	delete(r.s.transfers, id)
	return nil
}

func (r *TransferRepo) ListByTenant(_ context.Context, tenantID, status string, limit, offset int) ([]*entity.StockTransfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockTransfer
	for _, t := range r.s.transfers {
		if !visibleTo(t, tenantID) {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func visibleTo(t *entity.StockTransfer, tenantID string) bool {
	return t.TenantID == tenantID || t.DestinationTenantID == tenantID
}

// ---- Catálogo ----

// ProductRepo catálogo en memoria.
type ProductRepo struct{ s *Store }

// NewProductRepository construye el repo.
func NewProductRepository(s *Store) *ProductRepo { return &ProductRepo{s: s} }

var _ repository.ProductRepository = (*ProductRepo)(nil)

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.products[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, nil
}

// ---- Sesiones POS ----

// SessionRepo vista de solo lectura sobre las sesiones y pagos sembrados.
type SessionRepo struct{ s *Store }

// NewSessionRepository construye el repo.
func NewSessionRepository(s *Store) *SessionRepo { return &SessionRepo{s: s} }

var _ repository.SessionRepository = (*SessionRepo)(nil)

func (r *SessionRepo) GetSession(_ context.Context, tenantID, sessionID string) (*entity.POSSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[sessionID]
	if !ok || sess.TenantID != tenantID {
		return nil, nil
	}
	clone := *sess
	return &clone, nil
}

func (r *SessionRepo) PaymentSumsByMethod(_ context.Context, tenantID, sessionID string) ([]repository.MethodSum, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byMethod := make(map[string]*repository.MethodSum)
	var order []string
	for _, p := range r.s.payments {
		if p.TenantID != tenantID || p.SessionID != sessionID ||
			p.Kind != entity.PaymentKindSale || p.Status != "completed" {
			continue
		}
		m, ok := byMethod[p.Method]
		if !ok {
			m = &repository.MethodSum{Method: p.Method, Total: decimal.Zero}
			byMethod[p.Method] = m
			order = append(order, p.Method)
		}
		m.Total = m.Total.Add(p.Amount)
		m.Count++
	}
	sort.Strings(order)
	out := make([]repository.MethodSum, 0, len(order))
	for _, method := range order {
		out = append(out, *byMethod[method])
	}
	return out, nil
}

func (r *SessionRepo) CashFlowSums(_ context.Context, tenantID, sessionID string) (repository.CashFlowSums, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sums := repository.CashFlowSums{
		CashSales:   decimal.Zero,
		CashRefunds: decimal.Zero,
		CashDrops:   decimal.Zero,
	}
	for _, p := range r.s.payments {
		if p.TenantID != tenantID || p.SessionID != sessionID ||
			p.Method != entity.PaymentMethodCash || p.Status != "completed" {
			continue
		}
		switch p.Kind {
		case entity.PaymentKindSale:
			sums.CashSales = sums.CashSales.Add(p.Amount)
		case entity.PaymentKindRefund:
			sums.CashRefunds = sums.CashRefunds.Add(p.Amount)
		case entity.PaymentKindDrop:
			sums.CashDrops = sums.CashDrops.Add(p.Amount)
		}
	}
	return sums, nil
}

// ---- Helpers ----

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
