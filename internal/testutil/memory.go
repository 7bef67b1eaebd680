// Package testutil provides in-memory repository implementations and fixture
// builders shared by service and handler tests.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/supplyhub/backend/internal/domain/catalog"
	"github.com/supplyhub/backend/internal/domain/ingest"
	"github.com/supplyhub/backend/internal/domain/partner"
	"github.com/supplyhub/backend/internal/domain/shared"
	"github.com/supplyhub/backend/internal/domain/trade"
)

// The repositories hold copies so mutation through one reference never leaks
// into another, and they are safe for the concurrent access the ingestion
// worker pool produces.

// MemTaskRepo is an in-memory ingest.TaskRepository
type MemTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*ingest.ProcessTask
}

// NewMemTaskRepo creates an empty task repository
func NewMemTaskRepo() *MemTaskRepo {
	return &MemTaskRepo{tasks: make(map[uuid.UUID]*ingest.ProcessTask)}
}

func (m *MemTaskRepo) Save(_ context.Context, task *ingest.ProcessTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *MemTaskRepo) FindByID(_ context.Context, companyID, id uuid.UUID) (*ingest.ProcessTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	cp := *task
	return &cp, nil
}

func (m *MemTaskRepo) FindActiveByHash(_ context.Context, companyID uuid.UUID, contentHash string) (*ingest.ProcessTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, task := range m.tasks {
		if task.CompanyID == companyID && task.ContentHash == contentHash && !task.Status.IsTerminal() {
			cp := *task
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *MemTaskRepo) FindAll(_ context.Context, companyID uuid.UUID, filter ingest.TaskFilter, page, pageSize int) (*ingest.TaskListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*ingest.ProcessTask
	for _, task := range m.tasks {
		if task.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		cp := *task
		items = append(items, &cp)
	}
	return &ingest.TaskListResult{
		Items:      items,
		TotalCount: int64(len(items)),
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (m *MemTaskRepo) IncrementCounters(_ context.Context, taskID uuid.UUID, delta ingest.CounterDelta) (*ingest.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[taskID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	task.ProcessedRows += delta.Succeeded + delta.Failed + delta.Manual
	task.SucceededRows += delta.Succeeded
	task.FailedRows += delta.Failed
	task.ManualRows += delta.Manual
	task.ConfidenceSum += delta.Confidence
	progress := task.Snapshot()
	return &progress, nil
}

// MemRowRepo is an in-memory ingest.RowDetailRepository
type MemRowRepo struct {
	mu   sync.Mutex
	rows map[string]*ingest.RowDetail
}

// NewMemRowRepo creates an empty row detail repository
func NewMemRowRepo() *MemRowRepo {
	return &MemRowRepo{rows: make(map[string]*ingest.RowDetail)}
}

func rowKey(taskID uuid.UUID, rowNumber int) string {
	return fmt.Sprintf("%s:%d", taskID, rowNumber)
}

func (m *MemRowRepo) Save(_ context.Context, detail *ingest.RowDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *detail
	m.rows[rowKey(detail.TaskID, detail.RowNumber)] = &cp
	return nil
}

func (m *MemRowRepo) FindByTaskAndRow(_ context.Context, taskID uuid.UUID, rowNumber int) (*ingest.RowDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	detail, ok := m.rows[rowKey(taskID, rowNumber)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *detail
	return &cp, nil
}

func (m *MemRowRepo) FindByTask(_ context.Context, taskID uuid.UUID, filter ingest.RowFilter, page, pageSize int) (*ingest.RowListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*ingest.RowDetail
	for _, detail := range m.rows {
		if detail.TaskID != taskID {
			continue
		}
		if filter.Outcome != nil && detail.Outcome != *filter.Outcome {
			continue
		}
		cp := *detail
		items = append(items, &cp)
	}
	return &ingest.RowListResult{
		Items:      items,
		TotalCount: int64(len(items)),
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// MemErrorRepo is an in-memory ingest.ErrorOrderRepository
type MemErrorRepo struct {
	mu      sync.Mutex
	records map[string]*ingest.ErrorOrder
}

// NewMemErrorRepo creates an empty error ledger repository
func NewMemErrorRepo() *MemErrorRepo {
	return &MemErrorRepo{records: make(map[string]*ingest.ErrorOrder)}
}

func (m *MemErrorRepo) Upsert(_ context.Context, record *ingest.ErrorOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rowKey(record.TaskID, record.RowNumber)
	if existing, ok := m.records[key]; ok {
		existing.RawPayload = record.RawPayload
		existing.Category = record.Category
		existing.Message = record.Message
		existing.Suggestion = record.Suggestion
		return nil
	}
	cp := *record
	m.records[key] = &cp
	return nil
}

func (m *MemErrorRepo) Save(_ context.Context, record *ingest.ErrorOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *record
	m.records[rowKey(record.TaskID, record.RowNumber)] = &cp
	return nil
}

func (m *MemErrorRepo) FindByID(_ context.Context, companyID, id uuid.UUID) (*ingest.ErrorOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.ID == id && record.CompanyID == companyID {
			cp := *record
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *MemErrorRepo) FindByTaskAndRow(_ context.Context, taskID uuid.UUID, rowNumber int) (*ingest.ErrorOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[rowKey(taskID, rowNumber)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (m *MemErrorRepo) FindAll(_ context.Context, companyID uuid.UUID, filter ingest.ErrorFilter, page, pageSize int) (*ingest.ErrorListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*ingest.ErrorOrder
	for _, record := range m.records {
		if record.CompanyID != companyID {
			continue
		}
		if filter.TaskID != nil && record.TaskID != *filter.TaskID {
			continue
		}
		if filter.Category != nil && record.Category != *filter.Category {
			continue
		}
		if filter.Status != nil && record.Status != *filter.Status {
			continue
		}
		cp := *record
		items = append(items, &cp)
	}
	return &ingest.ErrorListResult{
		Items:      items,
		TotalCount: int64(len(items)),
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// MemOrderRepo is an in-memory trade.OrderRepository
type MemOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*trade.Order
}

// NewMemOrderRepo creates an empty order repository
func NewMemOrderRepo() *MemOrderRepo {
	return &MemOrderRepo{orders: make(map[uuid.UUID]*trade.Order)}
}

func (m *MemOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *MemOrderRepo) FindByNumber(_ context.Context, companyID uuid.UUID, orderNumber string) (*trade.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.CompanyID == companyID && order.OrderNumber == orderNumber {
			cp := *order
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *MemOrderRepo) FindByTask(_ context.Context, taskID uuid.UUID) ([]trade.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []trade.Order
	for _, order := range m.orders {
		if order.SourceTaskID != nil && *order.SourceTaskID == taskID {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (m *MemOrderRepo) Save(_ context.Context, order *trade.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MemOrderRepo) ExistsByNumber(_ context.Context, companyID uuid.UUID, orderNumber string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.CompanyID == companyID && order.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

// MemProductRepo is an in-memory catalog.ProductRepository
type MemProductRepo struct {
	mu       sync.Mutex
	products []*catalog.Product
}

// NewMemProductRepo creates an empty product repository
func NewMemProductRepo() *MemProductRepo {
	return &MemProductRepo{}
}

// Add seeds a product
func (m *MemProductRepo) Add(p *catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, p)
}

func (m *MemProductRepo) FindByID(_ context.Context, companyID, id uuid.UUID) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.CompanyID == companyID && p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *MemProductRepo) FindBySKU(_ context.Context, companyID uuid.UUID, sku string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.CompanyID == companyID && p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *MemProductRepo) FindActive(_ context.Context, companyID uuid.UUID) ([]*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*catalog.Product
	for _, p := range m.products {
		if p.CompanyID == companyID && p.IsActive() {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemProductRepo) Save(_ context.Context, product *catalog.Product) error {
	m.Add(product)
	return nil
}

// MemCustomerRepo is an in-memory partner.CustomerRepository
type MemCustomerRepo struct {
	mu        sync.Mutex
	customers []*partner.Customer
}

// NewMemCustomerRepo creates an empty customer repository
func NewMemCustomerRepo() *MemCustomerRepo {
	return &MemCustomerRepo{}
}

// Add seeds a customer
func (m *MemCustomerRepo) Add(c *partner.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers = append(m.customers, c)
}

func (m *MemCustomerRepo) FindByID(_ context.Context, companyID, id uuid.UUID) (*partner.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.CompanyID == companyID && c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *MemCustomerRepo) FindByCode(_ context.Context, companyID uuid.UUID, code string) (*partner.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.CompanyID == companyID && c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *MemCustomerRepo) FindByPhone(_ context.Context, companyID uuid.UUID, phone string) (*partner.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.CompanyID == companyID && c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *MemCustomerRepo) FindActive(_ context.Context, companyID uuid.UUID) ([]*partner.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*partner.Customer
	for _, c := range m.customers {
		if c.CompanyID == companyID && c.IsActive() {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemCustomerRepo) Save(_ context.Context, customer *partner.Customer) error {
	m.Add(customer)
	return nil
}

// SeqNumberGenerator hands out sequential order numbers without a backing
// store. Set Fail to make every call return that error.
type SeqNumberGenerator struct {
	mu   sync.Mutex
	seq  int64
	Fail error
}

func (g *SeqNumberGenerator) Next(_ context.Context, ownerKey string, channel trade.Channel) (string, error) {
	if g.Fail != nil {
		return "", g.Fail
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return trade.FormatNumber(ownerKey, channel, time.Now(), g.seq), nil
}

func (g *SeqNumberGenerator) PreGenerate(ctx context.Context, ownerKey string, channel trade.Channel, n int) ([]string, error) {
	numbers := make([]string, 0, n)
	for i := 0; i < n; i++ {
		number, err := g.Next(ctx, ownerKey, channel)
		if err != nil {
			return nil, err
		}
		numbers = append(numbers, number)
	}
	return numbers, nil
}

// ContentHashOf returns the hex SHA-256 of the content, matching the upload
// dedup hash
func ContentHashOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// NewTestProduct builds an active product with the given sale price
func NewTestProduct(companyID uuid.UUID, sku, name, price string) *catalog.Product {
	p, err := catalog.NewProduct(companyID, sku, name)
	if err != nil {
		panic(err)
	}
	p.SalePrice = decimal.RequireFromString(price)
	return p
}

// NewTestCustomer builds an active customer with the given phone
func NewTestCustomer(companyID uuid.UUID, code, name, phone string) *partner.Customer {
	c, err := partner.NewCustomer(companyID, code, name)
	if err != nil {
		panic(err)
	}
	c.Phone = phone
	return c
}
