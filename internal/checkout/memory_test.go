package checkout

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// In-memory store doubles, mutex-guarded so the concurrency tests are honest.

type memProducts struct {
	mu            sync.Mutex
	byID          map[string]*Product
	failDecrement error
}

func newMemProducts(products ...*Product) *memProducts {
	m := &memProducts{byID: map[string]*Product{}}
	for _, p := range products {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memProducts) ByID(ctx context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) List(ctx context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memProducts) DecrementStock(ctx context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDecrement != nil {
		return m.failDecrement
	}
	if p, ok := m.byID[id]; ok {
		p.Stock -= qty
		if p.Stock < 0 {
			p.Stock = 0
		}
	}
	return nil
}

func (m *memProducts) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].Stock
}

type memCustomers struct {
	mu         sync.Mutex
	byID       map[string]*Customer
	seq        int
	failCreate error
}

func newMemCustomers() *memCustomers {
	return &memCustomers{byID: map[string]*Customer{}}
}

func (m *memCustomers) Create(ctx context.Context, in CustomerInput) (*Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return nil, m.failCreate
	}
	m.seq++
	c := &Customer{
		ID:               fmt.Sprintf("cust-%d", m.seq),
		FullName:         in.FullName,
		IdentityDocument: in.IdentityDocument,
		Email:            in.Email,
		Phone:            in.Phone,
		CreatedAt:        time.Now(),
	}
	m.byID[c.ID] = c
	return c, nil
}

func (m *memCustomers) ByID(ctx context.Context, id string) (*Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memCustomers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memDeliveries struct {
	mu         sync.Mutex
	byID       map[string]*Delivery
	seq        int
	failCreate error
}

func newMemDeliveries() *memDeliveries {
	return &memDeliveries{byID: map[string]*Delivery{}}
}

func (m *memDeliveries) Create(ctx context.Context, customerID string, in DeliveryInput) (*Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return nil, m.failCreate
	}
	m.seq++
	d := &Delivery{
		ID:         fmt.Sprintf("dlv-%d", m.seq),
		CustomerID: customerID,
		Address:    in.Address,
		City:       in.City,
		Country:    in.Country,
		CreatedAt:  time.Now(),
	}
	m.byID[d.ID] = d
	return d, nil
}

func (m *memDeliveries) ByID(ctx context.Context, id string) (*Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

type memCarts struct {
	mu        sync.Mutex
	lines     map[string][]CartLine // keyed by session id
	failClear error
}

func newMemCarts() *memCarts {
	return &memCarts{lines: map[string][]CartLine{}}
}

func (m *memCarts) AddLine(ctx context.Context, sessionID, productID string, qty int) (*CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lines[sessionID] {
		if m.lines[sessionID][i].ProductID == productID {
			m.lines[sessionID][i].Quantity += qty
			cl := m.lines[sessionID][i]
			return &cl, nil
		}
	}
	cl := CartLine{
		ID:        fmt.Sprintf("cart-%s-%s", sessionID, productID),
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  qty,
	}
	m.lines[sessionID] = append(m.lines[sessionID], cl)
	return &cl, nil
}

func (m *memCarts) UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) (*CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lines[sessionID] {
		if m.lines[sessionID][i].ProductID == productID {
			if qty <= 0 {
				m.lines[sessionID] = append(m.lines[sessionID][:i], m.lines[sessionID][i+1:]...)
				return nil, nil
			}
			m.lines[sessionID][i].Quantity = qty
			cl := m.lines[sessionID][i]
			return &cl, nil
		}
	}
	return nil, nil
}

func (m *memCarts) RemoveLine(ctx context.Context, sessionID, productID string) error {
	_, err := m.UpdateQuantity(ctx, sessionID, productID, 0)
	return err
}

func (m *memCarts) Lines(ctx context.Context, sessionID string) ([]CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CartLine(nil), m.lines[sessionID]...), nil
}

func (m *memCarts) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failClear != nil {
		return m.failClear
	}
	delete(m.lines, sessionID)
	return nil
}

func (m *memCarts) size(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines[sessionID])
}

type memOrders struct {
	mu         sync.Mutex
	byID       map[string]*Order
	lines      map[string][]OrderLine
	refSeq     atomic.Int64
	failCreate error
	failUpdate error
	failMark   error
}

func newMemOrders() *memOrders {
	return &memOrders{byID: map[string]*Order{}, lines: map[string][]OrderLine{}}
}

func (m *memOrders) Create(ctx context.Context, o *Order, lines []OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	o.CreatedAt = time.Now()
	cp := *o
	m.byID[o.ID] = &cp
	m.lines[o.ID] = append([]OrderLine(nil), lines...)
	return nil
}

func (m *memOrders) ByID(ctx context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) ByReference(ctx context.Context, reference string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.Reference == reference {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memOrders) Lines(ctx context.Context, orderID string) ([]OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]OrderLine(nil), m.lines[orderID]...), nil
}

func (m *memOrders) UpdateStatus(ctx context.Context, id string, status Status, gatewayTxID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return false, m.failUpdate
	}
	o, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	o.Status = status
	if gatewayTxID != "" {
		o.GatewayTxID = gatewayTxID
	}
	return true, nil
}

func (m *memOrders) MarkFulfilled(ctx context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMark != nil {
		return false, m.failMark
	}
	o, ok := m.byID[id]
	if !ok || o.FulfilledAt != nil {
		return false, nil
	}
	o.FulfilledAt = &at
	return true, nil
}

func (m *memOrders) NextReference() string {
	return fmt.Sprintf("TX-%06d", m.refSeq.Add(1))
}

func (m *memOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// fakeGateway scripts each gateway step; counters make call ordering and
// short-circuiting observable.

type fakeGateway struct {
	mu sync.Mutex

	acceptanceErr error
	tokenizeErr   error
	sourceErr     error
	chargeErr     error
	statusErr     error

	chargeStatus   string // status returned by CreateCharge
	currentStatus  string // status returned by ChargeStatus
	finalizedAt    string
	chargeRequests []ChargeRequest
	statusCalls    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{chargeStatus: "PENDING", currentStatus: "PENDING"}
}

func (g *fakeGateway) AcceptanceToken(ctx context.Context) (string, error) {
	if g.acceptanceErr != nil {
		return "", g.acceptanceErr
	}
	return "acceptance-token", nil
}

func (g *fakeGateway) TokenizeCard(ctx context.Context, card CardData) (string, error) {
	if g.tokenizeErr != nil {
		return "", g.tokenizeErr
	}
	return "tok_test_1", nil
}

func (g *fakeGateway) CreatePaymentSource(ctx context.Context, token, customerEmail, acceptanceToken string) (string, error) {
	if g.sourceErr != nil {
		return "", g.sourceErr
	}
	return "src_1", nil
}

func (g *fakeGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	g.chargeRequests = append(g.chargeRequests, req)
	return &Charge{ID: "gw-1", Status: g.chargeStatus, FinalizedAt: g.finalizedAt}, nil
}

func (g *fakeGateway) ChargeStatus(ctx context.Context, gatewayTxID string) (*Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusCalls++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return &Charge{ID: gatewayTxID, Status: g.currentStatus, FinalizedAt: g.finalizedAt}, nil
}

func (g *fakeGateway) setCurrentStatus(s string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentStatus = s
}

// env bundles a fully wired pipeline over the in-memory doubles.
type env struct {
	products   *memProducts
	customers  *memCustomers
	deliveries *memDeliveries
	carts      *memCarts
	orders     *memOrders
	gateway    *fakeGateway

	intake     *Intake
	payments   *Payments
	reconciler *Reconciler
}

func newEnv(products ...*Product) *env {
	e := &env{
		products:   newMemProducts(products...),
		customers:  newMemCustomers(),
		deliveries: newMemDeliveries(),
		carts:      newMemCarts(),
		orders:     newMemOrders(),
		gateway:    newFakeGateway(),
	}
	e.intake = &Intake{
		Products:         e.products,
		Customers:        e.customers,
		Deliveries:       e.deliveries,
		Carts:            e.carts,
		Orders:           e.orders,
		BaseFeeCents:     5000,
		DeliveryFeeCents: 10000,
	}
	e.payments = &Payments{
		Orders:    e.orders,
		Customers: e.customers,
		Gateway:   e.gateway,
		Currency:  "COP",
	}
	e.reconciler = &Reconciler{
		Orders:   e.orders,
		Products: e.products,
		Carts:    e.carts,
		Gateway:  e.gateway,
	}
	return e
}

func testCustomer() CustomerInput {
	return CustomerInput{
		FullName:         "Ana Gomez",
		IdentityDocument: "1020304050",
		Email:            "ana@example.com",
		Phone:            "3001234567",
	}
}

func testDelivery() DeliveryInput {
	return DeliveryInput{Address: "Cra 7 # 12-34", City: "Bogota", Country: "CO"}
}
