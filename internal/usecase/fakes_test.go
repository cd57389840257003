package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
)

// memStore — хранилище в памяти. Транзакции сериализуются через txMu,
// при ошибке состояние откатывается к снимку.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	products      map[int64]*domain.Product
	nextProductID int64
	sales         []domain.Sale
	events        []*OutboxEvent

	failAppend error
}

func newMemStore() *memStore {
	return &memStore{products: make(map[int64]*domain.Product)}
}

type snapshot struct {
	products      map[int64]*domain.Product
	nextProductID int64
	sales         []domain.Sale
	events        []*OutboxEvent
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make(map[int64]*domain.Product, len(s.products))
	for id, p := range s.products {
		products[id] = p.Clone()
	}
	return snapshot{
		products:      products,
		nextProductID: s.nextProductID,
		sales:         append([]domain.Sale(nil), s.sales...),
		events:        append([]*OutboxEvent(nil), s.events...),
	}
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = snap.products
	s.nextProductID = snap.nextProductID
	s.sales = snap.sales
	s.events = snap.events
}

func (s *memStore) findByBarcode(barcode string) *domain.Product {
	for _, p := range s.products {
		if p.Barcode == barcode {
			return p
		}
	}
	return nil
}

func (s *memStore) checkUnique(product *domain.Product) error {
	for _, p := range s.products {
		if p.ID == product.ID {
			continue
		}
		if p.Barcode == product.Barcode {
			return e.NewConflictError("Product already exists", "products_barcode_key")
		}
		if product.SKU != nil && p.SKU != nil && *p.SKU == *product.SKU {
			return e.NewConflictError("Product already exists", "products_sku_key")
		}
	}
	return nil
}

// stock возвращает текущий остаток товара из хранилища.
func (s *memStore) stock(barcode string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findByBarcode(barcode)
	if p == nil {
		return -1
	}
	return p.Stock
}

func (s *memStore) eventsSnapshot() []*OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*OutboxEvent(nil), s.events...)
}

type fakeTxManager struct {
	store *memStore
}

func (m *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type fakeProductRepo struct {
	store *memStore
}

func (r *fakeProductRepo) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.checkUnique(product); err != nil {
		return nil, err
	}
	r.store.nextProductID++
	created := product.Clone()
	created.ID = r.store.nextProductID
	r.store.products[created.ID] = created
	return created.Clone(), nil
}

func (r *fakeProductRepo) GetByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p := r.store.findByBarcode(barcode)
	if p == nil {
		return nil, e.NewProductNotFound(barcode)
	}
	return p.Clone(), nil
}

func (r *fakeProductRepo) GetByBarcodeForUpdate(ctx context.Context, barcode string) (*domain.Product, error) {
	return r.GetByBarcode(ctx, barcode)
}

func (r *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, p := range r.store.products {
		if p.SKU != nil && *p.SKU == sku {
			return p.Clone(), nil
		}
	}
	return nil, e.NewNotFound("Product", "sku", sku)
}

func (r *fakeProductRepo) List(_ context.Context) ([]domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		out = append(out, *p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.products[product.ID]; !ok {
		return nil, e.NewProductNotFound(product.Barcode)
	}
	if err := r.store.checkUnique(product); err != nil {
		return nil, err
	}
	r.store.products[product.ID] = product.Clone()
	return product.Clone(), nil
}

func (r *fakeProductRepo) UpdateStock(_ context.Context, id int64, stock int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.products[id]
	if !ok {
		return fmt.Errorf("product %d not found", id)
	}
	if stock < 0 {
		return errors.New("check constraint products_stock_check")
	}
	p.Stock = stock
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.products, id)
	return nil
}

func (r *fakeProductRepo) Aggregate(_ context.Context) (*domain.InventoryAggregate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	agg := &domain.InventoryAggregate{}
	for _, p := range r.store.products {
		agg.Total++
		switch domain.ClassifyStock(p.Stock) {
		case domain.StockLevelIn:
			agg.InStock++
		case domain.StockLevelLow:
			agg.LowStock++
		default:
			agg.OutOfStock++
		}
		agg.Value += float64(p.Stock) * p.Price
	}
	return agg, nil
}

// interleavingProductRepo вызывает onGet после чтения товара без блокировки,
// имитируя коммит конкурентной операции между чтением из базы и заполнением кэша.
type interleavingProductRepo struct {
	*fakeProductRepo
	onGet func()
}

func (r *interleavingProductRepo) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	p, err := r.fakeProductRepo.GetByBarcode(ctx, barcode)
	if r.onGet != nil {
		r.onGet()
	}
	return p, err
}

type fakeSaleRepo struct {
	store *memStore
}

func (r *fakeSaleRepo) Append(_ context.Context, sale *domain.Sale) (*domain.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.failAppend != nil {
		return nil, r.store.failAppend
	}
	created := *sale
	created.Items = append([]domain.SaleItem(nil), sale.Items...)
	created.ID = int64(len(r.store.sales) + 1)
	r.store.sales = append(r.store.sales, created)
	return &created, nil
}

func (r *fakeSaleRepo) List(_ context.Context) ([]domain.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return append([]domain.Sale(nil), r.store.sales...), nil
}

type fakeOutboxRepo struct {
	store *memStore
}

func (r *fakeOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := *event
	created.ID = int64(len(r.store.events) + 1)
	r.store.events = append(r.store.events, &created)
	return &created, nil
}

func (r *fakeOutboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) MarkAsProcessed(context.Context, int64) error { return nil }

func (r *fakeOutboxRepo) MarkAsPending(context.Context, int64) error { return nil }

type fakeCache struct {
	mu       sync.Mutex
	items    map[string]*domain.Product
	versions map[string]int64
	deleted  []string
	getErr   error
	setCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]*domain.Product), versions: make(map[string]int64)}
}

func (c *fakeCache) GetProduct(_ context.Context, barcode string) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, c.getErr
	}
	if p, ok := c.items[barcode]; ok {
		return p.Clone(), nil
	}
	return nil, nil
}

func (c *fakeCache) ProductVersion(_ context.Context, barcode string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.versions[barcode], nil
}

func (c *fakeCache) SetProduct(_ context.Context, product *domain.Product, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setCalls++
	if c.versions[product.Barcode] != version {
		return nil
	}
	c.items[product.Barcode] = product.Clone()
	return nil
}

func (c *fakeCache) DeleteProducts(_ context.Context, barcodes []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range barcodes {
		delete(c.items, b)
		c.versions[b]++
	}
	c.deleted = append(c.deleted, barcodes...)
	return nil
}

type fakeImages struct {
	mu        sync.Mutex
	uploads   int
	cleaned   []string
	uploadErr error
}

func (f *fakeImages) UploadImage(_ context.Context, req *UploadImageReq) (*UploadImageRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads++
	key := fmt.Sprintf("products/%s/%d.png", req.Barcode, f.uploads)
	return NewUploadImageRes(key, "http://minio:9000/product-images/"+key), nil
}

func (f *fakeImages) CleanupImages(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, keys...)
}

type testEnv struct {
	uc     *InventoryUseCase
	store  *memStore
	cache  *fakeCache
	images *fakeImages
}

func newTestEnv() *testEnv {
	store := newMemStore()
	cache := newFakeCache()
	images := &fakeImages{}

	uc := NewInventoryUC(
		&fakeProductRepo{store: store},
		&fakeSaleRepo{store: store},
		&fakeOutboxRepo{store: store},
		cache,
		images,
		&fakeTxManager{store: store},
		logger.NewNop(),
	)

	return &testEnv{uc: uc, store: store, cache: cache, images: images}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
