package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AhmadZaarour/store-manager-web-app/internal/domain"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSale_SingleItem(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	env.uc.now = func() time.Time { return fixed }

	_, err := env.uc.AddProduct(ctx, &AddProductReq{Name: "Widget", Barcode: "123", Price: 9.99, Stock: 5})
	require.NoError(t, err)

	sale, err := env.uc.RecordSale(ctx, &RecordSaleReq{
		Items:     []SaleItemReq{{Barcode: "123", Quantity: intPtr(3)}},
		CartTotal: 29.97,
	})
	require.NoError(t, err)

	assert.Equal(t, "123", sale.Barcode)
	assert.Equal(t, 3, sale.QuantitySold)
	assert.Equal(t, 29.97, sale.Price)
	assert.Equal(t, domain.DefaultPaymentMethod, sale.PaymentMethod)
	assert.Equal(t, fixed, sale.Date)
	assert.Equal(t, []domain.SaleItem{{Barcode: "123", Name: "Widget", Quantity: 3, UnitPrice: 9.99}}, sale.Items)
	assert.Equal(t, 2, env.store.stock("123"))

	sales, err := env.uc.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, sale.Items, sales[0].Items)
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	addWidget(t, env, "123", 2)

	_, err := env.uc.RecordSale(ctx, &RecordSaleReq{Items: []SaleItemReq{{Barcode: "123", Quantity: intPtr(5)}}})

	var vErr *e.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.NotNil(t, vErr.Available)
	assert.Equal(t, 2, *vErr.Available)
	assert.Equal(t, 2, env.store.stock("123"))

	sales, err := env.uc.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestRecordSale_MultiItem(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	addWidget(t, env, "a", 5)
	addWidget(t, env, "b", 5)

	sale, err := env.uc.RecordSale(ctx, &RecordSaleReq{
		Items: []SaleItemReq{
			{Barcode: "a", Quantity: intPtr(2)},
			{Barcode: "b"},
			{Barcode: "a", Quantity: intPtr(1)},
		},
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MultiItemBarcode, sale.Barcode)
	assert.Equal(t, 4, sale.QuantitySold)
	assert.Equal(t, "card", sale.PaymentMethod)
	assert.Zero(t, sale.Price)
	require.Len(t, sale.Items, 3)
	assert.Equal(t, "a", sale.Items[0].Barcode)
	assert.Equal(t, "b", sale.Items[1].Barcode)
	assert.Equal(t, 2, env.store.stock("a"))
	assert.Equal(t, 4, env.store.stock("b"))
	assert.ElementsMatch(t, []string{"a", "b"}, env.cache.deleted)
}

func TestRecordSale_SameBarcodeTwiceIsSingle(t *testing.T) {
	env := newTestEnv()
	addWidget(t, env, "a", 5)

	sale, err := env.uc.RecordSale(context.Background(), &RecordSaleReq{
		Items: []SaleItemReq{{Barcode: "a"}, {Barcode: "a"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a", sale.Barcode)
}

func TestRecordSale_RepeatedLinesCheckedCumulatively(t *testing.T) {
	env := newTestEnv()
	addWidget(t, env, "a", 3)

	_, err := env.uc.RecordSale(context.Background(), &RecordSaleReq{
		Items: []SaleItemReq{{Barcode: "a", Quantity: intPtr(2)}, {Barcode: "a", Quantity: intPtr(2)}},
	})

	var vErr *e.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 1, *vErr.Available)
	assert.Equal(t, 3, env.store.stock("a"))
}

func TestRecordSale_AllOrNothing(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		items   []SaleItemReq
		prepare func(env *testEnv)
		wantErr error
	}{
		{
			name:    "unknown second item",
			items:   []SaleItemReq{{Barcode: "a", Quantity: intPtr(1)}, {Barcode: "missing"}},
			wantErr: e.ErrNotFound,
		},
		{
			name:    "insufficient second item",
			items:   []SaleItemReq{{Barcode: "a", Quantity: intPtr(1)}, {Barcode: "b", Quantity: intPtr(99)}},
			wantErr: e.ErrValidation,
		},
		{
			name:    "missing barcode",
			items:   []SaleItemReq{{Barcode: "a"}, {Barcode: ""}},
			wantErr: e.ErrValidation,
		},
		{
			name:    "zero quantity",
			items:   []SaleItemReq{{Barcode: "a"}, {Barcode: "b", Quantity: intPtr(0)}},
			wantErr: e.ErrValidation,
		},
		{
			name:  "ledger failure",
			items: []SaleItemReq{{Barcode: "a"}, {Barcode: "b"}},
			prepare: func(env *testEnv) {
				env.store.failAppend = errors.New("disk full")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			addWidget(t, env, "a", 5)
			addWidget(t, env, "b", 5)
			if tc.prepare != nil {
				tc.prepare(env)
			}

			_, err := env.uc.RecordSale(ctx, &RecordSaleReq{Items: tc.items})
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}

			assert.Equal(t, 5, env.store.stock("a"))
			assert.Equal(t, 5, env.store.stock("b"))
			assert.Empty(t, env.store.eventsSnapshot())

			env.store.failAppend = nil
			sales, err := env.uc.ListSales(ctx)
			require.NoError(t, err)
			assert.Empty(t, sales)
		})
	}
}

func TestRecordSale_NoItems(t *testing.T) {
	env := newTestEnv()

	_, err := env.uc.RecordSale(context.Background(), &RecordSaleReq{})
	assert.ErrorIs(t, err, e.ErrValidation)
}

func TestRecordSale_ExplicitDate(t *testing.T) {
	env := newTestEnv()
	addWidget(t, env, "a", 5)
	date := time.Date(2023, 12, 31, 23, 59, 0, 0, time.FixedZone("UTC+3", 3*3600))

	sale, err := env.uc.RecordSale(context.Background(), &RecordSaleReq{
		Items: []SaleItemReq{{Barcode: "a"}},
		Date:  &date,
	})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, sale.Date.Location())
	assert.True(t, date.Equal(sale.Date))
}

func TestRecordSale_EmitsEvent(t *testing.T) {
	env := newTestEnv()
	addWidget(t, env, "a", 5)

	sale, err := env.uc.RecordSale(context.Background(), &RecordSaleReq{
		Items:     []SaleItemReq{{Barcode: "a", Quantity: intPtr(2)}},
		CartTotal: 19.98,
	})
	require.NoError(t, err)

	events := env.store.eventsSnapshot()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventSaleRecorded, events[0].EventType)
	assert.Equal(t, Pending, events[0].Status)

	payload := decodeEvent(t, events[0])
	assert.Equal(t, events[0].EventID, payload["event_id"])
	data := payload["data"].(map[string]any)
	assert.Equal(t, float64(sale.ID), data["sale_id"])
	assert.Equal(t, 19.98, data["total"])
	items := data["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].(map[string]any)["barcode"])
}

func TestRecordSale_LastUnitRace(t *testing.T) {
	env := newTestEnv()
	addWidget(t, env, "last", 1)

	const buyers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.uc.RecordSale(context.Background(), &RecordSaleReq{
				Items: []SaleItemReq{{Barcode: "last", Quantity: intPtr(1)}},
			})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, e.ErrValidation) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, buyers-1, rejected)
	assert.Equal(t, 0, env.store.stock("last"))
}

// lockRecordingRepo запоминает порядок блокировки строк.
type lockRecordingRepo struct {
	*fakeProductRepo
	locked []string
}

func (r *lockRecordingRepo) GetByBarcodeForUpdate(ctx context.Context, barcode string) (*domain.Product, error) {
	r.locked = append(r.locked, barcode)
	return r.fakeProductRepo.GetByBarcodeForUpdate(ctx, barcode)
}

func TestRecordSale_LocksInBarcodeOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	addWidget(t, env, "b", 5)
	addWidget(t, env, "a", 5)
	addWidget(t, env, "c", 5)

	repo := &lockRecordingRepo{fakeProductRepo: env.uc.productRepo.(*fakeProductRepo)}
	env.uc.productRepo = repo

	sale, err := env.uc.RecordSale(ctx, &RecordSaleReq{Items: []SaleItemReq{
		{Barcode: "c"}, {Barcode: "a"}, {Barcode: "b"}, {Barcode: "a"},
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, repo.locked)
	assert.Equal(t, domain.MultiItemBarcode, sale.Barcode)
	require.Len(t, sale.Items, 4)
	assert.Equal(t, "c", sale.Items[0].Barcode)
	assert.Equal(t, 3, env.store.stock("a"))
}

func TestRecordSale_ErrorsFollowRequestOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("missing item before short one", func(t *testing.T) {
		env := newTestEnv()
		addWidget(t, env, "aaa", 1)

		_, err := env.uc.RecordSale(ctx, &RecordSaleReq{Items: []SaleItemReq{
			{Barcode: "zzz"},
			{Barcode: "aaa", Quantity: intPtr(9)},
		}})
		assert.ErrorIs(t, err, e.ErrNotFound)
	})

	t.Run("short item before missing one", func(t *testing.T) {
		env := newTestEnv()
		addWidget(t, env, "zzz", 1)

		_, err := env.uc.RecordSale(ctx, &RecordSaleReq{Items: []SaleItemReq{
			{Barcode: "zzz", Quantity: intPtr(9)},
			{Barcode: "aaa"},
		}})
		var vErr *e.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.NotNil(t, vErr.Available)
		assert.Equal(t, 1, env.store.stock("zzz"))
	})

	t.Run("blank barcode before missing one", func(t *testing.T) {
		env := newTestEnv()

		_, err := env.uc.RecordSale(ctx, &RecordSaleReq{Items: []SaleItemReq{
			{Barcode: " "},
			{Barcode: "aaa"},
		}})
		var vErr *e.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "Item barcode is required", vErr.Msg)
	})
}

func TestRecordSale_PaymentMethodTooLong(t *testing.T) {
	env := newTestEnv()
	addWidget(t, env, "123", 5)

	_, err := env.uc.RecordSale(context.Background(), &RecordSaleReq{
		Items:         []SaleItemReq{{Barcode: "123"}},
		PaymentMethod: strings.Repeat("c", domain.MaxPaymentMethodLen+1),
	})

	var vErr *e.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "out of range", vErr.Reason)
	assert.Equal(t, 5, env.store.stock("123"))
}
