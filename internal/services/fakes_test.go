package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shopkart_back_end/internal/events"
	"shopkart_back_end/internal/mailer"
	"shopkart_back_end/internal/models"
)

// syncAsync runs background tasks inline so tests can observe them.
func syncAsync(errs *[]error) Async {
	return func(_ string, fn func(ctx context.Context) error) {
		if err := fn(context.Background()); err != nil && errs != nil {
			*errs = append(*errs, err)
		}
	}
}

func newID() ObjectID { return primitive.NewObjectID() }

func assignID(id *ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

func paginateSlice[T any](docs []T, q models.PageQuery) models.Page[T] {
	q = q.Normalize()
	total := int64(len(docs))
	start := min(q.Skip(), total)
	end := min(start+q.Limit, total)
	return models.NewPage(docs[start:end], total, q)
}

type fakeUsers struct {
	mu   sync.Mutex
	byID map[ObjectID]models.User
	// failCreate makes Create fail when set.
	failCreate error
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[ObjectID]models.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	for _, other := range f.byID {
		if other.Email == u.Email || other.Username == u.Username {
			return models.ErrDuplicate
		}
	}
	assignID(&u.ID)
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) FindByEmailOrUsername(_ context.Context, email, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if (email != "" && u.Email == email) || (username != "" && u.Username == username) {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUsers) FindByEmailVerificationToken(_ context.Context, hashed string, now time.Time) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.EmailVerificationToken == hashed && u.EmailVerificationExpiry != nil && u.EmailVerificationExpiry.After(now) {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUsers) FindByForgotPasswordToken(_ context.Context, hashed string, now time.Time) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.ForgotPasswordToken == hashed && u.ForgotPasswordExpiry != nil && u.ForgotPasswordExpiry.After(now) {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return models.ErrNotFound
	}
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

type fakeProfiles struct {
	mu      sync.Mutex
	byOwner map[ObjectID]models.Profile
}

func newFakeProfiles() *fakeProfiles { return &fakeProfiles{byOwner: map[ObjectID]models.Profile{}} }

func (f *fakeProfiles) Create(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	assignID(&p.ID)
	f.byOwner[p.Owner] = *p
	return nil
}

func (f *fakeProfiles) FindByOwner(_ context.Context, owner ObjectID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byOwner[owner]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) Update(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byOwner[p.Owner]; !ok {
		return models.ErrNotFound
	}
	f.byOwner[p.Owner] = *p
	return nil
}

func (f *fakeProfiles) DeleteByOwner(_ context.Context, owner ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byOwner, owner)
	return nil
}

type fakeAddresses struct {
	mu   sync.Mutex
	byID map[ObjectID]models.Address
}

func newFakeAddresses() *fakeAddresses { return &fakeAddresses{byID: map[ObjectID]models.Address{}} }

func (f *fakeAddresses) Create(_ context.Context, a *models.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	assignID(&a.ID)
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeAddresses) FindOwned(_ context.Context, id, owner ObjectID) (*models.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok || a.Owner != owner {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAddresses) List(_ context.Context, owner ObjectID, q models.PageQuery) (models.Page[models.Address], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Address
	for _, a := range f.byID {
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return paginateSlice(out, q), nil
}

func (f *fakeAddresses) Update(_ context.Context, a *models.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.byID[a.ID]; !ok || old.Owner != a.Owner {
		return models.ErrNotFound
	}
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeAddresses) DeleteOwned(_ context.Context, id, owner ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; !ok || a.Owner != owner {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeCategories struct {
	mu   sync.Mutex
	byID map[ObjectID]models.Category
}

func newFakeCategories() *fakeCategories { return &fakeCategories{byID: map[ObjectID]models.Category{}} }

func (f *fakeCategories) Create(_ context.Context, c *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	assignID(&c.ID)
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeCategories) FindByID(_ context.Context, id ObjectID) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCategories) List(_ context.Context, q models.PageQuery) (models.Page[models.Category], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Category
	for _, c := range f.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return paginateSlice(out, q), nil
}

func (f *fakeCategories) Update(_ context.Context, c *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[c.ID]; !ok {
		return models.ErrNotFound
	}
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, id ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeProducts struct {
	mu   sync.Mutex
	byID map[ObjectID]models.Product
	// decrementErr fails the next DecrementStock call once.
	decrementErr error
}

func newFakeProducts() *fakeProducts { return &fakeProducts{byID: map[ObjectID]models.Product{}} }

func (f *fakeProducts) add(p models.Product) models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	assignID(&p.ID)
	f.byID[p.ID] = p
	return p
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	*p = f.add(*p)
	return nil
}

func (f *fakeProducts) FindByID(_ context.Context, id ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []ObjectID) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.ID]; !ok {
		return models.ErrNotFound
	}
	f.byID[p.ID] = *p
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProducts) List(_ context.Context, filter models.ProductFilter, q models.PageQuery) (models.Page[models.Product], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.byID {
		if filter.Category == nil || p.Category == *filter.Category {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return paginateSlice(out, q), nil
}

func (f *fakeProducts) DecrementStock(_ context.Context, items []models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.decrementErr; err != nil {
		f.decrementErr = nil
		return err
	}
	for _, it := range items {
		if p, ok := f.byID[it.ProductID]; ok {
			p.Stock -= it.Quantity
			f.byID[it.ProductID] = p
		}
	}
	return nil
}

func (f *fakeProducts) PullSubImage(_ context.Context, productID, subImageID ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[productID]
	if !ok {
		return nil, models.ErrNotFound
	}
	kept := p.SubImages[:0:0]
	for _, img := range p.SubImages {
		if img.ID != subImageID {
			kept = append(kept, img)
		}
	}
	p.SubImages = kept
	f.byID[productID] = p
	return &p, nil
}

type fakeCarts struct {
	mu      sync.Mutex
	byOwner map[ObjectID]models.Cart
	saves   int
}

func newFakeCarts() *fakeCarts { return &fakeCarts{byOwner: map[ObjectID]models.Cart{}} }

func (f *fakeCarts) get(owner ObjectID) models.Cart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byOwner[owner]
}

func (f *fakeCarts) FindByOwner(_ context.Context, owner ObjectID) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byOwner[owner]
	if !ok {
		return nil, models.ErrNotFound
	}
	c.Items = append([]models.CartItem(nil), c.Items...)
	return &c, nil
}

func (f *fakeCarts) Create(_ context.Context, c *models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byOwner[c.Owner]; ok {
		return models.ErrDuplicate
	}
	assignID(&c.ID)
	f.byOwner[c.Owner] = *c
	return nil
}

func (f *fakeCarts) Save(_ context.Context, c *models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byOwner[c.Owner]; ok {
		c.ID = existing.ID
	}
	assignID(&c.ID)
	c.Items = append([]models.CartItem(nil), c.Items...)
	f.byOwner[c.Owner] = *c
	f.saves++
	return nil
}

func (f *fakeCarts) PullItem(_ context.Context, owner, productID ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byOwner[owner]
	if !ok {
		return nil
	}
	var kept []models.CartItem
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	f.byOwner[owner] = c
	return nil
}

func (f *fakeCarts) Clear(_ context.Context, owner ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byOwner[owner]
	if !ok {
		return nil
	}
	c.Items = []models.CartItem{}
	c.Coupon = nil
	f.byOwner[owner] = c
	return nil
}

func (f *fakeCarts) SetCoupon(_ context.Context, owner ObjectID, coupon *ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byOwner[owner]
	if !ok {
		return nil
	}
	c.Coupon = coupon
	f.byOwner[owner] = c
	return nil
}

func (f *fakeCarts) DeleteByOwner(_ context.Context, owner ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byOwner, owner)
	return nil
}

type fakeCoupons struct {
	mu   sync.Mutex
	byID map[ObjectID]models.Coupon
}

func newFakeCoupons() *fakeCoupons { return &fakeCoupons{byID: map[ObjectID]models.Coupon{}} }

func (f *fakeCoupons) add(c models.Coupon) models.Coupon {
	f.mu.Lock()
	defer f.mu.Unlock()
	assignID(&c.ID)
	f.byID[c.ID] = c
	return c
}

func (f *fakeCoupons) Create(_ context.Context, c *models.Coupon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.byID {
		if other.CouponCode == c.CouponCode {
			return models.ErrDuplicate
		}
	}
	assignID(&c.ID)
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeCoupons) FindByID(_ context.Context, id ObjectID) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCoupons) FindByIDs(_ context.Context, ids []ObjectID) ([]models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Coupon
	for _, id := range ids {
		if c, ok := f.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCoupons) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.CouponCode == code {
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeCoupons) FindApplicable(_ context.Context, code string, now time.Time) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.CouponCode == code && c.ApplicableAt(now) {
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeCoupons) Update(_ context.Context, c *models.Coupon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[c.ID]; !ok {
		return models.ErrNotFound
	}
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeCoupons) SetActive(_ context.Context, id ObjectID, active bool) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c.IsActive = active
	f.byID[id] = c
	return &c, nil
}

func (f *fakeCoupons) Delete(_ context.Context, id ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeCoupons) List(_ context.Context, filter models.CouponFilter, q models.PageQuery) (models.Page[models.Coupon], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Coupon
	for _, c := range f.byID {
		if filter.ActiveAt != nil && (!c.IsActive || !c.StartDate.Before(*filter.ActiveAt)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CouponCode < out[j].CouponCode })
	return paginateSlice(out, q), nil
}

type fakeOrders struct {
	mu   sync.Mutex
	byID map[ObjectID]models.Order
}

func newFakeOrders() *fakeOrders { return &fakeOrders{byID: map[ObjectID]models.Order{}} }

func (f *fakeOrders) add(o models.Order) models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	assignID(&o.ID)
	f.byID[o.ID] = o
	return o
}

func (f *fakeOrders) all() []models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.byID {
		out = append(out, o)
	}
	return out
}

func (f *fakeOrders) Create(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	assignID(&o.ID)
	o.Items = append([]models.OrderItem(nil), o.Items...)
	f.byID[o.ID] = *o
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, provider models.PaymentProvider, paymentID string) (*models.Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, o := range f.byID {
		if o.PaymentID == paymentID && o.PaymentProvider == provider {
			was := o.IsPaymentDone
			o.IsPaymentDone = true
			f.byID[id] = o
			return &o, was, nil
		}
	}
	return nil, false, models.ErrNotFound
}

func (f *fakeOrders) MarkStockDecremented(_ context.Context, id ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	o.StockDecremented = true
	f.byID[id] = o
	return nil
}

func (f *fakeOrders) List(_ context.Context, filter models.OrderFilter, q models.PageQuery) (models.Page[models.Order], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.byID {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.Customer != nil && o.Customer != *filter.Customer {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return paginateSlice(out, q), nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type memoryStorage struct {
	mu      sync.Mutex
	n       int
	stored  map[string]bool
	deleted []string
	fail    error
}

func newMemoryStorage() *memoryStorage { return &memoryStorage{stored: map[string]bool{}} }

func (s *memoryStorage) Upload(_ context.Context, file *multipart.FileHeader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.n++
	url := fmt.Sprintf("https://cdn.test/%d-%s", s.n, file.Filename)
	s.stored[url] = true
	return url, nil
}

func (s *memoryStorage) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stored, url)
	s.deleted = append(s.deleted, url)
	return nil
}

type memoryIndex struct {
	mu      sync.Mutex
	indexed map[ObjectID]models.Product
	hits    []ObjectID
	err     error
}

func newMemoryIndex() *memoryIndex { return &memoryIndex{indexed: map[ObjectID]models.Product{}} }

func (i *memoryIndex) Index(_ context.Context, p models.Product) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.indexed[p.ID] = p
	return nil
}

func (i *memoryIndex) Delete(_ context.Context, id ObjectID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.indexed, id)
	return nil
}

func (i *memoryIndex) Search(context.Context, string, int) ([]ObjectID, error) {
	return i.hits, i.err
}

type recordingEvents struct {
	mu   sync.Mutex
	paid []events.OrderPaid
}

func (r *recordingEvents) OrderPaid(_ context.Context, e events.OrderPaid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paid = append(r.paid, e)
	return nil
}

type memoryTokens struct {
	mu          sync.Mutex
	refresh     map[string]string
	blacklisted map[string]time.Duration
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{refresh: map[string]string{}, blacklisted: map[string]time.Duration{}}
}

func (m *memoryTokens) StoreRefreshToken(_ context.Context, userID, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[userID] = token
	return nil
}

func (m *memoryTokens) RefreshToken(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh[userID], nil
}

func (m *memoryTokens) DeleteRefreshToken(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refresh, userID)
	return nil
}

func (m *memoryTokens) Blacklist(_ context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blacklisted[tokenID] = ttl
	return nil
}

type countingCache struct {
	invalidated []ObjectID
}

func (c *countingCache) Invalidate(_ context.Context, id ObjectID) {
	c.invalidated = append(c.invalidated, id)
}

func nopLogger() *zap.Logger { return zap.NewNop() }
