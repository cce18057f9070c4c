package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/middleware"
	"shopkart_back_end/internal/models"
	"shopkart_back_end/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	StatusCode int                 `json:"statusCode"`
	Data       json.RawMessage     `json:"data"`
	Message    string              `json:"message"`
	Errors     []apperr.FieldError `json:"errors"`
	Success    bool                `json:"success"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func newRouter(user *models.User) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(false))
	if user != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.KeyUser, user)
			c.Next()
		})
	}
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type categoryStore struct {
	mock.Mock
}

func (m *categoryStore) Create(ctx context.Context, c *models.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *categoryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *categoryStore) List(ctx context.Context, q models.PageQuery) (models.Page[models.Category], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(models.Page[models.Category]), args.Error(1)
}

func (m *categoryStore) Update(ctx context.Context, c *models.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *categoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func categoryRouter(store *categoryStore) *gin.Engine {
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	h := NewCategoryHandler(services.NewCategoryService(store))
	r := newRouter(admin)
	r.POST("/categories", h.Create)
	r.GET("/categories", h.List)
	r.GET("/categories/:categoryId", h.Get)
	r.DELETE("/categories/:categoryId", h.Delete)
	return r
}

func TestCategoryHandler_Create(t *testing.T) {
	store := &categoryStore{}
	id := primitive.NewObjectID()
	store.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.Name == "Shoes"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Category).ID = id
	}).Return(nil)

	rec := do(categoryRouter(store), http.MethodPost, "/categories", `{"name":"  Shoes "}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusCreated, env.StatusCode)
	assert.Equal(t, "Category created successfully", env.Message)

	var cat models.Category
	require.NoError(t, json.Unmarshal(env.Data, &cat))
	assert.Equal(t, id, cat.ID)
	assert.Equal(t, "Shoes", cat.Name)
	store.AssertExpectations(t)
}

func TestCategoryHandler_CreateValidation(t *testing.T) {
	store := &categoryStore{}

	rec := do(categoryRouter(store), http.MethodPost, "/categories", `{}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "name", env.Errors[0].Field)
	assert.Equal(t, "name is required", env.Errors[0].Message)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategoryHandler_Get(t *testing.T) {
	store := &categoryStore{}
	missing := primitive.NewObjectID()
	store.On("FindByID", mock.Anything, missing).Return(nil, models.ErrNotFound)
	r := categoryRouter(store)

	rec := do(r, http.MethodGet, "/categories/"+missing.Hex(), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Category not found", decode(t, rec).Message)

	rec = do(r, http.MethodGet, "/categories/not-an-id", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "categoryId", env.Errors[0].Field)
}

func TestCategoryHandler_ListPagination(t *testing.T) {
	store := &categoryStore{}
	q := models.PageQuery{Page: 2, Limit: 1}
	docs := []models.Category{{ID: primitive.NewObjectID(), Name: "Books"}}
	store.On("List", mock.Anything, q).Return(models.NewPage(docs, 3, q), nil)

	rec := do(categoryRouter(store), http.MethodGet, "/categories?page=2&limit=1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var data map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.EqualValues(t, 3, data["totalCategories"])
	assert.Len(t, data["categories"], 1)
	assert.EqualValues(t, 3, data["totalPages"])
	assert.EqualValues(t, 2, data["serialNumberStartFrom"])
	assert.Equal(t, true, data["hasPrevPage"])
	assert.Equal(t, true, data["hasNextPage"])
}

func TestCategoryHandler_DeleteStoreFailure(t *testing.T) {
	store := &categoryStore{}
	id := primitive.NewObjectID()
	store.On("Delete", mock.Anything, id).Return(errors.New("connection reset"))

	rec := do(categoryRouter(store), http.MethodDelete, "/categories/"+id.Hex(), "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec).Message, "connection reset")
}

func TestPageQuery_Defaults(t *testing.T) {
	for _, tt := range []struct {
		query string
		want  models.PageQuery
	}{
		{"", models.PageQuery{Page: 1, Limit: 10}},
		{"?page=3&limit=25", models.PageQuery{Page: 3, Limit: 25}},
		{"?page=0&limit=-4", models.PageQuery{Page: 1, Limit: 10}},
		{"?page=abc", models.PageQuery{Page: 1, Limit: 10}},
	} {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			assert.Equal(t, tt.want, pageQuery(c))
		})
	}
}

func TestCouponHandler_CreateRejectsExpiryBeforeStart(t *testing.T) {
	r := newRouter(&models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin})
	r.POST("/coupons", NewCouponHandler(nil).Create)

	rec := do(r, http.MethodPost, "/coupons", `{
		"name": "Diwali",
		"couponCode": "diwali50",
		"discountValue": 50,
		"minimumCartValue": 500,
		"startDate": "2026-01-10T00:00:00Z",
		"expiryDate": "2026-01-01T00:00:00Z"
	}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "expiryDate", env.Errors[0].Field)
	assert.Equal(t, "expiryDate must be after startDate", env.Errors[0].Message)
}

func TestCouponHandler_StatusRequiresFlag(t *testing.T) {
	r := newRouter(&models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin})
	r.PATCH("/coupons/status/:couponId", NewCouponHandler(nil).SetStatus)

	rec := do(r, http.MethodPatch, "/coupons/status/"+primitive.NewObjectID().Hex(), `{}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "isActive", decode(t, rec).Errors[0].Field)
}

func TestCartHandler_RejectsZeroQuantity(t *testing.T) {
	r := newRouter(&models.User{ID: primitive.NewObjectID()})
	r.POST("/cart/item/:productId", NewCartHandler(nil).AddOrUpdateItem)

	for _, body := range []string{`{"quantity":0}`, `{"quantity":-3}`} {
		rec := do(r, http.MethodPost, "/cart/item/"+primitive.NewObjectID().Hex(), body)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
		env := decode(t, rec)
		require.Len(t, env.Errors, 1)
		assert.Equal(t, "quantity", env.Errors[0].Field)
		assert.Equal(t, "quantity must be at least 1", env.Errors[0].Message)
	}
}

func TestAddressHandler_PincodeLength(t *testing.T) {
	r := newRouter(&models.User{ID: primitive.NewObjectID()})
	r.POST("/addresses", NewAddressHandler(nil).Create)

	rec := do(r, http.MethodPost, "/addresses", `{
		"addressLine1": "12 MG Road",
		"city": "Pune",
		"country": "India",
		"state": "Maharashtra",
		"pincode": "4110"
	}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "pincode", env.Errors[0].Field)
	assert.Equal(t, "pincode must be exactly 6 characters", env.Errors[0].Message)
}

func TestUserHandler_LoginNeedsIdentifier(t *testing.T) {
	r := newRouter(nil)
	r.POST("/users/login", (&UserHandler{}).Login)

	rec := do(r, http.MethodPost, "/users/login", `{"password":"secret1"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields := map[string]bool{}
	for _, fe := range decode(t, rec).Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["username"])
}

func TestUserHandler_RefreshWithoutToken(t *testing.T) {
	r := newRouter(nil)
	r.POST("/users/refresh-token", (&UserHandler{}).RefreshToken)

	rec := do(r, http.MethodPost, "/users/refresh-token", "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized request", decode(t, rec).Message)
}

func TestUserHandler_GoogleDisabled(t *testing.T) {
	r := newRouter(nil)
	r.POST("/users/google/token", (&UserHandler{}).GoogleToken)

	rec := do(r, http.MethodPost, "/users/google/token", `{"code":"abc"}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Google login is not enabled", decode(t, rec).Message)
}

type stubVerifier struct {
	id  string
	ok  bool
	err error
	sig string
}

func (s *stubVerifier) SucceededIntent(_ []byte, signature string) (string, bool, error) {
	s.sig = signature
	return s.id, s.ok, s.err
}

func TestOrderHandler_StripeWebhook(t *testing.T) {
	send := func(v WebhookVerifier) *httptest.ResponseRecorder {
		r := newRouter(nil)
		r.POST("/orders/provider/stripe/webhook", NewOrderHandler(nil, nil, v, zap.NewNop()).StripeWebhook)
		req := httptest.NewRequest(http.MethodPost, "/orders/provider/stripe/webhook", strings.NewReader(`{"type":"charge.refunded"}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("Disabled", func(t *testing.T) {
		rec := send(nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
	t.Run("BadSignature", func(t *testing.T) {
		rec := send(&stubVerifier{err: errors.New("signature mismatch")})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid stripe signature", decode(t, rec).Message)
	})
	t.Run("IgnoredEvent", func(t *testing.T) {
		v := &stubVerifier{}
		rec := send(v)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Event ignored", decode(t, rec).Message)
		assert.Equal(t, "t=1,v1=abc", v.sig)
	})
}

func TestOrderHandler_CheckoutRejectsBadAddress(t *testing.T) {
	r := newRouter(&models.User{ID: primitive.NewObjectID()})
	r.POST("/orders/provider/razorpay", NewOrderHandler(nil, nil, nil, zap.NewNop()).RazorpayOrder)

	rec := do(r, http.MethodPost, "/orders/provider/razorpay", `{"addressId":"nope"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "addressId", decode(t, rec).Errors[0].Field)
}

func TestHealthHandler(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	r := newRouter(nil)
	r.GET("/ok", NewHealthHandler(map[string]Pinger{"mongo": up, "redis": up}).Check)
	r.GET("/degraded", NewHealthHandler(map[string]Pinger{"mongo": up, "redis": down}).Check)

	rec := do(r, http.MethodGet, "/ok", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)

	rec = do(r, http.MethodGet, "/degraded", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	var checks map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &checks))
	assert.Equal(t, map[string]string{"mongo": "up", "redis": "down"}, checks)
}
