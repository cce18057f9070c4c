// Package services holds the business rules of the shop. Persistence and
// side effects are reached through the interfaces below.
package services

import (
	"context"
	"mime/multipart"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopkart_back_end/internal/events"
	"shopkart_back_end/internal/mailer"
	"shopkart_back_end/internal/models"
)

type ObjectID = primitive.ObjectID

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []ObjectID) ([]models.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	FindByEmailVerificationToken(ctx context.Context, hashed string, now time.Time) (*models.User, error)
	FindByForgotPasswordToken(ctx context.Context, hashed string, now time.Time) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id ObjectID) error
}

type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) error
	FindByOwner(ctx context.Context, owner ObjectID) (*models.Profile, error)
	Update(ctx context.Context, p *models.Profile) error
	DeleteByOwner(ctx context.Context, owner ObjectID) error
}

type AddressStore interface {
	Create(ctx context.Context, a *models.Address) error
	FindOwned(ctx context.Context, id, owner ObjectID) (*models.Address, error)
	List(ctx context.Context, owner ObjectID, q models.PageQuery) (models.Page[models.Address], error)
	Update(ctx context.Context, a *models.Address) error
	DeleteOwned(ctx context.Context, id, owner ObjectID) error
}

type CategoryStore interface {
	Create(ctx context.Context, c *models.Category) error
	FindByID(ctx context.Context, id ObjectID) (*models.Category, error)
	List(ctx context.Context, q models.PageQuery) (models.Page[models.Category], error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id ObjectID) error
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []ObjectID) ([]models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id ObjectID) error
	List(ctx context.Context, f models.ProductFilter, q models.PageQuery) (models.Page[models.Product], error)
	DecrementStock(ctx context.Context, items []models.OrderItem) error
	PullSubImage(ctx context.Context, productID, subImageID ObjectID) (*models.Product, error)
}

type CartStore interface {
	FindByOwner(ctx context.Context, owner ObjectID) (*models.Cart, error)
	Create(ctx context.Context, c *models.Cart) error
	Save(ctx context.Context, c *models.Cart) error
	PullItem(ctx context.Context, owner, productID ObjectID) error
	Clear(ctx context.Context, owner ObjectID) error
	SetCoupon(ctx context.Context, owner ObjectID, coupon *ObjectID) error
	DeleteByOwner(ctx context.Context, owner ObjectID) error
}

type CouponStore interface {
	Create(ctx context.Context, c *models.Coupon) error
	FindByID(ctx context.Context, id ObjectID) (*models.Coupon, error)
	FindByIDs(ctx context.Context, ids []ObjectID) ([]models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindApplicable(ctx context.Context, code string, now time.Time) (*models.Coupon, error)
	Update(ctx context.Context, c *models.Coupon) error
	SetActive(ctx context.Context, id ObjectID, active bool) (*models.Coupon, error)
	Delete(ctx context.Context, id ObjectID) error
	List(ctx context.Context, f models.CouponFilter, q models.PageQuery) (models.Page[models.Coupon], error)
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id ObjectID) (*models.Order, error)
	MarkPaid(ctx context.Context, provider models.PaymentProvider, paymentID string) (*models.Order, bool, error)
	MarkStockDecremented(ctx context.Context, id ObjectID) error
	List(ctx context.Context, f models.OrderFilter, q models.PageQuery) (models.Page[models.Order], error)
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type FileStorage interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, url string) error
}

type ProductIndex interface {
	Index(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id ObjectID) error
	Search(ctx context.Context, query string, limit int) ([]ObjectID, error)
}

type EventPublisher interface {
	OrderPaid(ctx context.Context, e events.OrderPaid) error
}

type InvoiceRenderer interface {
	Render(ctx context.Context, view models.OrderView) ([]byte, error)
}

type TokenStore interface {
	StoreRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error
	RefreshToken(ctx context.Context, userID string) (string, error)
	DeleteRefreshToken(ctx context.Context, userID string) error
	Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error
}

// UserCache is told when a user document changes.
type UserCache interface {
	Invalidate(ctx context.Context, id ObjectID)
}
