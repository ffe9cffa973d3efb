package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	OrderStatusPending = "pending"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"      json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash *string   `gorm:"column:password_hash"      json:"-"`
	Role         string    `gorm:"not null;default:user"     json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Federated reports whether the account can only sign in through the identity provider.
func (u *User) Federated() bool {
	return u.PasswordHash == nil
}

type Profile struct {
	ID        uint       `gorm:"primaryKey"           json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName  string     `json:"full_name"`
	Bio       string     `json:"bio"`
	AvatarURL string     `json:"avatar_url"`
	BannerURL string     `json:"banner_url"`
	Birthdate *time.Time `json:"birthdate"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string    `gorm:"not null"                      json:"name"`
	Description string    `json:"description"`
	Price       float64   `gorm:"not null;check:price >= 0"     json:"price"`
	ImageURL    string    `json:"image_url"`
	Stock       int       `gorm:"not null;default:0"            json:"stock"`
	IsActive    bool      `gorm:"not null;default:true;index"   json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0"               json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLine is a cart row joined with the current product fields.
type CartLine struct {
	ID        uint    `json:"id"`
	ProductID uint    `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
}

type Order struct {
	ID              uint        `gorm:"primaryKey"       json:"id"`
	UserID          *uint       `gorm:"index"            json:"user_id"`
	CustomerName    string      `gorm:"not null"         json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	Phone           string      `gorm:"not null"         json:"phone"`
	ShippingAddress string      `gorm:"not null"         json:"shipping_address"`
	BillingAddress  string      `json:"billing_address"`
	PaymentMethod   string      `gorm:"not null"         json:"payment_method"`
	PaymentStatus   string      `gorm:"not null"         json:"payment_status"`
	Total           float64     `gorm:"not null"         json:"total"`
	Status          string      `gorm:"not null;index"   json:"status"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID          uint      `gorm:"primaryKey"                  json:"id"`
	OrderID     uint      `gorm:"index;not null"              json:"order_id"`
	ProductID   uint      `gorm:"not null"                    json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price       float64   `gorm:"not null"                    json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	UserID    uint      `gorm:"index;not null"      json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index"      json:"expires_at"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey"     json:"id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	Text      string    `gorm:"not null"       json:"text"`
	Rating    *int      `json:"rating"`
	CreatedAt time.Time `gorm:"index"          json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func All() []any {
	return []any{
		&User{},
		&Profile{},
		&Product{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&PasswordResetToken{},
		&Comment{},
	}
}
