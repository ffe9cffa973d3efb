package transport

import (
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GoogleLoginRequest struct {
	// Credential is the ID token returned by Google Identity Services.
	Credential string `json:"credential"`
	Token      string `json:"token"`
}

func (r GoogleLoginRequest) IDToken() string {
	if r.Credential != "" {
		return r.Credential
	}
	return r.Token
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type SessionUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type SessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      SessionUser `json:"user"`
}

func NewSessionResponse(res *service.AuthResult) SessionResponse {
	return SessionResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User: SessionUser{
			ID:       res.User.ID,
			Username: res.User.Username,
			Email:    res.User.Email,
			Role:     res.User.Role,
		},
	}
}

type VerifiedUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type VerifyResponse struct {
	Valid bool         `json:"valid"`
	User  VerifiedUser `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Stock       int     `json:"stock"`
	IsActive    *bool   `json:"is_active"`
}

func (r CreateProductRequest) Input() service.CreateProductInput {
	return service.CreateProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		Stock:       r.Stock,
		IsActive:    r.IsActive,
	}
}

type PatchProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	ImageURL    *string  `json:"image_url"`
	Stock       *int     `json:"stock"`
	IsActive    *bool    `json:"is_active"`
}

func (r PatchProductRequest) Input() service.PatchProductInput {
	return service.PatchProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		Stock:       r.Stock,
		IsActive:    r.IsActive,
	}
}

type ProductPage struct {
	Data []models.Product `json:"data"`
	Meta util.Meta        `json:"meta"`
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Items []models.CartLine `json:"items"`
	Total float64           `json:"total"`
}

func NewCartResponse(lines []models.CartLine) CartResponse {
	var total float64
	for _, l := range lines {
		total += l.Price * float64(l.Quantity)
	}
	return CartResponse{Items: lines, Total: total}
}

type BuyerDTO struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	BillingAddress string `json:"billing_address"`
}

func (b BuyerDTO) Info() service.BuyerInfo {
	return service.BuyerInfo{
		Name:           b.Name,
		Email:          b.Email,
		Phone:          b.Phone,
		Address:        b.Address,
		BillingAddress: b.BillingAddress,
	}
}

type PaymentDTO struct {
	Method     string `json:"method"`
	CardNumber string `json:"card_number"`
	CardHolder string `json:"card_holder"`
}

func (p PaymentDTO) Info() service.PaymentInfo {
	return service.PaymentInfo{Method: p.Method, CardNumber: p.CardNumber, CardHolder: p.CardHolder}
}

type OrderItemDTO struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type PlaceOrderRequest struct {
	Buyer   BuyerDTO       `json:"buyer"`
	Payment PaymentDTO     `json:"payment"`
	Items   []OrderItemDTO `json:"items"`
	Total   float64        `json:"total"`
}

func (r PlaceOrderRequest) Input(userID *uint) service.PlaceOrderInput {
	items := make([]service.OrderLineInput, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, service.OrderLineInput{
			ProductID: it.ID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return service.PlaceOrderInput{
		UserID:  userID,
		Buyer:   r.Buyer.Info(),
		Payment: r.Payment.Info(),
		Items:   items,
		Total:   r.Total,
	}
}

type CheckoutRequest struct {
	Buyer   BuyerDTO   `json:"buyer"`
	Payment PaymentDTO `json:"payment"`
}

type PlacedOrderResponse struct {
	ID     uint    `json:"id"`
	Total  float64 `json:"total"`
	Status string  `json:"status"`
}

func NewPlacedOrderResponse(o *service.PlacedOrder) PlacedOrderResponse {
	return PlacedOrderResponse{ID: o.ID, Total: o.Total, Status: o.Status}
}

type OrderPage struct {
	Data []models.Order `json:"data"`
	Meta util.Meta      `json:"meta"`
}

type AddCommentRequest struct {
	Text   string `json:"text"`
	Rating *int   `json:"rating"`
}

type DeleteCommentResponse struct {
	Deleted bool `json:"deleted"`
}

type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
	BannerURL *string `json:"banner_url"`
	Birthdate *string `json:"birthdate"`
}

func (r UpdateProfileRequest) Patch() service.ProfilePatch {
	return service.ProfilePatch{
		FullName:  r.FullName,
		Bio:       r.Bio,
		AvatarURL: r.AvatarURL,
		BannerURL: r.BannerURL,
		Birthdate: r.Birthdate,
	}
}

type ProfileResponse struct {
	UserID    uint    `json:"user_id"`
	Username  string  `json:"username"`
	FullName  string  `json:"full_name"`
	Bio       string  `json:"bio"`
	AvatarURL string  `json:"avatar_url"`
	BannerURL string  `json:"banner_url"`
	Birthdate *string `json:"birthdate"`
}

func NewProfileResponse(v *service.ProfileView) ProfileResponse {
	resp := ProfileResponse{
		UserID:    v.Profile.UserID,
		Username:  v.Username,
		FullName:  v.Profile.FullName,
		Bio:       v.Profile.Bio,
		AvatarURL: v.Profile.AvatarURL,
		BannerURL: v.Profile.BannerURL,
	}
	if v.Profile.Birthdate != nil {
		d := v.Profile.Birthdate.Format("2006-01-02")
		resp.Birthdate = &d
	}
	return resp
}
