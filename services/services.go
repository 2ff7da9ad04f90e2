package services

import (
	"readova/catalog"
	"readova/config"
)

// Services 服务集合
type Services struct {
	Auth         *AuthService
	Books        *BookService
	Entitlement  *EntitlementService
	Borrows      *BorrowService
	Subscription *SubscriptionService
	Ratings      *RatingService
	Wishlist     *WishlistService
	Library      *LibraryService
	Stats        *StatsService
}

// NewServices 组装所有服务
func NewServices(d *Deps, jwtService *config.JWTService, authConfig config.AuthConfig, provider catalog.Provider, pricing catalog.PricingPolicy, notifier Notifier) *Services {
	entitlement := NewEntitlementService(d)
	return &Services{
		Auth:         NewAuthService(d, jwtService, authConfig),
		Books:        NewBookService(d, provider, pricing, entitlement, notifier),
		Entitlement:  entitlement,
		Borrows:      NewBorrowService(d),
		Subscription: NewSubscriptionService(d),
		Ratings:      NewRatingService(d, entitlement),
		Wishlist:     NewWishlistService(d, entitlement),
		Library:      NewLibraryService(d, entitlement),
		Stats:        NewStatsService(d),
	}
}
