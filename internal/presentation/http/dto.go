package httppresentation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apporder "github.com/subham007-coder/Supar-Admin-Backend/internal/application/order"
	dominv "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/inventory"
	domorder "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/order"
	dompay "github.com/subham007-coder/Supar-Admin-Backend/internal/domain/payment"
)

// Amounts on the wire are major-unit decimals (499.50); the application
// works in the smallest currency unit.

type userInfoDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

type cartLineDTO struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	SelectedLength string          `json:"selectedLength,omitempty"`
	SelectedCurl   string          `json:"selectedCurl,omitempty"`
}

type createOrderRequest struct {
	UserInfo      userInfoDTO     `json:"user_info"`
	Cart          []cartLineDTO   `json:"cart"`
	SubTotal      decimal.Decimal `json:"subTotal"`
	ShippingCost  decimal.Decimal `json:"shippingCost"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"paymentMethod"`
}

func (req createOrderRequest) toInput(userID, fallbackCurrency string) (apporder.PlaceOrderInput, error) {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = fallbackCurrency
	}
	var convErr error
	minor := func(field string, d decimal.Decimal) int64 {
		v, err := dompay.ToMinorUnits(d, currency)
		if err != nil && convErr == nil {
			convErr = fmt.Errorf("%s: %w", field, err)
		}
		return v
	}

	cart := make([]domorder.LineItem, 0, len(req.Cart))
	for i, l := range req.Cart {
		li := domorder.LineItem{
			ProductID: l.ID,
			Name:      l.Title,
			Quantity:  l.Quantity,
			UnitPrice: minor(fmt.Sprintf("cart[%d].price", i), l.Price),
		}
		if l.SelectedLength != "" || l.SelectedCurl != "" {
			li.Variant = &dominv.Selector{Length: l.SelectedLength, Curl: l.SelectedCurl}
		}
		cart = append(cart, li)
	}

	in := apporder.PlaceOrderInput{
		UserID:   userID,
		UserInfo: domorder.UserInfo(req.UserInfo),
		Cart:     cart,
		Totals: domorder.Totals{
			SubTotal:     minor("subTotal", req.SubTotal),
			Discount:     minor("discount", req.Discount),
			ShippingCost: minor("shippingCost", req.ShippingCost),
			Total:        minor("total", req.Total),
		},
		Currency:      currency,
		PaymentMethod: req.PaymentMethod,
	}
	if convErr != nil {
		return apporder.PlaceOrderInput{}, convErr
	}
	return in, nil
}

type orderResponse struct {
	ID            string          `json:"_id"`
	Invoice       int64           `json:"invoice"`
	User          string          `json:"user"`
	UserInfo      userInfoDTO     `json:"user_info"`
	Cart          []cartLineDTO   `json:"cart"`
	SubTotal      decimal.Decimal `json:"subTotal"`
	ShippingCost  decimal.Decimal `json:"shippingCost"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func newOrderResponse(o *domorder.Order) orderResponse {
	major := func(v int64) decimal.Decimal { return dompay.FromMinorUnits(v, o.Currency) }

	cart := make([]cartLineDTO, 0, len(o.Cart))
	for _, li := range o.Cart {
		l := cartLineDTO{ID: li.ProductID, Title: li.Name, Quantity: li.Quantity, Price: major(li.UnitPrice)}
		if li.Variant != nil {
			l.SelectedLength, l.SelectedCurl = li.Variant.Length, li.Variant.Curl
		}
		cart = append(cart, l)
	}
	return orderResponse{
		ID:            o.ID,
		Invoice:       o.Invoice,
		User:          o.UserID,
		UserInfo:      userInfoDTO(o.UserInfo),
		Cart:          cart,
		SubTotal:      major(o.Totals.SubTotal),
		ShippingCost:  major(o.Totals.ShippingCost),
		Discount:      major(o.Totals.Discount),
		Total:         major(o.Totals.Total),
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

type stockIssueDTO struct {
	ProductID      string `json:"productId"`
	SelectedLength string `json:"selectedLength,omitempty"`
	SelectedCurl   string `json:"selectedCurl,omitempty"`
	Quantity       int    `json:"quantity"`
	Message        string `json:"message"`
}

type createOrderResponse struct {
	orderResponse
	StockIssues        []stockIssueDTO `json:"stockIssues,omitempty"`
	NotificationQueued bool            `json:"notificationQueued"`
}

func newCreateOrderResponse(res *apporder.PlaceOrderResult) createOrderResponse {
	out := createOrderResponse{
		orderResponse:      newOrderResponse(res.Order),
		NotificationQueued: res.NotificationQueued,
	}
	for _, is := range res.StockIssues {
		dto := stockIssueDTO{ProductID: is.ProductID, Quantity: is.Quantity, Message: is.Message}
		if is.Variant != nil {
			dto.SelectedLength, dto.SelectedCurl = is.Variant.Length, is.Variant.Curl
		}
		out.StockIssues = append(out.StockIssues, dto)
	}
	return out
}

type statusSummaryDTO struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type userOrdersResponse struct {
	Orders     []orderResponse             `json:"orders"`
	Limits     int                         `json:"limits"`
	Pages      int                         `json:"pages"`
	TotalDoc   int64                       `json:"totalDoc"`
	Pending    int64                       `json:"pending"`
	Processing int64                       `json:"processing"`
	Delivered  int64                       `json:"delivered"`
	Cancelled  int64                       `json:"cancelled"`
	Summary    map[string]statusSummaryDTO `json:"summary"`
}

// newUserOrdersResponse reports aggregate amounts in the store currency, the
// only currency PlaceOrder accepts when configured.
func newUserOrdersResponse(page *domorder.UserOrders, currency string) userOrdersResponse {
	out := userOrdersResponse{
		Orders:     make([]orderResponse, 0, len(page.Orders)),
		Limits:     page.Page.Limit,
		Pages:      page.Page.Number,
		TotalDoc:   page.TotalDocs,
		Pending:    page.Summary[domorder.StatusPending].Count,
		Processing: page.Summary[domorder.StatusProcessing].Count,
		Delivered:  page.Summary[domorder.StatusDelivered].Count,
		Cancelled:  page.Summary[domorder.StatusCancelled].Count,
		Summary:    make(map[string]statusSummaryDTO, len(domorder.Statuses)),
	}
	for _, o := range page.Orders {
		out.Orders = append(out.Orders, newOrderResponse(o))
	}
	for _, st := range domorder.Statuses {
		s := page.Summary[st]
		out.Summary[string(st)] = statusSummaryDTO{Count: s.Count, Amount: dompay.FromMinorUnits(s.Amount, currency)}
	}
	return out
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type paymentIntentRequest struct {
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	PaymentIntentID string          `json:"paymentIntentId"`
}

type paymentIntentResponse struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	ClientSecret string          `json:"client_secret"`
	Created      bool            `json:"created"`
}

func newPaymentIntentResponse(in *dompay.Intent, created bool) paymentIntentResponse {
	return paymentIntentResponse{
		ID:           in.ID,
		Amount:       dompay.FromMinorUnits(in.Amount, in.Currency),
		Currency:     in.Currency,
		Status:       string(in.Status),
		ClientSecret: in.ClientSecret,
		Created:      created,
	}
}

type errorResponse struct {
	Message string `json:"message"`
}
