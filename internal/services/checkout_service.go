package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// TaxRate is the flat sales tax applied to every checkout (10%).
// Not adjustable per sale.
var TaxRate = decimal.New(10, -2)

// Payment method constants.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
)

// Sale status constants.
const (
	SaleStatusPending   = "pending"
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

// CartLineRequest is one proposed purchase line. UnitPrice comes from the
// caller, not the product's list price, so the register can override prices;
// the caller is responsible for supplying a valid one.
type CartLineRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CheckoutRequest is the full input of one checkout call. UserID is filled
// from the authenticated context, never from the request body.
type CheckoutRequest struct {
	Items         []CartLineRequest `json:"items" binding:"required,min=1,dive"`
	CashReceived  decimal.Decimal   `json:"cash_received"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	Notes         *string           `json:"notes"`
	UserID        int64             `json:"-"`
}

// CheckoutService converts a proposed cart into a committed sale with its
// line items and stock decrements, or rejects the whole operation with no
// partial effects.
type CheckoutService interface {
	Checkout(req CheckoutRequest) (*models.Sale, error)
	GetReceipt(saleID int64) (*models.Sale, error)
}

type checkoutService struct {
	productRepo repositories.ProductRepository
	saleRepo    repositories.SaleRepository
	db          *sql.DB // For managing transactions
	maxRetries  int     // Bounded retries on ErrConcurrency
}

// NewCheckoutService creates a new instance of CheckoutService. maxRetries
// bounds how often a conflicted checkout is retried before the error is
// surfaced; values below zero are treated as zero.
func NewCheckoutService(pr repositories.ProductRepository, sr repositories.SaleRepository, db *sql.DB, maxRetries int) CheckoutService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &checkoutService{
		productRepo: pr,
		saleRepo:    sr,
		db:          db,
		maxRetries:  maxRetries,
	}
}

func (s *checkoutService) Checkout(req CheckoutRequest) (*models.Sale, error) {
	if err := validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	var saleID int64
	var err error
	for attempt := 0; ; attempt++ {
		saleID, err = s.runCheckout(req)
		if err == nil || !errors.Is(err, ErrConcurrency) || attempt >= s.maxRetries {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return s.GetReceipt(saleID)
}

// runCheckout executes one attempt of the checkout unit of work. Either all
// of {stock validation, sale insert, sale item inserts, stock decrements}
// commit, or the transaction rolls back and nothing survives.
func (s *checkoutService) runCheckout(req CheckoutRequest) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to start checkout transaction: %v", ErrPersistence, err)
	}
	defer tx.Rollback()

	now := time.Now()
	subtotal := decimal.Zero
	itemsToCreate := make([]models.SaleItem, 0, len(req.Items))

	for _, line := range req.Items {
		product, repoErr := s.productRepo.GetProductForUpdate(tx, line.ProductID)
		if repoErr != nil {
			if errors.Is(repoErr, repositories.ErrNotFound) {
				return 0, fmt.Errorf("%w: product ID %d does not exist", ErrStock, line.ProductID)
			}
			return 0, fmt.Errorf("%w: reading product %d: %v", ErrPersistence, line.ProductID, repoErr)
		}
		if !product.IsActive {
			return 0, fmt.Errorf("%w: product %s (ID: %d) is inactive", ErrStock, product.Name, product.ID)
		}
		if product.Stock < line.Quantity {
			return 0, fmt.Errorf("%w: product %s (ID: %d). Requested: %d, Available: %d",
				ErrStock, product.Name, product.ID, line.Quantity, product.Stock)
		}

		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)

		itemsToCreate = append(itemsToCreate, models.SaleItem{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: lineTotal,
			CreatedAt:  now,
		})
	}

	subtotal = subtotal.Round(2)
	taxAmount := subtotal.Mul(TaxRate).Round(2)
	discountAmount := decimal.Zero // No discount input at submission time.
	totalAmount := subtotal.Add(taxAmount).Sub(discountAmount)
	changeAmount := req.CashReceived.Sub(totalAmount)
	if changeAmount.IsNegative() {
		return 0, fmt.Errorf("%w: total due %s, received %s", ErrInsufficientCash, totalAmount, req.CashReceived)
	}

	seq, repoErr := s.saleRepo.NextInvoiceSequence(tx, now)
	if repoErr != nil {
		return 0, fmt.Errorf("%w: generating invoice number: %v", ErrPersistence, repoErr)
	}

	sale := models.Sale{
		InvoiceNumber:  formatInvoiceNumber(now, seq),
		UserID:         req.UserID,
		Subtotal:       subtotal,
		TaxAmount:      taxAmount,
		DiscountAmount: discountAmount,
		TotalAmount:    totalAmount,
		CashReceived:   req.CashReceived,
		ChangeAmount:   changeAmount,
		PaymentMethod:  req.PaymentMethod,
		Status:         SaleStatusCompleted,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	saleID, repoErr := s.saleRepo.CreateSale(tx, &sale)
	if repoErr != nil {
		if errors.Is(repoErr, repositories.ErrDuplicateKey) {
			// Another checkout took the same invoice number; retryable.
			return 0, fmt.Errorf("%w: invoice number collision: %v", ErrConcurrency, repoErr)
		}
		return 0, fmt.Errorf("%w: creating sale record: %v", ErrPersistence, repoErr)
	}

	for i := range itemsToCreate {
		itemsToCreate[i].SaleID = saleID
		if _, repoErr = s.saleRepo.CreateSaleItem(tx, &itemsToCreate[i]); repoErr != nil {
			return 0, fmt.Errorf("%w: creating sale item (product_id: %d): %v", ErrPersistence, itemsToCreate[i].ProductID, repoErr)
		}
		if _, repoErr = s.productRepo.DecrementStock(tx, itemsToCreate[i].ProductID, itemsToCreate[i].Quantity); repoErr != nil {
			if errors.Is(repoErr, repositories.ErrInsufficientStock) {
				// Validated under the row lock above, so a short decrement
				// means the lock was lost; retry the whole call.
				return 0, fmt.Errorf("%w: stock moved during checkout: %v", ErrConcurrency, repoErr)
			}
			return 0, fmt.Errorf("%w: decrementing stock (product_id: %d): %v", ErrPersistence, itemsToCreate[i].ProductID, repoErr)
		}
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return 0, fmt.Errorf("%w: commit conflict: %v", ErrConcurrency, err)
		}
		return 0, fmt.Errorf("%w: failed to commit checkout transaction: %v", ErrPersistence, err)
	}
	return saleID, nil
}

// GetReceipt loads a committed sale with its line items and operator for
// receipt rendering.
func (s *checkoutService) GetReceipt(saleID int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleByID(saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("%w: loading sale %d: %v", ErrPersistence, saleID, err)
	}
	items, err := s.saleRepo.GetSaleItemsBySaleID(saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading sale items for sale %d: %v", ErrPersistence, saleID, err)
	}
	sale.SaleItems = items
	return sale, nil
}

func validateCheckoutRequest(req CheckoutRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: cart must contain at least one item", ErrValidation)
	}
	if !isValidPaymentMethod(req.PaymentMethod) {
		return fmt.Errorf("%w: unknown payment method '%s'", ErrValidation, req.PaymentMethod)
	}
	if req.CashReceived.IsNegative() {
		return fmt.Errorf("%w: cash received cannot be negative", ErrValidation)
	}
	if req.UserID <= 0 {
		return fmt.Errorf("%w: missing operator identity", ErrValidation)
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity for product ID %d must be positive", ErrValidation, line.ProductID)
		}
		if line.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: unit price for product ID %d cannot be negative", ErrValidation, line.ProductID)
		}
	}
	return nil
}

func isValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	default:
		return false
	}
}

// formatInvoiceNumber renders INV + YYYYMMDD + zero-padded 4-digit sequence.
func formatInvoiceNumber(day time.Time, seq int) string {
	return fmt.Sprintf("INV%s%04d", day.Format("20060102"), seq)
}

// isSerializationFailure reports whether a commit failed because of a
// serialization conflict or deadlock, both of which are safe to retry.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
