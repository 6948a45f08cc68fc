package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unit is the unit of measure a stock record is counted in.
type Unit string

const (
	UnitKg     Unit = "KG"
	UnitTonne  Unit = "TONNE"
	UnitSachet Unit = "SACHET"
	UnitBox    Unit = "BOX"
)

func ParseUnit(raw string) (Unit, error) {
	switch Unit(strings.ToUpper(strings.TrimSpace(raw))) {
	case UnitKg:
		return UnitKg, nil
	case UnitTonne:
		return UnitTonne, nil
	case UnitSachet:
		return UnitSachet, nil
	case UnitBox:
		return UnitBox, nil
	}
	return "", fmt.Errorf("unknown unit %q (expected KG, TONNE, SACHET or BOX)", raw)
}

// MovementReason tags every ledger entry with why the quantity changed.
type MovementReason string

const (
	ReasonSale         MovementReason = "SALE"
	ReasonRestore      MovementReason = "RESTORE"
	ReasonAdjustment   MovementReason = "ADJUSTMENT"
	ReasonModification MovementReason = "MODIFICATION"
)

func ParseMovementReason(raw string) (MovementReason, error) {
	switch MovementReason(strings.ToUpper(strings.TrimSpace(raw))) {
	case ReasonSale:
		return ReasonSale, nil
	case ReasonRestore:
		return ReasonRestore, nil
	case ReasonAdjustment:
		return ReasonAdjustment, nil
	case ReasonModification:
		return ReasonModification, nil
	}
	return "", fmt.Errorf("unknown movement reason %q", raw)
}

type PaymentMode string

const (
	PaymentCash    PaymentMode = "CASH"
	PaymentOM      PaymentMode = "OM"
	PaymentMomo    PaymentMode = "MOMO"
	PaymentPaycard PaymentMode = "PAYCARD"
)

func ParsePaymentMode(raw string) (PaymentMode, error) {
	switch PaymentMode(strings.ToUpper(strings.TrimSpace(raw))) {
	case PaymentCash:
		return PaymentCash, nil
	case PaymentOM:
		return PaymentOM, nil
	case PaymentMomo:
		return PaymentMomo, nil
	case PaymentPaycard:
		return PaymentPaycard, nil
	}
	return "", fmt.Errorf("unknown payment mode %q (expected CASH, OM, MOMO or PAYCARD)", raw)
}

type InvoiceStatus string

const (
	InvoicePaid    InvoiceStatus = "PAID"
	InvoicePending InvoiceStatus = "PENDING"
)

func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	switch InvoiceStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case InvoicePaid:
		return InvoicePaid, nil
	case InvoicePending:
		return InvoicePending, nil
	}
	return "", fmt.Errorf("unknown invoice status %q (expected PAID or PENDING)", raw)
}

// ProcessingStage tracks where a lot sits in the transformation pipeline.
type ProcessingStage string

const (
	StageFreezeDrying ProcessingStage = "FREEZE_DRYING"
	StagePackaging    ProcessingStage = "PACKAGING"
	StageStored       ProcessingStage = "STORED"
)

func ParseProcessingStage(raw string) (ProcessingStage, error) {
	switch ProcessingStage(strings.ToUpper(strings.TrimSpace(raw))) {
	case StageFreezeDrying:
		return StageFreezeDrying, nil
	case StagePackaging:
		return StagePackaging, nil
	case StageStored:
		return StageStored, nil
	}
	return "", fmt.Errorf("unknown processing stage %q", raw)
}

type Producer struct {
	ID        int64  `json:"id"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

type Plot struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	AreaHectares float64 `json:"area_hectares"`
	Address      string  `json:"address"`
	ProducerID   int64   `json:"producer_id"`
}

type Harvest struct {
	ID          int64     `json:"id"`
	Fruit       string    `json:"fruit"`
	Quantity    float64   `json:"quantity"`
	HarvestDate time.Time `json:"harvest_date"`
	ProducerID  int64     `json:"producer_id"`
	PlotID      int64     `json:"plot_id"`
}

type ProcessingLot struct {
	ID             int64           `json:"id"`
	LotCode        string          `json:"lot_code"`
	HarvestID      int64           `json:"harvest_id"`
	Stage          ProcessingStage `json:"stage"`
	InputQuantity  float64         `json:"input_quantity"`
	OutputQuantity float64         `json:"output_quantity"`
	StartedOn      time.Time       `json:"started_on"`
	EndedOn        time.Time       `json:"ended_on"`
}

// StockRecord holds the on-hand quantity of one processed product lot.
// QuantityAvailable is mutated only through the movement ledger.
type StockRecord struct {
	ID                int64     `json:"id"`
	LotID             int64     `json:"lot_id"`
	Product           string    `json:"product"`
	QuantityAvailable float64   `json:"quantity_available"`
	Unit              Unit      `json:"unit"`
	UpdatedOn         time.Time `json:"updated_on"`
}

// MovementEntry is one immutable, signed quantity change against a stock
// record. Negative change is an outflow, positive an inflow. Entries are
// never edited or deleted.
type MovementEntry struct {
	ID        int64          `json:"id"`
	StockID   int64          `json:"stock_id"`
	SaleID    *int64         `json:"sale_id,omitempty"`
	Change    float64        `json:"change"`
	Reason    MovementReason `json:"reason"`
	Note      string         `json:"note"`
	CreatedAt time.Time      `json:"created_at"`
}

type Client struct {
	ID        int64  `json:"id"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Email     string `json:"email"`
}

// Sale records what the customer ordered. QuantitySold is the requested
// quantity; the quantity actually taken from stock is recoverable from the
// movement ledger and may be smaller when a lenient sale was clipped.
type Sale struct {
	ID           int64           `json:"id"`
	ClientID     int64           `json:"client_id"`
	StockID      int64           `json:"stock_id"`
	QuantitySold float64         `json:"quantity_sold"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SaleDate     time.Time       `json:"sale_date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

type Invoice struct {
	ID            int64           `json:"id"`
	SaleID        int64           `json:"sale_id"`
	InvoiceNumber string          `json:"invoice_number"`
	IssuedOn      time.Time       `json:"issued_on"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMode   PaymentMode     `json:"payment_mode"`
	Status        InvoiceStatus   `json:"status"`
}

// SaleTotal computes the stored total for a sale, rounded to 2 decimal
// places. The total is persisted with the sale so historical amounts
// survive later price changes.
func SaleTotal(quantity float64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromFloat(quantity)).Round(2)
}
