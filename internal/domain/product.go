package domain

import "time"

// Product — товар каталога. Stock мутируется только через InventoryLedger;
// прямые записи в поле за пределами транзакции checkout запрещены.
type Product struct {
	ID          string
	Name        string
	Description string
	// PriceMinor — цена в минимальных денежных единицах (например, копейки).
	PriceMinor int64
	Stock      int32
	ImageURL   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateInvariants проверяет инварианты товара.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrProductNameEmpty)
	}
	if p.PriceMinor < 0 {
		errs = append(errs, ErrPriceNegative)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrStockNegative)
	}

	return errs
}
