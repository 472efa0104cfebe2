package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestProductValidateInvariants(t *testing.T) {
	cases := []struct {
		name    string
		product domain.Product
		wantErr bool
	}{
		{
			name:    "valid",
			product: domain.Product{Name: "Keyboard", PriceMinor: 4990, Stock: 10},
		},
		{
			name:    "free product is valid",
			product: domain.Product{Name: "Sticker", PriceMinor: 0, Stock: 100},
		},
		{
			name:    "empty name",
			product: domain.Product{PriceMinor: 100, Stock: 1},
			wantErr: true,
		},
		{
			name:    "negative price",
			product: domain.Product{Name: "Keyboard", PriceMinor: -1, Stock: 1},
			wantErr: true,
		},
		{
			name:    "negative stock",
			product: domain.Product{Name: "Keyboard", PriceMinor: 100, Stock: -1},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.product.ValidateInvariants()
			if tc.wantErr && len(errs) == 0 {
				t.Fatal("expected validation errors, got none")
			}
			if !tc.wantErr && len(errs) != 0 {
				t.Fatalf("expected no validation errors, got %v", errs)
			}
		})
	}
}
