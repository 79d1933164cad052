package model

import "github.com/shopspring/decimal"

// Package is a prepaid bundle of classes.
type Package struct {
	ID         uint64          // packages.package_id
	Name       string          // packages.package_name
	Price      decimal.Decimal // packages.price
	NumClasses int             // packages.num_classes
}

// MerchItem is a retail product sold at the studio.
type MerchItem struct {
	ID    uint64          // merch_items.merch_id
	Name  string          // merch_items.item_name
	Price decimal.Decimal // merch_items.price
}
