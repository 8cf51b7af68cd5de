package models

import "github.com/shopspring/decimal"

func init() {
	// Prices leave the service as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a row of the producto table.
type Product struct {
	ID          int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	Nombre      string  `json:"nombre" gorm:"column:nombre;type:varchar(255);not null;uniqueIndex"`
	Precio      Price   `json:"precio" gorm:"column:precio;not null"`
	Descripcion *string `json:"descripcion" gorm:"column:descripcion;type:text"`
}

// TableName pins the table name; GORM would otherwise pluralise it.
func (Product) TableName() string {
	return "producto"
}

// ProductRequest is the payload accepted when creating a product.
type ProductRequest struct {
	Nombre      string           `json:"nombre" validate:"notblank,max=255"`
	Precio      *decimal.Decimal `json:"precio" validate:"required,decimal_min=0.01,decimal_max=99999999999999999.99,decimal_scale=2"`
	Descripcion *string          `json:"descripcion"`
}
