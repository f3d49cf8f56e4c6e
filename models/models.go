package models

import (
	"fmt"

	"gorm.io/gorm"
)

type Sweet struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Name         *string       `json:"name"`
	VendorSweets []VendorSweet `gorm:"foreignKey:SweetID;constraint:OnDelete:CASCADE" json:"-"`
}

type Vendor struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Name         *string       `json:"name"`
	VendorSweets []VendorSweet `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE" json:"-"`
}

// VendorSweet is one price listing of a sweet by a vendor. The same pair may
// be listed more than once.
type VendorSweet struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Price    *int    `gorm:"not null;check:chk_vendor_sweets_price,price >= 0" json:"price"`
	VendorID uint    `gorm:"not null;index" json:"vendor_id"`
	Vendor   *Vendor `gorm:"constraint:OnDelete:CASCADE" json:"vendor,omitempty"`
	SweetID  uint    `gorm:"not null;index" json:"sweet_id"`
	Sweet    *Sweet  `gorm:"constraint:OnDelete:CASCADE" json:"sweet,omitempty"`
}

func (Sweet) TableName() string       { return "sweets" }
func (Vendor) TableName() string      { return "vendors" }
func (VendorSweet) TableName() string { return "vendor_sweets" }

// All lists the catalog models in migration order.
func All() []interface{} {
	return []interface{}{&Sweet{}, &Vendor{}, &VendorSweet{}}
}

func (vs *VendorSweet) Validate() error {
	return ValidatePrice(vs.Price)
}

func (vs *VendorSweet) BeforeCreate(tx *gorm.DB) error {
	return vs.Validate()
}

// BeforeUpdate checks the price being written, which for Update/Updates is
// in Statement.Dest rather than on the model.
func (vs *VendorSweet) BeforeUpdate(tx *gorm.DB) error {
	switch dest := tx.Statement.Dest.(type) {
	case map[string]interface{}:
		for _, key := range []string{"price", "Price"} {
			if v, ok := dest[key]; ok {
				price, ok := priceValue(v)
				if !ok {
					// expressions are left to the check constraint
					return nil
				}
				return ValidatePrice(price)
			}
		}
		return nil
	case *VendorSweet:
		if dest.Price != nil || selectsPrice(tx) {
			return dest.Validate()
		}
		return nil
	case VendorSweet:
		if dest.Price != nil || selectsPrice(tx) {
			return dest.Validate()
		}
		return nil
	}
	return nil
}

// ToDict returns the sweet's own columns only.
func (s Sweet) ToDict() map[string]interface{} {
	return map[string]interface{}{
		"id":   s.ID,
		"name": nameValue(s.Name),
	}
}

// ToDict returns the vendor's own columns only.
func (v Vendor) ToDict() map[string]interface{} {
	return map[string]interface{}{
		"id":   v.ID,
		"name": nameValue(v.Name),
	}
}

// ToDict includes the loaded vendor and sweet one level deep.
func (vs VendorSweet) ToDict() map[string]interface{} {
	var price interface{}
	if vs.Price != nil {
		price = *vs.Price
	}
	d := map[string]interface{}{
		"id":        vs.ID,
		"price":     price,
		"vendor_id": vs.VendorID,
		"sweet_id":  vs.SweetID,
	}
	if vs.Vendor != nil {
		d["vendor"] = vs.Vendor.ToDict()
	}
	if vs.Sweet != nil {
		d["sweet"] = vs.Sweet.ToDict()
	}
	return d
}

// Vendors projects the loaded VendorSweets onto their vendors, first
// occurrence wins.
func (s Sweet) Vendors() []Vendor {
	seen := make(map[uint]bool)
	var vendors []Vendor
	for _, vs := range s.VendorSweets {
		if vs.Vendor == nil || seen[vs.Vendor.ID] {
			continue
		}
		seen[vs.Vendor.ID] = true
		vendors = append(vendors, *vs.Vendor)
	}
	return vendors
}

// Sweets projects the loaded VendorSweets onto their sweets, first
// occurrence wins.
func (v Vendor) Sweets() []Sweet {
	seen := make(map[uint]bool)
	var sweets []Sweet
	for _, vs := range v.VendorSweets {
		if vs.Sweet == nil || seen[vs.Sweet.ID] {
			continue
		}
		seen[vs.Sweet.ID] = true
		sweets = append(sweets, *vs.Sweet)
	}
	return sweets
}

// String renders missing names, endpoints and prices as <nil>.
func (s Sweet) String() string {
	return fmt.Sprintf("<Sweet %d - %v>", s.ID, nameValue(s.Name))
}

func (v Vendor) String() string {
	return fmt.Sprintf("<Vendor %d - %v>", v.ID, nameValue(v.Name))
}

func (vs VendorSweet) String() string {
	var vendor, sweet, price interface{}
	if vs.Vendor != nil {
		vendor = nameValue(vs.Vendor.Name)
	}
	if vs.Sweet != nil {
		sweet = nameValue(vs.Sweet.Name)
	}
	if vs.Price != nil {
		price = *vs.Price
	}
	return fmt.Sprintf("<VendorSweet %d - Vendor: %v, Sweet: %v, Price: %v>", vs.ID, vendor, sweet, price)
}

// selectsPrice reports whether a struct update writes price even when nil,
// as Save does through Select("*").
func selectsPrice(tx *gorm.DB) bool {
	for _, column := range tx.Statement.Selects {
		if column == "*" || column == "price" || column == "Price" {
			return true
		}
	}
	return false
}

func priceValue(v interface{}) (*int, bool) {
	switch p := v.(type) {
	case nil:
		return nil, true
	case *int:
		return p, true
	case int:
		return &p, true
	case int32:
		n := int(p)
		return &n, true
	case int64:
		n := int(p)
		return &n, true
	case uint:
		n := int(p)
		return &n, true
	}
	return nil, false
}

func nameValue(name *string) interface{} {
	if name == nil {
		return nil
	}
	return *name
}
