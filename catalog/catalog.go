// Package catalog is the read/write interface over the sweets, vendors and
// vendor_sweets tables.
package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/judyrop/sweets-catalog/logging"
	"github.com/judyrop/sweets-catalog/models"
)

// ErrNotFound is returned by lookups and deletes for ids that do not exist.
var ErrNotFound = errors.New("record not found")

type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateSweet(ctx context.Context, name *string) (*models.Sweet, error) {
	sweet := &models.Sweet{Name: name}
	if err := s.DB.WithContext(ctx).Create(sweet).Error; err != nil {
		return nil, err
	}
	return sweet, nil
}

func (s *Store) CreateVendor(ctx context.Context, name *string) (*models.Vendor, error) {
	vendor := &models.Vendor{Name: name}
	if err := s.DB.WithContext(ctx).Create(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

// CreateVendorSweet lists a sweet under a vendor at price. An invalid price
// is rejected with a *models.ValidationError before anything is written;
// a missing vendor or sweet surfaces as the driver's constraint error.
func (s *Store) CreateVendorSweet(ctx context.Context, vendorID, sweetID uint, price *int) (*models.VendorSweet, error) {
	if err := models.ValidatePrice(price); err != nil {
		return nil, err
	}
	vs := &models.VendorSweet{VendorID: vendorID, SweetID: sweetID, Price: price}
	if err := s.DB.WithContext(ctx).Create(vs).Error; err != nil {
		return nil, err
	}
	return s.GetVendorSweet(ctx, vs.ID)
}

func (s *Store) UpdateVendorSweetPrice(ctx context.Context, id uint, price *int) (*models.VendorSweet, error) {
	if err := models.ValidatePrice(price); err != nil {
		return nil, err
	}
	vs, err := s.GetVendorSweet(ctx, id)
	if err != nil {
		return nil, err
	}
	row := &models.VendorSweet{ID: vs.ID, Price: price}
	if err := s.DB.WithContext(ctx).Model(row).Update("price", *price).Error; err != nil {
		return nil, err
	}
	vs.Price = price
	return vs, nil
}

func (s *Store) GetSweet(ctx context.Context, id uint) (*models.Sweet, error) {
	var sweet models.Sweet
	err := s.DB.WithContext(ctx).
		Preload("VendorSweets", orderByID).
		Preload("VendorSweets.Vendor").
		First(&sweet, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sweet, nil
}

func (s *Store) GetVendor(ctx context.Context, id uint) (*models.Vendor, error) {
	var vendor models.Vendor
	err := s.DB.WithContext(ctx).
		Preload("VendorSweets", orderByID).
		Preload("VendorSweets.Sweet").
		First(&vendor, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &vendor, nil
}

func (s *Store) GetVendorSweet(ctx context.Context, id uint) (*models.VendorSweet, error) {
	var vs models.VendorSweet
	err := s.DB.WithContext(ctx).Preload("Vendor").Preload("Sweet").First(&vs, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &vs, nil
}

func (s *Store) ListSweets(ctx context.Context) ([]models.Sweet, error) {
	var sweets []models.Sweet
	if err := s.DB.WithContext(ctx).Order("id").Find(&sweets).Error; err != nil {
		return nil, err
	}
	return sweets, nil
}

func (s *Store) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	var vendors []models.Vendor
	if err := s.DB.WithContext(ctx).Order("id").Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

// SweetsForVendor returns the distinct sweets a vendor lists.
func (s *Store) SweetsForVendor(ctx context.Context, vendorID uint) ([]models.Sweet, error) {
	var sweets []models.Sweet
	err := s.DB.WithContext(ctx).
		Where("id IN (?)", s.DB.Model(&models.VendorSweet{}).Select("sweet_id").Where("vendor_id = ?", vendorID)).
		Order("id").
		Find(&sweets).Error
	if err != nil {
		return nil, err
	}
	return sweets, nil
}

// VendorsForSweet returns the distinct vendors listing a sweet.
func (s *Store) VendorsForSweet(ctx context.Context, sweetID uint) ([]models.Vendor, error) {
	var vendors []models.Vendor
	err := s.DB.WithContext(ctx).
		Where("id IN (?)", s.DB.Model(&models.VendorSweet{}).Select("vendor_id").Where("sweet_id = ?", sweetID)).
		Order("id").
		Find(&vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

func (s *Store) VendorSweetsForVendor(ctx context.Context, vendorID uint) ([]models.VendorSweet, error) {
	var rows []models.VendorSweet
	err := s.DB.WithContext(ctx).Preload("Sweet").Where("vendor_id = ?", vendorID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) VendorSweetsForSweet(ctx context.Context, sweetID uint) ([]models.VendorSweet, error) {
	var rows []models.VendorSweet
	err := s.DB.WithContext(ctx).Preload("Vendor").Where("sweet_id = ?", sweetID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteVendor removes the vendor and every vendor_sweets row naming it in
// one transaction. The foreign key cascade covers the same rows when the
// engine enforces it.
func (s *Store) DeleteVendor(ctx context.Context, id uint) error {
	return s.deleteWithListings(ctx, &models.Vendor{}, "vendor_id", id)
}

// DeleteSweet is DeleteVendor for sweets.
func (s *Store) DeleteSweet(ctx context.Context, id uint) error {
	return s.deleteWithListings(ctx, &models.Sweet{}, "sweet_id", id)
}

func (s *Store) DeleteVendorSweet(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.VendorSweet{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) deleteWithListings(ctx context.Context, target interface{}, column string, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listings := tx.Where(column+" = ?", id).Delete(&models.VendorSweet{})
		if listings.Error != nil {
			return listings.Error
		}
		res := tx.Delete(target, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		logging.Debug().
			Str("table", res.Statement.Table).
			Uint("id", id).
			Int64("vendor_sweets", listings.RowsAffected).
			Msg("deleted with listings")
		return nil
	})
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
