package service

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/classmedia/pkg/internal/model"
)

// Ledger 维护 classes.storage_used，只使用单条原子 UPDATE，从不先读后写.
// 所有方法都要求调用方传入事务.
type Ledger struct{}

// Increment storage_used += bytes.
func (Ledger) Increment(tx *gorm.DB, classID string, bytes int64) error {
	if bytes < 0 {
		return invalid("bytes", "negative size")
	}

	// MySQL 对未改变的行返回 RowsAffected=0
	if bytes == 0 {
		return classExists(tx, classID)
	}

	res := tx.Model(&model.Class{}).
		Where("id = ?", classID).
		UpdateColumn("storage_used", gorm.Expr("storage_used + ?", bytes))
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return notFound("class", classID)
	}

	return nil
}

// Reserve 仅当 storage_used + bytes <= ceiling 时增加，否则返回 ErrQuotaExceeded.
// 并发上传在这里串行化，后到者失败.
func (Ledger) Reserve(tx *gorm.DB, classID string, bytes, ceiling int64) error {
	if bytes < 0 {
		return invalid("bytes", "negative size")
	}

	if bytes == 0 {
		return classExists(tx, classID)
	}

	res := tx.Model(&model.Class{}).
		Where("id = ? AND storage_used + ? <= ?", classID, bytes, ceiling).
		UpdateColumn("storage_used", gorm.Expr("storage_used + ?", bytes))
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		var used int64
		if err := tx.Model(&model.Class{}).Where("id = ?", classID).Pluck("storage_used", &used).Error; err != nil {
			return err
		}

		return &QuotaExceededError{Need: bytes, Remaining: max(ceiling-used, 0)}
	}

	return nil
}

// Decrement storage_used -= bytes，不足时返回 ErrLedgerDrift.
func (Ledger) Decrement(tx *gorm.DB, classID string, bytes int64) error {
	if bytes < 0 {
		return invalid("bytes", "negative size")
	}

	if bytes == 0 {
		return nil
	}

	res := tx.Model(&model.Class{}).
		Where("id = ? AND storage_used >= ?", classID, bytes).
		UpdateColumn("storage_used", gorm.Expr("storage_used - ?", bytes))
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: class %s cannot release %d bytes", ErrLedgerDrift, classID, bytes)
	}

	return nil
}

func classExists(tx *gorm.DB, classID string) error {
	var n int64
	if err := tx.Model(&model.Class{}).Where("id = ?", classID).Count(&n).Error; err != nil {
		return err
	}

	if n == 0 {
		return notFound("class", classID)
	}

	return nil
}
