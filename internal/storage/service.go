package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"blockfix/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// perfCacheTTL bounds staleness if an invalidation is ever missed.
const perfCacheTTL = 10 * time.Minute

// Service is the PostgreSQL+Redis implementation of Storage.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// Transact runs fn against a Service bound to a database transaction. Nested
// balance mutations become savepoints inside the same transaction.
func (s *Service) Transact(fn func(Storage) error) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&Service{DB: tx, Redis: s.Redis, Ctx: s.Ctx})
	})
}

func (s *Service) CreateAccount(account *models.Account) error {
	return s.DB.Create(account).Error
}

func (s *Service) GetAccountByID(id string) (*models.Account, error) {
	var account models.Account
	err := s.DB.First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Service) GetAccountByEmail(email string) (*models.Account, error) {
	var account models.Account
	err := s.DB.First(&account, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Service) GetAccountsByRole(role models.Role) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.DB.Where("role = ?", role).Order("created_at asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Service) UpdateAccount(account *models.Account) error {
	return s.DB.Save(account).Error
}

// AdjustReputation applies a clamped delta to the reputation column without
// touching the rest of the row.
func (s *Service) AdjustReputation(accountID string, delta, min, max int) error {
	result := s.DB.Model(&models.Account{}).Where("id = ?", accountID).
		Update("reputation_score", gorm.Expr("LEAST(?, GREATEST(?, reputation_score + ?))", max, min, delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddRewardPoints increments the points column and returns the new total.
func (s *Service) AddRewardPoints(accountID string, points int) (int, error) {
	result := s.DB.Model(&models.Account{}).Where("id = ?", accountID).
		Update("reward_points", gorm.Expr("reward_points + ?", points))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	var total int
	err := s.DB.Model(&models.Account{}).Where("id = ?", accountID).
		Select("reward_points").Scan(&total).Error
	return total, err
}

// GrantBadge appends the badge in a single guarded UPDATE so a concurrent
// grant cannot duplicate it.
func (s *Service) GrantBadge(accountID, badge string, minPoints int) (bool, error) {
	result := s.DB.Model(&models.Account{}).
		Where("id = ? AND reward_points >= ? AND NOT (? = ANY(COALESCE(badges, '{}')))", accountID, minPoints, badge).
		Update("badges", gorm.Expr("array_append(COALESCE(badges, '{}'), ?)", badge))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *Service) CreateComplaint(complaint *models.Complaint) error {
	if err := s.DB.Create(complaint).Error; err != nil {
		log.Printf("ERROR: Failed to create complaint %q: %v", complaint.Title, err)
		return err
	}
	return nil
}

func (s *Service) GetComplaintByID(id string) (*models.Complaint, error) {
	var complaint models.Complaint
	err := s.DB.Preload("Ratings").First(&complaint, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (s *Service) UpdateComplaint(complaint *models.Complaint) error {
	// Ratings rows are written through SaveRating, not through the parent.
	return s.DB.Omit("Ratings").Save(complaint).Error
}

func (s *Service) ListComplaints() ([]models.Complaint, error) {
	var complaints []models.Complaint
	if err := s.DB.Preload("Ratings").Order("created_at asc").Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

func (s *Service) ListComplaintsByStudent(studentID string) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := s.DB.Preload("Ratings").Where("student_id = ?", studentID).
		Order("created_at asc").Find(&complaints).Error
	if err != nil {
		return nil, err
	}
	return complaints, nil
}

func (s *Service) ListComplaintsByVendor(vendorID string) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := s.DB.Preload("Ratings").Where("assigned_vendor_id = ?", vendorID).
		Order("created_at asc").Find(&complaints).Error
	if err != nil {
		return nil, err
	}
	return complaints, nil
}

func (s *Service) ListComplaintsByCategory(category models.Category) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := s.DB.Preload("Ratings").Where("category = ?", category).
		Order("created_at asc").Find(&complaints).Error
	if err != nil {
		return nil, err
	}
	return complaints, nil
}

// SaveRating upserts the (complaint, student) rating row.
func (s *Service) SaveRating(rating *models.Rating) error {
	var existing models.Rating
	err := s.DB.Where("complaint_id = ? AND student_id = ?", rating.ComplaintID, rating.StudentID).
		First(&existing).Error
	if err == nil {
		rating.ID = existing.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.DB.Save(rating).Error
}

func (s *Service) AppendLedgerEntry(entry *models.LedgerEntry) error {
	if err := s.DB.Create(entry).Error; err != nil {
		log.Printf("ERROR: Failed to append ledger entry for complaint %s: %v", entry.ComplaintID, err)
		return err
	}
	return nil
}

// DebitAccount decrements the balance and appends the entry in one database
// transaction. A crash between the two must not be observable.
func (s *Service) DebitAccount(accountID string, amount int64, entry *models.LedgerEntry) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.First(&account, "id = ?", accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if account.Balance < amount {
			return ErrInsufficientBalance
		}
		if err := tx.Model(&models.Account{}).Where("id = ?", accountID).
			Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

// CreditAccount increments the balance and appends the entry in one database
// transaction.
func (s *Service) CreditAccount(accountID string, amount int64, entry *models.LedgerEntry) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Account{}).Where("id = ?", accountID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(entry).Error
	})
}

func (s *Service) LedgerEntriesByComplaint(complaintID string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.DB.Where("complaint_id = ?", complaintID).Order("created_at asc").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) LedgerEntriesByAccount(accountID string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.DB.Where("source = ? OR destination = ?", accountID, accountID).
		Order("created_at asc").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// PoolTotal replays the ledger for a pool: inflow minus outflow.
func (s *Service) PoolTotal(pool string) (int64, error) {
	var in, out int64
	err := s.DB.Model(&models.LedgerEntry{}).Where("destination = ?", pool).
		Select("COALESCE(SUM(amount), 0)").Scan(&in).Error
	if err != nil {
		return 0, err
	}
	err = s.DB.Model(&models.LedgerEntry{}).Where("source = ?", pool).
		Select("COALESCE(SUM(amount), 0)").Scan(&out).Error
	if err != nil {
		return 0, err
	}
	return in - out, nil
}

// CachePerformance stores a vendor performance snapshot in Redis.
func (s *Service) CachePerformance(vendorID string, payload []byte) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Set(s.Ctx, "perf:"+vendorID, payload, perfCacheTTL).Err()
}

// CachedPerformance returns the cached snapshot, or nil on a miss.
func (s *Service) CachedPerformance(vendorID string) ([]byte, error) {
	if s.Redis == nil {
		return nil, nil
	}
	payload, err := s.Redis.Get(s.Ctx, "perf:"+vendorID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// InvalidatePerformance drops the cached snapshot after a vendor-affecting
// mutation.
func (s *Service) InvalidatePerformance(vendorID string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(s.Ctx, "perf:"+vendorID).Err()
}
