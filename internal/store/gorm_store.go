package store

import (
	"context"
	"errors"

	"github.com/campuscare/backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// GormStore implements Store on top of a shared *gorm.DB pool.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// translate maps driver and gorm errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return true
	}
	return false
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Users

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (s *GormStore) FindDepartmentUser(ctx context.Context, department string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND department = ?", models.RoleDepartment, department).
		Order("id").
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error
	return count, translate(err)
}

func (s *GormStore) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.Complaint{}).Select("id").Where("student_id = ?", id)
		if err := tx.Where("user_id = ? OR complaint_id IN (?)", id, owned).Delete(&models.Upvote{}).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("student_id = ?", id).Delete(&models.Complaint{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Complaints

func (s *GormStore) CreateComplaint(ctx context.Context, complaint *models.Complaint) error {
	return translate(s.db.WithContext(ctx).Omit("Student").Create(complaint).Error)
}

func (s *GormStore) GetComplaint(ctx context.Context, id uint) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := s.db.WithContext(ctx).Preload("Student").First(&complaint, id).Error; err != nil {
		return nil, translate(err)
	}
	return &complaint, nil
}

func (s *GormStore) ListComplaints(ctx context.Context, filter ComplaintFilter) ([]models.Complaint, error) {
	query := s.db.WithContext(ctx).Preload("Student")
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Department != nil {
		query = query.Where("department = ?", *filter.Department)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var complaints []models.Complaint
	if err := query.Order("created_at DESC").Find(&complaints).Error; err != nil {
		return nil, translate(err)
	}
	return complaints, nil
}

func (s *GormStore) UpdateComplaintStatus(ctx context.Context, id uint, from models.ComplaintStatus, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).
		Model(&models.Complaint{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (s *GormStore) DeleteComplaint(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("complaint_id = ?", id).Delete(&models.Upvote{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&models.Complaint{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) CountByStatus(ctx context.Context) (map[models.ComplaintStatus]int64, error) {
	var rows []struct {
		Status models.ComplaintStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Complaint{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	counts := make(map[models.ComplaintStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *GormStore) CountByDepartment(ctx context.Context) ([]DepartmentCount, error) {
	var rows []DepartmentCount
	err := s.db.WithContext(ctx).
		Model(&models.Complaint{}).
		Select("department AS name, COUNT(*) AS count").
		Where("department IS NOT NULL AND department <> ''").
		Group("department").
		Order("department").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// Upvotes

func (s *GormStore) FindUpvote(ctx context.Context, userID, complaintID uint) (*models.Upvote, error) {
	var upvote models.Upvote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND complaint_id = ?", userID, complaintID).
		First(&upvote).Error
	if err != nil {
		return nil, translate(err)
	}
	return &upvote, nil
}

func (s *GormStore) CreateUpvote(ctx context.Context, upvote *models.Upvote) error {
	return translate(s.db.WithContext(ctx).Omit("User").Create(upvote).Error)
}

func (s *GormStore) DeleteUpvote(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Upvote{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) UpvoteSummaries(ctx context.Context, complaintIDs []uint, viewerID uint) (map[uint]UpvoteSummary, error) {
	summaries := make(map[uint]UpvoteSummary, len(complaintIDs))
	if len(complaintIDs) == 0 {
		return summaries, nil
	}

	var rows []struct {
		ComplaintID uint
		Total       int64
		Mine        int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Upvote{}).
		Select("complaint_id, COUNT(*) AS total, SUM(CASE WHEN user_id = ? THEN 1 ELSE 0 END) AS mine", viewerID).
		Where("complaint_id IN ?", complaintIDs).
		Group("complaint_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	for _, r := range rows {
		summaries[r.ComplaintID] = UpvoteSummary{Count: r.Total, HasUpvoted: r.Mine > 0}
	}
	return summaries, nil
}

var _ Store = (*GormStore)(nil)
