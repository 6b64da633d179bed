package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

// ErrListingNotFound is returned when no listing has the requested id.
var ErrListingNotFound = errors.New("listing not found")

// ListingStore is the remote collection both backends implement.
type ListingStore interface {
	FetchAll(ctx context.Context, role models.Role) ([]models.Listing, error)
	FetchByOwner(ctx context.Context, role models.Role, ownerID string) ([]models.Listing, error)
	FetchByDistrict(ctx context.Context, role models.Role, district string) ([]models.Listing, error)
	FindByID(ctx context.Context, role models.Role, id string) (*models.Listing, error)
	Create(ctx context.Context, listing *models.Listing) error
}

var (
	_ ListingStore = (*ListingRepository)(nil)
	_ ListingStore = (*ListingMongoRepository)(nil)
)

const listingColumns = "id, role, owner_id, name, subject, phone_number, specific_location, province, district, photo_url, experience, grade, salary, teaching_hours, created_at"

type listingRow struct {
	ID               string     `db:"id"`
	Role             string     `db:"role"`
	OwnerID          string     `db:"owner_id"`
	Name             string     `db:"name"`
	Subject          string     `db:"subject"`
	PhoneNumber      string     `db:"phone_number"`
	SpecificLocation string     `db:"specific_location"`
	Province         string     `db:"province"`
	District         string     `db:"district"`
	PhotoURL         string     `db:"photo_url"`
	Experience       *int       `db:"experience"`
	Grade            *string    `db:"grade"`
	Salary           *float64   `db:"salary"`
	TeachingHours    *float64   `db:"teaching_hours"`
	CreatedAt        *time.Time `db:"created_at"`
}

// ListingRepository persists listings in PostgreSQL, one table shared by
// both roles.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository constructs a ListingRepository.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// FetchAll returns every listing of role.
func (r *ListingRepository) FetchAll(ctx context.Context, role models.Role) ([]models.Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE role = $1 ORDER BY created_at ASC, id ASC", listingColumns)
	return r.selectListings(ctx, "fetch all "+role.Plural(), query, string(role))
}

// FetchByOwner returns the listings of role created by ownerID.
func (r *ListingRepository) FetchByOwner(ctx context.Context, role models.Role, ownerID string) ([]models.Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE role = $1 AND owner_id = $2 ORDER BY created_at ASC, id ASC", listingColumns)
	return r.selectListings(ctx, "fetch "+role.Plural()+" by owner", query, string(role), ownerID)
}

// FetchByDistrict returns the listings of role located in district.
func (r *ListingRepository) FetchByDistrict(ctx context.Context, role models.Role, district string) ([]models.Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE role = $1 AND district = $2 ORDER BY created_at ASC, id ASC", listingColumns)
	return r.selectListings(ctx, "fetch "+role.Plural()+" by district", query, string(role), district)
}

// FindByID fetches a single listing of role.
func (r *ListingRepository) FindByID(ctx context.Context, role models.Role, id string) (*models.Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE role = $1 AND id = $2", listingColumns)
	var row listingRow
	if err := r.db.GetContext(ctx, &row, query, string(role), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("find %s: %w", role, err)
	}
	listing := row.toModel()
	return &listing, nil
}

// Create inserts listing, assigning its id and creation time.
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if err := listing.CheckShape(); err != nil {
		return err
	}
	listing.ID = uuid.NewString()
	now := time.Now().UTC()
	listing.CreatedAt = &now

	const query = `INSERT INTO listings (id, role, owner_id, name, subject, phone_number, specific_location, province, district, photo_url, experience, grade, salary, teaching_hours, created_at)
		VALUES (:id, :role, :owner_id, :name, :subject, :phone_number, :specific_location, :province, :district, :photo_url, :experience, :grade, :salary, :teaching_hours, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rowFromModel(*listing)); err != nil {
		return fmt.Errorf("create %s: %w", listing.Role, err)
	}
	return nil
}

func (r *ListingRepository) selectListings(ctx context.Context, op, query string, args ...interface{}) ([]models.Listing, error) {
	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]models.Listing, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (row listingRow) toModel() models.Listing {
	l := models.Listing{
		ID:               row.ID,
		OwnerID:          row.OwnerID,
		Role:             models.Role(row.Role),
		Name:             row.Name,
		Subject:          row.Subject,
		PhoneNumber:      row.PhoneNumber,
		SpecificLocation: row.SpecificLocation,
		Province:         row.Province,
		District:         row.District,
		PhotoURL:         row.PhotoURL,
		CreatedAt:        row.CreatedAt,
	}
	switch l.Role {
	case models.RoleTeacher:
		experience := 0
		if row.Experience != nil {
			experience = *row.Experience
		}
		l.Teacher = &models.TeacherDetails{Experience: experience}
	case models.RoleStudent:
		grade := ""
		if row.Grade != nil {
			grade = *row.Grade
		}
		l.Student = &models.StudentDetails{Grade: grade, Salary: row.Salary, TeachingHours: row.TeachingHours}
	}
	return l
}

func rowFromModel(l models.Listing) listingRow {
	row := listingRow{
		ID:               l.ID,
		Role:             string(l.Role),
		OwnerID:          l.OwnerID,
		Name:             l.Name,
		Subject:          l.Subject,
		PhoneNumber:      l.PhoneNumber,
		SpecificLocation: l.SpecificLocation,
		Province:         l.Province,
		District:         l.District,
		PhotoURL:         l.PhotoURL,
		CreatedAt:        l.CreatedAt,
	}
	if l.Teacher != nil {
		experience := l.Teacher.Experience
		row.Experience = &experience
	}
	if l.Student != nil {
		grade := l.Student.Grade
		row.Grade = &grade
		row.Salary = l.Student.Salary
		row.TeachingHours = l.Student.TeachingHours
	}
	return row
}
