package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/listing"
	"github.com/noah-isme/tutor-match-api/internal/location"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/internal/repository"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/media"
	"github.com/noah-isme/tutor-match-api/pkg/validation"
)

type listingStore interface {
	FetchByOwner(ctx context.Context, role models.Role, ownerID string) ([]models.Listing, error)
	FetchByDistrict(ctx context.Context, role models.Role, district string) ([]models.Listing, error)
	FindByID(ctx context.Context, role models.Role, id string) (*models.Listing, error)
	Create(ctx context.Context, listing *models.Listing) error
}

type snapshotSource interface {
	FetchAll(ctx context.Context, role models.Role) ([]models.Listing, error)
	Reload(ctx context.Context, role models.Role) ([]models.Listing, error)
	Invalidate(ctx context.Context, role models.Role) error
}

type warmupScheduler interface {
	Schedule(role models.Role) error
}

// NumericInput is a form number that may arrive as a JSON string or number.
type NumericInput string

// UnmarshalJSON accepts "12", 12 and null.
func (n *NumericInput) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericInput(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected a number: %w", err)
	}
	*n = NumericInput(num.String())
	return nil
}

// CreateTeacherRequest represents payload for creating teacher listings.
type CreateTeacherRequest struct {
	Name             string       `json:"name" form:"name" validate:"required,max=120"`
	Subject          string       `json:"subject" form:"subject" validate:"required,max=120"`
	PhoneNumber      string       `json:"phoneNumber" form:"phoneNumber" validate:"required,phone"`
	Experience       NumericInput `json:"experience" form:"experience" validate:"required,number"`
	Province         string       `json:"province" form:"province" validate:"required"`
	District         string       `json:"district" form:"district" validate:"required"`
	SpecificLocation string       `json:"specificLocation" form:"specificLocation" validate:"max=200"`
	PhotoURL         string       `json:"photoUrl" form:"photoUrl" validate:"omitempty,url"`
}

// CreateStudentRequest represents payload for creating student listings.
type CreateStudentRequest struct {
	Name             string       `json:"name" form:"name" validate:"required,max=120"`
	Grade            string       `json:"grade" form:"grade" validate:"required,max=40"`
	Subject          string       `json:"subject" form:"subject" validate:"required,max=120"`
	PhoneNumber      string       `json:"phoneNumber" form:"phoneNumber" validate:"required,phone"`
	Province         string       `json:"province" form:"province" validate:"required"`
	District         string       `json:"district" form:"district" validate:"required"`
	SpecificLocation string       `json:"specificLocation" form:"specificLocation" validate:"max=200"`
	Salary           NumericInput `json:"salary" form:"salary" validate:"omitempty,numeric"`
	TeachingHours    NumericInput `json:"teachingHours" form:"teachingHours" validate:"omitempty,numeric"`
	PhotoURL         string       `json:"photoUrl" form:"photoUrl" validate:"omitempty,url"`
}

// PhotoUpload is an optional photo attached to a create request.
type PhotoUpload struct {
	Filename string
	Reader   io.Reader
}

// ListingConfig tunes listing operations.
type ListingConfig struct {
	FetchTimeout     time.Duration
	MaxPhotoBytes    int64
	AllowedPhotoMIME []string
}

// ListingService orchestrates browse, detail and create flows for both roles.
type ListingService struct {
	store     listingStore
	snapshots snapshotSource
	warmer    warmupScheduler
	uploader  media.Uploader
	lookup    *location.Lookup
	validator *validation.Validator
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ListingConfig
}

// NewListingService constructs a ListingService. warmer and uploader may be
// nil; without an uploader photo files are rejected.
func NewListingService(store listingStore, snapshots snapshotSource, warmer warmupScheduler, uploader media.Uploader, lookup *location.Lookup, validate *validation.Validator, metrics *MetricsService, cfg ListingConfig, logger *zap.Logger) *ListingService {
	if validate == nil {
		validate = validation.New()
	}
	if lookup == nil {
		lookup = location.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{
		store:     store,
		snapshots: snapshots,
		warmer:    warmer,
		uploader:  uploader,
		lookup:    lookup,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Browse loads the snapshot of q.Role and derives the filtered, optionally
// sorted view. A failed fetch yields an empty view with status unavailable.
func (s *ListingService) Browse(ctx context.Context, q models.BrowseQuery) (*models.BrowseResult, error) {
	if !q.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	ctrl := s.newController(q, listing.ReaderFunc(s.snapshots.FetchAll))
	defer ctrl.Close()

	if err := ctrl.Load(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listings")
	}
	return browseResult(q.Role, ctrl), nil
}

// Refresh re-reads q.Role from the store, bypassing the cache. Refreshes
// of the same role that overlap share one store read.
func (s *ListingService) Refresh(ctx context.Context, q models.BrowseQuery) (*models.BrowseResult, error) {
	if !q.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	ctrl := s.newController(q, listing.ReaderFunc(s.snapshots.Reload))
	defer ctrl.Close()

	if err := ctrl.Refresh(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh listings")
	}
	return browseResult(q.Role, ctrl), nil
}

// Get returns a single listing with its contact link.
func (s *ListingService) Get(ctx context.Context, role models.Role, id string) (*models.ListingDetail, error) {
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	found, err := s.store.FindByID(ctx, role, strings.TrimSpace(id))
	s.metrics.ObserveStoreFetch(role, "find_by_id", time.Since(start), ignoreNotFound(err))
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", role))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, fmt.Sprintf("failed to load %s", role))
	}
	return &models.ListingDetail{Listing: *found, ContactURL: found.ContactURL()}, nil
}

// ListByDistrict asks the store for one district directly.
func (s *ListingService) ListByDistrict(ctx context.Context, role models.Role, district string, sortNewest bool) ([]models.Listing, error) {
	district = strings.TrimSpace(district)
	if district == "" {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "district is required", map[string]string{"district": "District is required"})
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	records, err := s.store.FetchByDistrict(ctx, role, district)
	s.metrics.ObserveStoreFetch(role, "fetch_by_district", time.Since(start), err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, fmt.Sprintf("failed to load %s", role.Plural()))
	}
	return listing.DeriveView(records, "", sortNewest), nil
}

// ListMine returns the listings of role created by user.
func (s *ListingService) ListMine(ctx context.Context, role models.Role, user *models.CurrentUser) ([]models.Listing, error) {
	if user == nil || user.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "sign in to see your listings")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	records, err := s.store.FetchByOwner(ctx, role, user.ID)
	s.metrics.ObserveStoreFetch(role, "fetch_by_owner", time.Since(start), err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, fmt.Sprintf("failed to load %s", role.Plural()))
	}
	return listing.DeriveView(records, "", false), nil
}

// CreateTeacher validates and writes a teacher listing owned by user.
func (s *ListingService) CreateTeacher(ctx context.Context, user *models.CurrentUser, req CreateTeacherRequest, photo *PhotoUpload) (*models.Listing, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Subject = strings.TrimSpace(req.Subject)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.Experience = NumericInput(strings.TrimSpace(string(req.Experience)))
	req.Province = strings.TrimSpace(req.Province)
	req.District = strings.TrimSpace(req.District)
	req.SpecificLocation = strings.TrimSpace(req.SpecificLocation)
	req.PhotoURL = strings.TrimSpace(req.PhotoURL)

	details := s.validator.Struct(req)
	details = s.checkLocation(details, req.Province, req.District)
	experience, err := strconv.Atoi(string(req.Experience))
	if err != nil && details["experience"] == "" {
		details = addDetail(details, "experience", "Experience must be a whole number of years")
	}
	if len(details) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid teacher payload", details)
	}

	record := &models.Listing{
		Role:             models.RoleTeacher,
		Name:             req.Name,
		Subject:          req.Subject,
		PhoneNumber:      req.PhoneNumber,
		SpecificLocation: req.SpecificLocation,
		Province:         req.Province,
		District:         req.District,
		PhotoURL:         req.PhotoURL,
		Teacher:          &models.TeacherDetails{Experience: experience},
	}
	if err := s.create(ctx, user, record, photo); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateStudent validates and writes a student listing owned by user.
func (s *ListingService) CreateStudent(ctx context.Context, user *models.CurrentUser, req CreateStudentRequest, photo *PhotoUpload) (*models.Listing, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Grade = strings.TrimSpace(req.Grade)
	req.Subject = strings.TrimSpace(req.Subject)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.Province = strings.TrimSpace(req.Province)
	req.District = strings.TrimSpace(req.District)
	req.SpecificLocation = strings.TrimSpace(req.SpecificLocation)
	req.Salary = NumericInput(strings.TrimSpace(string(req.Salary)))
	req.TeachingHours = NumericInput(strings.TrimSpace(string(req.TeachingHours)))
	req.PhotoURL = strings.TrimSpace(req.PhotoURL)

	details := s.validator.Struct(req)
	details = s.checkLocation(details, req.Province, req.District)
	salary, details := parseOptionalAmount(details, "salary", req.Salary)
	hours, details := parseOptionalAmount(details, "teachingHours", req.TeachingHours)
	if len(details) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid student payload", details)
	}

	record := &models.Listing{
		Role:             models.RoleStudent,
		Name:             req.Name,
		Subject:          req.Subject,
		PhoneNumber:      req.PhoneNumber,
		SpecificLocation: req.SpecificLocation,
		Province:         req.Province,
		District:         req.District,
		PhotoURL:         req.PhotoURL,
		Student:          &models.StudentDetails{Grade: req.Grade, Salary: salary, TeachingHours: hours},
	}
	if err := s.create(ctx, user, record, photo); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *ListingService) create(ctx context.Context, user *models.CurrentUser, record *models.Listing, photo *PhotoUpload) error {
	if user == nil || user.ID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, fmt.Sprintf("sign in to create a %s listing", record.Role))
	}
	record.OwnerID = user.ID

	if photo != nil && photo.Reader != nil {
		url, err := s.uploadPhoto(ctx, record.Role, photo)
		if err != nil {
			return err
		}
		record.PhotoURL = url
	}

	start := time.Now()
	if err := s.store.Create(ctx, record); err != nil {
		s.logger.Error("listing write failed", zap.String("role", string(record.Role)), zap.String("owner", user.ID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to create %s listing", record.Role))
	}
	s.metrics.RecordListingCreated(record.Role)
	s.logger.Info("listing created",
		zap.String("role", string(record.Role)),
		zap.String("id", record.ID),
		zap.String("district", record.District),
		zap.Duration("took", time.Since(start)))

	if err := s.snapshots.Invalidate(ctx, record.Role); err != nil {
		s.logger.Warn("snapshot invalidate failed, serving stale listings until warm-up",
			zap.String("role", string(record.Role)),
			zap.String("id", record.ID),
			zap.Error(err))
	}
	if s.warmer != nil {
		if err := s.warmer.Schedule(record.Role); err != nil {
			s.logger.Warn("snapshot warm-up not scheduled", zap.String("role", string(record.Role)), zap.Error(err))
		}
	}
	return nil
}

func (s *ListingService) uploadPhoto(ctx context.Context, role models.Role, photo *PhotoUpload) (string, error) {
	if s.uploader == nil {
		return "", appErrors.Clone(appErrors.ErrUploadFailed, "photo uploads are not configured")
	}
	checked, err := media.Inspect(photo.Reader, s.cfg.MaxPhotoBytes, s.cfg.AllowedPhotoMIME)
	if err != nil {
		return "", err
	}

	name := strings.TrimSuffix(path.Base(photo.Filename), path.Ext(photo.Filename))
	if name == "" || name == "." || name == "/" {
		name = "photo"
	}
	filename := fmt.Sprintf("%s_photos/%s%s", role, name, checked.Extension)

	url, err := s.uploader.Upload(ctx, filename, checked.Reader())
	s.metrics.RecordPhotoUpload(err)
	if err != nil {
		s.logger.Warn("photo upload failed", zap.String("role", string(role)), zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrUploadFailed.Code, appErrors.ErrUploadFailed.Status, appErrors.ErrUploadFailed.Message)
	}
	return url, nil
}

func (s *ListingService) checkLocation(details map[string]string, province, district string) map[string]string {
	if details["province"] != "" || details["district"] != "" {
		return details
	}
	if _, problems := location.Resolve(s.lookup, province, district); len(problems) > 0 {
		for field, message := range problems {
			details = addDetail(details, field, message)
		}
	}
	return details
}

func (s *ListingService) newController(q models.BrowseQuery, reader listing.Reader) *listing.Controller {
	ctrl := listing.NewController(q.Role, reader, s.logger)
	ctrl.SetDistrict(strings.TrimSpace(q.District))
	ctrl.SetSortNewest(q.SortNewest)
	return ctrl
}

func (s *ListingService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.FetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.FetchTimeout)
}

func browseResult(role models.Role, ctrl *listing.Controller) *models.BrowseResult {
	state := ctrl.State()
	status := models.BrowseStatusOK
	switch {
	case state.Failed():
		status = models.BrowseStatusUnavailable
	case state.Empty():
		status = models.BrowseStatusEmpty
	}
	return &models.BrowseResult{
		Role:       role,
		Listings:   ctrl.View(),
		Districts:  ctrl.Districts(),
		District:   state.District,
		SortNewest: state.SortNewest,
		Total:      state.Total,
		Status:     status,
	}
}

func parseOptionalAmount(details map[string]string, field string, raw NumericInput) (*float64, map[string]string) {
	if raw == "" || details[field] != "" {
		return nil, details
	}
	value, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return nil, addDetail(details, field, validation.Label(field)+" must be a number")
	}
	if value < 0 {
		return nil, addDetail(details, field, validation.Label(field)+" must not be negative")
	}
	return &value, details
}

func addDetail(details map[string]string, field, message string) map[string]string {
	if details == nil {
		details = make(map[string]string)
	}
	if _, exists := details[field]; !exists {
		details[field] = message
	}
	return details
}

func ignoreNotFound(err error) error {
	if errors.Is(err, repository.ErrListingNotFound) {
		return nil
	}
	return err
}
