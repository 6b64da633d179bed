package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

// listingDocument mirrors the documents kept in the teacherRequests and
// studentRequests collections. Numeric fields and the phone number were
// written as text or numbers depending on the client, so they decode
// leniently.
type listingDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	UserID           string             `bson:"userId"`
	Name             string             `bson:"name"`
	Subject          string             `bson:"subject"`
	PhoneNumber      looseString        `bson:"phoneNumber"`
	SpecificLocation string             `bson:"specificLocation"`
	Province         string             `bson:"province"`
	District         string             `bson:"district"`
	PhotoURL         string             `bson:"photoURL,omitempty"`
	Experience       looseNumber        `bson:"experience,omitempty"`
	Grade            looseString        `bson:"grade,omitempty"`
	Salary           looseNumber        `bson:"salary,omitempty"`
	TeachingHours    looseNumber        `bson:"teachingHours,omitempty"`
	CreatedAt        *time.Time         `bson:"createdAt,omitempty"`
}

// ListingMongoRepository reads and writes listings in MongoDB, one
// collection per role.
type ListingMongoRepository struct {
	collections map[models.Role]*mongo.Collection
	logger      *zap.Logger
}

// NewListingMongoRepository binds the teacher and student collections.
func NewListingMongoRepository(db *mongo.Database, teacherCollection, studentCollection string, logger *zap.Logger) *ListingMongoRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingMongoRepository{
		collections: map[models.Role]*mongo.Collection{
			models.RoleTeacher: db.Collection(teacherCollection),
			models.RoleStudent: db.Collection(studentCollection),
		},
		logger: logger,
	}
}

// FetchAll returns every document of role in the store's natural order.
func (r *ListingMongoRepository) FetchAll(ctx context.Context, role models.Role) ([]models.Listing, error) {
	return r.find(ctx, role, bson.M{})
}

// FetchByOwner returns the listings of role created by ownerID.
func (r *ListingMongoRepository) FetchByOwner(ctx context.Context, role models.Role, ownerID string) ([]models.Listing, error) {
	return r.find(ctx, role, bson.M{"userId": ownerID})
}

// FetchByDistrict returns the listings of role located in district.
func (r *ListingMongoRepository) FetchByDistrict(ctx context.Context, role models.Role, district string) ([]models.Listing, error) {
	return r.find(ctx, role, bson.M{"district": strings.TrimSpace(district)})
}

// FindByID fetches a single listing. Malformed ids are reported as not found.
func (r *ListingMongoRepository) FindByID(ctx context.Context, role models.Role, id string) (*models.Listing, error) {
	coll, err := r.collection(role)
	if err != nil {
		return nil, err
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrListingNotFound
	}

	var doc listingDocument
	if err := coll.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("find %s: %w", role, err)
	}
	listing := mapListingDocument(role, doc)
	return &listing, nil
}

// Create inserts listing, assigning its id and server timestamp.
func (r *ListingMongoRepository) Create(ctx context.Context, listing *models.Listing) error {
	if err := listing.CheckShape(); err != nil {
		return err
	}
	coll, err := r.collection(listing.Role)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := documentFromListing(*listing)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = &now

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create %s: %w", listing.Role, err)
	}
	listing.ID = doc.ID.Hex()
	listing.CreatedAt = &now
	return nil
}

func (r *ListingMongoRepository) find(ctx context.Context, role models.Role, filter bson.M) ([]models.Listing, error) {
	coll, err := r.collection(role)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", role.Plural(), err)
	}
	defer cursor.Close(ctx)
	return r.collect(ctx, role, cursor)
}

// collect maps every decodable document of cursor. A document that cannot
// be decoded is logged and skipped so one bad record does not hide the rest.
func (r *ListingMongoRepository) collect(ctx context.Context, role models.Role, cursor *mongo.Cursor) ([]models.Listing, error) {
	listings := make([]models.Listing, 0)
	for cursor.Next(ctx) {
		doc, err := decodeListingDocument(cursor.Current)
		if err != nil {
			r.logger.Warn("skipping undecodable listing document",
				zap.String("role", string(role)),
				zap.String("id", rawDocumentID(cursor.Current)),
				zap.Error(err))
			continue
		}
		listings = append(listings, mapListingDocument(role, doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", role.Plural(), err)
	}
	return listings, nil
}

func decodeListingDocument(raw bson.Raw) (listingDocument, error) {
	var doc listingDocument
	err := bson.Unmarshal(raw, &doc)
	return doc, err
}

func rawDocumentID(raw bson.Raw) string {
	value, err := raw.LookupErr("_id")
	if err != nil {
		return ""
	}
	if oid, ok := value.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return value.String()
}

func (r *ListingMongoRepository) collection(role models.Role) (*mongo.Collection, error) {
	coll, ok := r.collections[role]
	if !ok {
		return nil, fmt.Errorf("no collection for role %q", role)
	}
	return coll, nil
}

func mapListingDocument(role models.Role, doc listingDocument) models.Listing {
	listing := models.Listing{
		ID:               doc.ID.Hex(),
		OwnerID:          doc.UserID,
		Role:             role,
		Name:             doc.Name,
		Subject:          doc.Subject,
		PhoneNumber:      string(doc.PhoneNumber),
		SpecificLocation: doc.SpecificLocation,
		Province:         doc.Province,
		District:         doc.District,
		PhotoURL:         doc.PhotoURL,
		CreatedAt:        doc.CreatedAt,
	}
	if role == models.RoleTeacher {
		listing.Teacher = &models.TeacherDetails{Experience: doc.Experience.Int()}
	} else {
		listing.Student = &models.StudentDetails{
			Grade:         string(doc.Grade),
			Salary:        doc.Salary.Float(),
			TeachingHours: doc.TeachingHours.Float(),
		}
	}
	return listing
}

func documentFromListing(listing models.Listing) listingDocument {
	doc := listingDocument{
		UserID:           listing.OwnerID,
		Name:             listing.Name,
		Subject:          listing.Subject,
		PhoneNumber:      looseString(listing.PhoneNumber),
		SpecificLocation: listing.SpecificLocation,
		Province:         listing.Province,
		District:         listing.District,
		PhotoURL:         listing.PhotoURL,
	}
	if listing.Teacher != nil {
		doc.Experience = numberFromInt(listing.Teacher.Experience)
	}
	if listing.Student != nil {
		doc.Grade = looseString(listing.Student.Grade)
		doc.Salary = numberFromFloat(listing.Student.Salary)
		doc.TeachingHours = numberFromFloat(listing.Student.TeachingHours)
	}
	return doc
}
