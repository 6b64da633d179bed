package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

func TestMapListingDocumentTeacher(t *testing.T) {
	id := primitive.NewObjectID()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := listingDocument{
		ID:         id,
		UserID:     "uid-1",
		Name:       "Asha",
		District:   "Kathmandu",
		Experience: numberFromInt(7),
		CreatedAt:  &created,
	}

	listing := mapListingDocument(models.RoleTeacher, doc)
	assert.Equal(t, id.Hex(), listing.ID)
	assert.Equal(t, "uid-1", listing.OwnerID)
	require.NotNil(t, listing.Teacher)
	assert.Equal(t, 7, listing.Teacher.Experience)
	assert.Nil(t, listing.Student)
	assert.NoError(t, listing.CheckShape())
}

func TestMapListingDocumentStudentWithoutTimestamp(t *testing.T) {
	listing := mapListingDocument(models.RoleStudent, listingDocument{ID: primitive.NewObjectID(), Grade: "10"})
	require.NotNil(t, listing.Student)
	assert.Equal(t, "10", listing.Student.Grade)
	assert.Equal(t, int64(0), listing.CreatedAtSeconds())
	assert.NoError(t, listing.CheckShape())
}

func TestDocumentFromListingRoundTripsThroughBSON(t *testing.T) {
	salary := 6000.0
	src := models.Listing{
		OwnerID:  "uid-2",
		Role:     models.RoleStudent,
		Name:     "Sita",
		District: "Lalitpur",
		PhotoURL: "https://cdn/p.jpg",
		Student:  &models.StudentDetails{Grade: "8", Salary: &salary},
	}

	raw, err := bson.Marshal(documentFromListing(src))
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Equal(t, "uid-2", fields["userId"])
	assert.Equal(t, "https://cdn/p.jpg", fields["photoURL"])
	assert.NotContains(t, fields, "experience")
	assert.NotContains(t, fields, "_id")

	var doc listingDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	back := mapListingDocument(models.RoleStudent, doc)
	assert.Equal(t, src.Student.Grade, back.Student.Grade)
	assert.Equal(t, salary, *back.Student.Salary)
}

func decodeShape(t *testing.T, fields bson.M) listingDocument {
	t.Helper()
	raw, err := bson.Marshal(fields)
	require.NoError(t, err)
	doc, err := decodeListingDocument(raw)
	require.NoError(t, err)
	return doc
}

func TestDecodeStudentWithTextAmounts(t *testing.T) {
	doc := decodeShape(t, bson.M{
		"_id":           primitive.NewObjectID(),
		"name":          "Sita",
		"grade":         "9",
		"salary":        "5000",
		"teachingHours": " 2.5 ",
		"phoneNumber":   "9841000000",
	})

	listing := mapListingDocument(models.RoleStudent, doc)
	require.NotNil(t, listing.Student)
	require.NotNil(t, listing.Student.Salary)
	assert.Equal(t, 5000.0, *listing.Student.Salary)
	require.NotNil(t, listing.Student.TeachingHours)
	assert.Equal(t, 2.5, *listing.Student.TeachingHours)
}

func TestDecodeStudentWithUnparsableOrNullAmounts(t *testing.T) {
	doc := decodeShape(t, bson.M{
		"_id":           primitive.NewObjectID(),
		"grade":         int32(10),
		"salary":        "negotiable",
		"teachingHours": nil,
	})

	listing := mapListingDocument(models.RoleStudent, doc)
	assert.Equal(t, "10", listing.Student.Grade)
	assert.Nil(t, listing.Student.Salary)
	assert.Nil(t, listing.Student.TeachingHours)
}

func TestDecodeTeacherWithNumericPhoneAndTextExperience(t *testing.T) {
	doc := decodeShape(t, bson.M{
		"_id":         primitive.NewObjectID(),
		"name":        "Asha",
		"phoneNumber": int64(9841000000),
		"experience":  "4",
	})

	listing := mapListingDocument(models.RoleTeacher, doc)
	assert.Equal(t, "9841000000", listing.PhoneNumber)
	assert.Equal(t, 4, listing.Teacher.Experience)
	assert.Equal(t, "tel:9841000000", listing.ContactURL())

	doc = decodeShape(t, bson.M{"_id": primitive.NewObjectID(), "phoneNumber": 9.841e9, "experience": 3.0})
	listing = mapListingDocument(models.RoleTeacher, doc)
	assert.Equal(t, "9841000000", listing.PhoneNumber)
	assert.Equal(t, 3, listing.Teacher.Experience)
}

func TestDocumentFromListingWritesNativeNumbers(t *testing.T) {
	raw, err := bson.Marshal(documentFromListing(models.Listing{
		Role:        models.RoleTeacher,
		PhoneNumber: "9841000000",
		Teacher:     &models.TeacherDetails{Experience: 6},
	}))
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Equal(t, int32(6), fields["experience"])
	assert.Equal(t, "9841000000", fields["phoneNumber"])
	assert.NotContains(t, fields, "salary")
	assert.NotContains(t, fields, "teachingHours")
}

func TestCollectSkipsUndecodableDocuments(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := &ListingMongoRepository{logger: zap.New(core)}
	bad := primitive.NewObjectID()

	cursor, err := mongo.NewCursorFromDocuments([]interface{}{
		bson.M{"_id": primitive.NewObjectID(), "name": "Asha", "experience": int32(2)},
		bson.M{"_id": bad, "name": "Broken", "experience": bson.M{"years": 2}},
		bson.M{"_id": primitive.NewObjectID(), "name": "Bimal", "phoneNumber": int32(5551234)},
	}, nil, nil)
	require.NoError(t, err)

	listings, err := repo.collect(context.Background(), models.RoleTeacher, cursor)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "Asha", listings[0].Name)
	assert.Equal(t, "5551234", listings[1].PhoneNumber)

	entries := logs.FilterMessage("skipping undecodable listing document").All()
	require.Len(t, entries, 1)
	assert.Equal(t, bad.Hex(), entries[0].ContextMap()["id"])
}
