package registration

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "registrations"

// MongoRepository stores registrations as documents in MongoDB.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository uses the registrations collection of db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(collectionName)}
}

// EnsureIndexes creates the unique identity index and the listing indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: string(FieldStudentName), Value: 1},
				{Key: string(FieldSchoolName), Value: 1},
				{Key: string(FieldClass), Value: 1},
				{Key: string(FieldDOB), Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("identity_unique"),
		},
		{Keys: bson.D{{Key: string(FieldCreatedAt), Value: -1}}},
		{Keys: bson.D{{Key: string(FieldClass), Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create registration indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Insert(ctx context.Context, reg Registration) error {
	_, err := r.coll.InsertOne(ctx, reg)
	return writeError("insert registration", err)
}

func (r *MongoRepository) Exists(ctx context.Context, key DuplicateKey) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		string(FieldStudentName): key.StudentName,
		string(FieldSchoolName):  key.SchoolName,
		string(FieldClass):       key.Class,
		string(FieldDOB):         key.DOB,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count duplicates: %w", err)
	}
	return n > 0, nil
}

func (r *MongoRepository) Find(ctx context.Context, f Filter) ([]Registration, int64, error) {
	filter := mongoFilter(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}

	opts := options.Find()
	if sort := mongoSort(f); sort != nil {
		opts.SetSort(sort)
	}
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find registrations: %w", err)
	}
	defer cursor.Close(ctx)

	regs := []Registration{}
	if err := cursor.All(ctx, &regs); err != nil {
		return nil, 0, fmt.Errorf("decode registrations: %w", err)
	}
	return regs, total, nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (Registration, error) {
	var reg Registration
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&reg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Registration{}, ErrNotFound
		}
		return Registration{}, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (r *MongoRepository) SetFlag(ctx context.Context, id string, flag Field, value bool) error {
	return r.set(ctx, id, bson.M{string(flag): value})
}

func (r *MongoRepository) UpdateContact(ctx context.Context, id string, u ContactUpdate) error {
	set := bson.M{
		string(FieldStudentName):  u.StudentName,
		string(FieldMobileNumber): u.MobileNumber,
	}
	if u.AltMobileNumber != nil {
		set[string(FieldAltMobileNumber)] = *u.AltMobileNumber
	}
	return r.set(ctx, id, set)
}

func (r *MongoRepository) All(ctx context.Context) ([]Registration, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find registrations: %w", err)
	}
	defer cursor.Close(ctx)

	var regs []Registration
	if err := cursor.All(ctx, &regs); err != nil {
		return nil, fmt.Errorf("decode registrations: %w", err)
	}
	return regs, nil
}

func (r *MongoRepository) set(ctx context.Context, id string, fields bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return writeError("update registration", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// mongoSort orders by the requested field with _id breaking ties, so pages
// stay stable.
func mongoSort(f Filter) bson.D {
	if f.SortBy == "" {
		return nil
	}
	dir := 1
	if f.Desc {
		dir = -1
	}
	return bson.D{{Key: string(f.SortBy), Value: dir}, {Key: "_id", Value: 1}}
}

// writeError maps a unique index violation to ErrDuplicate.
func writeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mongoFilter builds the query document. Search text is matched literally.
func mongoFilter(f Filter) bson.M {
	filter := bson.M{}
	if f.Text != "" && len(f.TextFields) > 0 {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Text), Options: "i"}
		or := make(bson.A, 0, len(f.TextFields))
		for _, field := range f.TextFields {
			or = append(or, bson.M{string(field): pattern})
		}
		filter["$or"] = or
	}
	if f.Class != "" {
		filter[string(FieldClass)] = f.Class
	}
	if f.Attended != nil {
		filter[string(FieldIsAttended)] = *f.Attended
	}
	if f.CertificateIssued != nil {
		filter[string(FieldCertificateIssued)] = *f.CertificateIssued
	}
	return filter
}
