package databases

// go generate: mockery --name DepartmentDatabase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civiclens/civic-complaints-api/models"
)

const departmentCollection = "departments"

// DepartmentDatabase contains the methods to use with the departments collection
type DepartmentDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Department, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Department, error)
	InsertOne(ctx context.Context, department models.Department) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}, results interface{}) error
}

type departmentDatabase struct {
	db DatabaseHelper
}

// NewDepartmentDatabase initializes a new instance of department database with the provided db connection
func NewDepartmentDatabase(db DatabaseHelper) DepartmentDatabase {
	return &departmentDatabase{db: db}
}

func (d *departmentDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Department, error) {
	department := &models.Department{}
	err := d.db.Collection(departmentCollection).FindOne(ctx, filter).Decode(department)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return department, nil
}

func (d *departmentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Department, error) {
	cursor, err := d.db.Collection(departmentCollection).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var departments []models.Department
	if err := cursor.All(ctx, &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

func (d *departmentDatabase) InsertOne(ctx context.Context, department models.Department) (interface{}, error) {
	return d.db.Collection(departmentCollection).InsertOne(ctx, department)
}

func (d *departmentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return d.db.Collection(departmentCollection).UpdateOne(ctx, filter, update, opts...)
}

func (d *departmentDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return d.db.Collection(departmentCollection).DeleteOne(ctx, filter)
}

func (d *departmentDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return d.db.Collection(departmentCollection).CountDocuments(ctx, filter, opts...)
}

func (d *departmentDatabase) Aggregate(ctx context.Context, pipeline interface{}, results interface{}) error {
	cursor, err := d.db.Collection(departmentCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cursor.All(ctx, results)
}
