package databases

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaginatedOpts builds limit/skip find options for 1-based pages. A limit
// below 1 means the caller asked for the full result set, so no limit or
// skip is applied at all.
func PaginatedOpts(limit, page int) *options.FindOptions {
	if limit < 1 {
		return options.Find()
	}
	if page < 1 {
		page = 1
	}
	l := int64(limit)
	skip := int64(page)*l - l
	return &options.FindOptions{Limit: &l, Skip: &skip}
}

// PaginationStages builds $skip/$limit stages for aggregation pipelines
// under the same rules as PaginatedOpts.
func PaginationStages(limit, page int) []bson.M {
	if limit < 1 {
		return nil
	}
	if page < 1 {
		page = 1
	}
	return []bson.M{
		{"$skip": int64(page-1) * int64(limit)},
		{"$limit": int64(limit)},
	}
}
