package mongodb

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Now returns the current time in UTC, truncated to the millisecond precision BSON dates keep.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// ContainsInsensitive matches documents whose field contains term, ignoring case.
// The term is quoted so user input never reaches the regex engine as a pattern.
func ContainsInsensitive(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

// NonEmptyArray matches documents whose field holds at least one element.
func NonEmptyArray() bson.M {
	return bson.M{"$exists": true, "$not": bson.M{"$size": 0}}
}

// SortAscending creates an ascending sort option
func SortAscending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}
