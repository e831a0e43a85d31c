package mongostore

import (
	"github.com/marmos91/gridstore/pkg/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// toBSON prepares a Document for the driver. The driver marshals Go maps,
// byte slices, and time.Time natively, so this only needs to guarantee a
// non-nil value (a nil filter must become an empty document, not BSON null).
func toBSON(doc docstore.Document) bson.M {
	if doc == nil {
		return bson.M{}
	}
	return bson.M(doc)
}

// fromBSON converts a decoded driver document into a docstore.Document,
// normalizing the primitive wrapper types back to the plain Go types the
// Document contract promises. ObjectIDs stay as-is; they are opaque
// identifiers and remain comparable.
func fromBSON(m bson.M) docstore.Document {
	doc := make(docstore.Document, len(m))
	for k, v := range m {
		doc[k] = fromBSONValue(v)
	}
	return doc
}

func fromBSONValue(v any) any {
	switch tv := v.(type) {
	case primitive.Binary:
		return tv.Data
	case primitive.DateTime:
		return tv.Time().UTC()
	case bson.M:
		return fromBSON(tv)
	case map[string]any:
		return fromBSON(bson.M(tv))
	case bson.D:
		out := make(docstore.Document, len(tv))
		for _, e := range tv {
			out[e.Key] = fromBSONValue(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = fromBSONValue(e)
		}
		return out
	default:
		return v
	}
}

func toWriteConcern(wc docstore.WriteConcern) *writeconcern.WriteConcern {
	switch wc {
	case docstore.WriteConcernAcknowledged:
		return writeconcern.W1()
	case docstore.WriteConcernMajority:
		return writeconcern.Majority()
	case docstore.WriteConcernUnacknowledged:
		return writeconcern.Unacknowledged()
	default:
		return nil
	}
}

func toReadConcern(rc docstore.ReadConcern) *readconcern.ReadConcern {
	switch rc {
	case docstore.ReadConcernLocal:
		return readconcern.Local()
	case docstore.ReadConcernAvailable:
		return readconcern.Available()
	case docstore.ReadConcernMajority:
		return readconcern.Majority()
	case docstore.ReadConcernLinearizable:
		return readconcern.Linearizable()
	default:
		return nil
	}
}

func toReadPreference(rp docstore.ReadPreference) *readpref.ReadPref {
	switch rp {
	case docstore.ReadPreferencePrimary:
		return readpref.Primary()
	case docstore.ReadPreferencePrimaryPreferred:
		return readpref.PrimaryPreferred()
	case docstore.ReadPreferenceSecondary:
		return readpref.Secondary()
	case docstore.ReadPreferenceSecondaryPreferred:
		return readpref.SecondaryPreferred()
	case docstore.ReadPreferenceNearest:
		return readpref.Nearest()
	default:
		return nil
	}
}

// toSortDoc renders sort keys as an ordered BSON document so compound sorts
// keep their field significance.
func toSortDoc(keys []docstore.SortKey) bson.D {
	sort := make(bson.D, 0, len(keys))
	for _, key := range keys {
		sort = append(sort, bson.E{Key: key.Field, Value: key.Order})
	}
	return sort
}
