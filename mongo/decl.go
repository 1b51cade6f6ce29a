package mongo

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nizox/dico"
	"github.com/nizox/dico/decl"
)

// Register adds the "objectid" and "geopoint" field types and the "objectid"
// default factory to r.
func Register(r *decl.Registry) {
	r.RegisterType("objectid", func(spec decl.FieldSpec, _ *decl.Registry) (dico.FieldType, error) {
		if err := decl.CheckOptions(spec); err != nil {
			return nil, err
		}
		return ObjectID(), nil
	})
	r.RegisterType("geopoint", func(spec decl.FieldSpec, _ *decl.Registry) (dico.FieldType, error) {
		if err := decl.CheckOptions(spec); err != nil {
			return nil, err
		}
		return GeoPoint(), nil
	})
	r.RegisterDefault("objectid", func() any { return primitive.NewObjectID() })
}
