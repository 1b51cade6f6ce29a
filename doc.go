// Package dico provides schema-driven documents for semi-structured records:
//
// - Typed field declaration through an explicit schema builder (NewSchema/Field/Build)
// - Boolean validation (Validate/ValidatePartial) and structured Issues (Check/CheckPartial)
// - Change tracking, propagated from embedded documents to their parents
// - Named views (export) and sources (import) with keep/remove projections and filters
//
// Design policy:
//   - Keep the document engine in the root package; serialization lives under codec/,
//     declarative schema files under decl/, MongoDB helpers under mongo/.
//   - Construction never fails on bad data; Validate reports it, exports refuse it.
//   - Schemas and field types are immutable once built and shared freely.
//
// Typical usage:
//
//	token := dico.NewSchema("OAuthToken").
//	    Field("consumer_secret", dico.String(dico.MaxLength(32)), dico.Required()).
//	    Field("active", dico.Bool(), dico.Default(true)).
//	    MustBuild()
//
//	user := dico.NewSchema("User").
//	    Field("id", dico.Integer(), dico.Required()).
//	    Field("tokens", dico.List(dico.Embedded(token))).
//	    View("save", dico.Filters(dico.RenameField("id", "_id"))).
//	    Source("db", dico.Filters(dico.RenameField("_id", "id"))).
//	    MustBuild()
//
//	u, _ := user.From("db", row)
//	_ = u.Set("id", 4)
//	payload, err := u.To("save", dico.OnlyModified())
package dico
