package models

// MetaKind enumerates the value kinds allowed in chunk metadata.
type MetaKind string

const (
	MetaString MetaKind = "string"
	MetaNumber MetaKind = "number"
	MetaBool   MetaKind = "bool"
	MetaList   MetaKind = "list"
)

// MetaValue is a single typed metadata value. Exactly one payload field is
// meaningful, selected by Kind.
type MetaValue struct {
	Kind MetaKind `bson:"kind" json:"kind"`
	Str  string   `bson:"str,omitempty" json:"str,omitempty"`
	Num  float64  `bson:"num,omitempty" json:"num,omitempty"`
	Bool bool     `bson:"bool,omitempty" json:"bool,omitempty"`
	List []string `bson:"list,omitempty" json:"list,omitempty"`
}

// Metadata carries document provenance (file name, file type, title, ...)
// on every chunk. String keys with a closed set of value kinds instead of a
// free-form map, so round-tripping through BSON stays type-safe.
type Metadata map[string]MetaValue

// Common metadata keys used by the ingestion callers.
const (
	MetaKeyFileName = "file_name"
	MetaKeyFileType = "file_type"
	MetaKeyTitle    = "title"
	MetaKeyLanguage = "language"
)

func MetaStr(s string) MetaValue    { return MetaValue{Kind: MetaString, Str: s} }
func MetaNum(n float64) MetaValue   { return MetaValue{Kind: MetaNumber, Num: n} }
func MetaFlag(b bool) MetaValue     { return MetaValue{Kind: MetaBool, Bool: b} }
func MetaStrs(l []string) MetaValue { return MetaValue{Kind: MetaList, List: l} }

// Clone returns a copy so chunks derived from one document do not share the
// caller's map.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		if v.List != nil {
			v.List = append([]string(nil), v.List...)
		}
		out[k] = v
	}
	return out
}
