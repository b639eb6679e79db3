package vector

import "strconv"

// Well-known metadata keys shared by all drivers.
const (
	MetaChunkIndex = "chunk_index"
	MetaDocHash    = "doc_hash"
	MetaRawPath    = "raw_path"
	MetaSource     = "source"
	MetaCategory   = "category"
)

// ToMap flattens the metadata into a string-keyed map for drivers that
// persist loosely-typed payloads. Extension keys never shadow the explicit
// fields.
func (m Metadata) ToMap() map[string]any {
	out := make(map[string]any, len(m.Extra)+5)
	for k, v := range m.Extra {
		out[k] = v
	}
	out[MetaChunkIndex] = m.ChunkIndex
	out[MetaDocHash] = m.DocHash
	out[MetaRawPath] = m.RawPath
	out[MetaSource] = m.Source
	out[MetaCategory] = m.Category
	return out
}

// MetadataFromMap rebuilds a Metadata from a flattened map, tolerating the
// numeric type drift JSON round-trips introduce.
func MetadataFromMap(raw map[string]any) Metadata {
	m := Metadata{}
	for k, v := range raw {
		switch k {
		case MetaChunkIndex:
			m.ChunkIndex = toInt(v)
		case MetaDocHash:
			m.DocHash = toString(v)
		case MetaRawPath:
			m.RawPath = toString(v)
		case MetaSource:
			m.Source = toString(v)
		case MetaCategory:
			m.Category = toString(v)
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]string)
			}
			m.Extra[k] = toString(v)
		}
	}
	return m
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}
