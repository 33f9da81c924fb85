package cache

import "fmt"

// Key conventions. Every key starts with the entity kind so that the
// moderation engine can invalidate a whole kind's cached queries with one
// pattern clear after a write.
//
//	events:id:<id>           single entity
//	events:query:<filters>   query pipeline result
//	events:approved:...      approved-list variants
//	favorites:pair:<u>:<e>   favorite membership

func EntityKey(kind, id string) string {
	return fmt.Sprintf("%s:id:%s", kind, id)
}

func QueryKey(kind, serialized string) string {
	return fmt.Sprintf("%s:query:%s", kind, serialized)
}

// QueryPattern matches every cached query-pipeline result for a kind.
func QueryPattern(kind string) string {
	return kind + ":query:"
}

// ApprovedPattern matches every cached approved-list variant for a kind.
func ApprovedPattern(kind string) string {
	return kind + ":approved"
}

func PairKey(kind, a, b string) string {
	return fmt.Sprintf("%s:pair:%s:%s", kind, a, b)
}
