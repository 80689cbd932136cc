package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"Yam_Community/internal/model"
)

// Statement is one parameterised Cypher statement.
type Statement struct {
	Cypher string
	Params map[string]any
}

var paramRef = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// Validate reports parameters referenced in the text but never bound.
func (s Statement) Validate() error {
	var missing []string
	for _, m := range paramRef.FindAllStringSubmatch(s.Cypher, -1) {
		if _, ok := s.Params[m[1]]; !ok {
			missing = append(missing, m[1])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("unbound parameters: %s", strings.Join(missing, ", "))
}

// Query builds a Statement clause by clause. Values only ever enter through Param.
type Query struct {
	clauses []string
	params  map[string]any
}

func NewQuery() *Query {
	return &Query{params: make(map[string]any)}
}

func (q *Query) clause(keyword string, parts ...string) *Query {
	if len(parts) == 0 {
		q.clauses = append(q.clauses, keyword)
		return q
	}
	q.clauses = append(q.clauses, keyword+" "+strings.Join(parts, ", "))
	return q
}

func (q *Query) Match(patterns ...string) *Query { return q.clause("MATCH", patterns...) }

func (q *Query) OptionalMatch(patterns ...string) *Query {
	return q.clause("OPTIONAL MATCH", patterns...)
}

func (q *Query) Create(patterns ...string) *Query { return q.clause("CREATE", patterns...) }

func (q *Query) Merge(pattern string) *Query { return q.clause("MERGE", pattern) }

// Where joins predicates with AND. Empty predicates are skipped.
func (q *Query) Where(predicates ...string) *Query {
	var keep []string
	for _, p := range predicates {
		if p != "" {
			keep = append(keep, p)
		}
	}
	if len(keep) == 0 {
		return q
	}
	q.clauses = append(q.clauses, "WHERE "+strings.Join(keep, " AND "))
	return q
}

func (q *Query) Set(assignments ...string) *Query { return q.clause("SET", assignments...) }

func (q *Query) Delete(vars ...string) *Query { return q.clause("DELETE", vars...) }

func (q *Query) DetachDelete(vars ...string) *Query { return q.clause("DETACH DELETE", vars...) }

func (q *Query) With(exprs ...string) *Query { return q.clause("WITH", exprs...) }

func (q *Query) Return(exprs ...string) *Query { return q.clause("RETURN", exprs...) }

// OrderBy sorts by each field in the same direction.
func (q *Query) OrderBy(order model.SortOrder, fields ...string) *Query {
	dir := "DESC"
	if order == model.SortAsc {
		dir = "ASC"
	}
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f + " " + dir
	}
	return q.clause("ORDER BY", keys...)
}

func (q *Query) Skip(n int) *Query {
	q.params["skip"] = int64(n)
	return q.clause("SKIP $skip")
}

func (q *Query) Limit(n int) *Query {
	q.params["limit"] = int64(n)
	return q.clause("LIMIT $limit")
}

// Raw appends a clause the builder has no helper for, e.g. FOREACH.
func (q *Query) Raw(clause string) *Query {
	q.clauses = append(q.clauses, clause)
	return q
}

func (q *Query) Param(name string, v any) *Query {
	q.params[name] = v
	return q
}

func (q *Query) Build() Statement {
	params := make(map[string]any, len(q.params))
	for k, v := range q.params {
		params[k] = v
	}
	return Statement{Cypher: strings.Join(q.clauses, "\n"), Params: params}
}
