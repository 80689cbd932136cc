package graph

import (
	"context"
)

// CounterRepository 按边的数量重算计数，每次最多修复 limit 个节点
type CounterRepository struct {
	exec Executor
}

func NewCounterRepository(exec Executor) *CounterRepository {
	return &CounterRepository{exec: exec}
}

func (r *CounterRepository) RepairPostCounters(ctx context.Context, limit int) (int64, error) {
	st := NewQuery().
		Match("(p:Post)").
		OptionalMatch("(:User)-[l:LIKED]->(p)").
		With("p", "count(l) AS likes").
		OptionalMatch("(cm:Comment)-[:ASSOCIATED_WITH]->(p)").
		With("p", "likes", "count(cm) AS comments").
		Where("coalesce(p.likesCount, 0) <> likes OR coalesce(p.commentsCount, 0) <> comments").
		With("p", "likes", "comments").
		Limit(limit).
		Set("p.likesCount = likes", "p.commentsCount = comments").
		Return("count(p) AS repaired").
		Build()
	return r.repair(ctx, "counter.repair_posts", st)
}

func (r *CounterRepository) RepairCommentCounters(ctx context.Context, limit int) (int64, error) {
	st := NewQuery().
		Match("(cm:Comment)").
		OptionalMatch("(:User)-[l:LIKED]->(cm)").
		With("cm", "count(l) AS likes").
		Where("coalesce(cm.likesCount, 0) <> likes").
		With("cm", "likes").
		Limit(limit).
		Set("cm.likesCount = likes").
		Return("count(cm) AS repaired").
		Build()
	return r.repair(ctx, "counter.repair_comments", st)
}

func (r *CounterRepository) repair(ctx context.Context, op string, st Statement) (int64, error) {
	var n int64
	err := r.exec.Write(ctx, op, func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			n = recordInt64(rows[0], "repaired")
		}
		return nil
	})
	return n, err
}
