package graph

import (
	"context"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

// toggleLike builds the single-statement like toggle. Touching the counter first takes
// the target's write lock, so concurrent toggles on one target run one after another.
func toggleLike(label, idKey, targetID, userID string) Statement {
	return NewQuery().
		Match("(t:"+label+" {"+idKey+": $targetId})").
		Set("t.likesCount = coalesce(t.likesCount, 0)").
		Merge("(u:User {userId: $userId})").
		With("t", "u").
		OptionalMatch("(u)-[l:LIKED]->(t)").
		With("t", "u", "l", "l IS NULL AS liking").
		Raw("FOREACH (_ IN CASE WHEN liking THEN [1] ELSE [] END |\n"+
			"  CREATE (u)-[:LIKED {createdAt: $now}]->(t)\n"+
			"  SET t.likesCount = t.likesCount + 1)").
		Raw("FOREACH (_ IN CASE WHEN liking THEN [] ELSE [1] END |\n"+
			"  DELETE l\n"+
			"  SET t.likesCount = CASE WHEN t.likesCount > 0 THEN t.likesCount - 1 ELSE 0 END)").
		Return("liking AS liked", "t.likesCount AS likesCount").
		Param("targetId", targetID).
		Param("userId", userID).
		Param("now", nowUTC()).
		Build()
}

func runToggle(ctx context.Context, exec Executor, op string, st Statement) (model.ToggleResult, error) {
	var res model.ToggleResult
	err := exec.Write(ctx, op, func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		res = model.ToggleResult{
			Liked:      recordBool(rows[0], "liked"),
			LikesCount: recordInt64(rows[0], "likesCount"),
		}
		return nil
	})
	return res, err
}

func hasLiked(ctx context.Context, exec Executor, op, label, idKey, targetID, userID string) (bool, error) {
	st := NewQuery().
		Match("(:User {userId: $userId})-[l:LIKED]->(t:"+label+" {"+idKey+": $targetId})").
		Return("count(l) AS n").
		Param("userId", userID).
		Param("targetId", targetID).
		Build()
	var n int64
	err := exec.Read(ctx, op, func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			n = recordInt64(rows[0], "n")
		}
		return nil
	})
	return n > 0, err
}
