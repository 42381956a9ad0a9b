package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/db"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
	"github.com/yigit/storetrainer/internal/pkg/dberrors"
	"github.com/yigit/storetrainer/internal/pkg/helpers"
)

// IPostRepository defines the interface for post-related database operations
type IPostRepository interface {
	List(ctx context.Context, filter models.PostFilter, viewerID int64, page, size int) ([]models.Post, int64, error)
	GetByID(ctx context.Context, id, viewerID int64) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	IncrementViewCount(ctx context.Context, id int64) error
	ToggleReaction(ctx context.Context, postID, userID int64, reaction models.ReactionType) (models.ReactionCounts, *models.ReactionType, error)
	SetAdopted(ctx context.Context, id int64, adopted bool) error
	CountByAuthor(ctx context.Context, authorID int64) (int64, error)
}

// PostRepository handles database operations for community and case posts
type PostRepository struct {
	db db.Querier
	tx db.TxRunner
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(q db.Querier, tx db.TxRunner) *PostRepository {
	return &PostRepository{db: q, tx: tx}
}

// reactionColumns maps a reaction to its counter column
var reactionColumns = map[models.ReactionType]string{
	models.ReactionLike:    "like_count",
	models.ReactionEmpathy: "empathy_count",
	models.ReactionHelpful: "helpful_count",
}

func (r *PostRepository) selectPostQuery(viewerID int64) squirrel.SelectBuilder {
	return psql.Select(
		"p.id", "p.kind", "p.author_id", "u.name", "u.department",
		"p.title", "p.situation", "p.approach", "p.result", "p.learning",
		"p.tags", "p.visibility", "p.visibility_target", "p.event_id",
		"p.like_count", "p.empathy_count", "p.helpful_count", "p.view_count",
		"p.ai_summary", "p.ai_adopted", "p.created_at",
		"pr.reaction",
	).From("posts p").
		Join("users u ON p.author_id = u.id").
		LeftJoin("post_reactions pr ON pr.post_id = p.id AND pr.user_id = ?", viewerID)
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID, &p.Kind, &p.AuthorID, &p.AuthorName, &p.AuthorDepartment,
		&p.Title, &p.Situation, &p.Approach, &p.Result, &p.Learning,
		&p.Tags, &p.Visibility, &p.VisibilityTarget, &p.EventID,
		&p.Reactions.Like, &p.Reactions.Empathy, &p.Reactions.Helpful, &p.ViewCount,
		&p.AISummary, &p.AIAdopted, &p.CreatedAt,
		&p.MyReaction,
	)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

// visibleTo hides department-scoped posts of other departments
func visibleTo(department string, viewerID int64) squirrel.Sqlizer {
	return squirrel.Or{
		squirrel.NotEq{"p.visibility": string(models.VisibilityDepartment)},
		squirrel.Eq{"p.visibility_target": department},
		squirrel.Eq{"p.author_id": viewerID},
	}
}

func applyPostFilter(builder squirrel.SelectBuilder, filter models.PostFilter, viewerID int64) squirrel.SelectBuilder {
	if filter.Kind != "" {
		builder = builder.Where(squirrel.Eq{"p.kind": string(filter.Kind)})
	}
	if filter.AuthorID > 0 {
		builder = builder.Where(squirrel.Eq{"p.author_id": filter.AuthorID})
	}
	if filter.EventID != "" {
		builder = builder.Where(squirrel.Eq{"p.event_id": filter.EventID})
	}
	if filter.Tag != "" {
		builder = builder.Where("? = ANY(p.tags)", filter.Tag)
	}
	if filter.Unscoped {
		return builder
	}
	return builder.Where(visibleTo(filter.Department, viewerID))
}

// List returns one page of posts, newest first, plus the total match count
func (r *PostRepository) List(ctx context.Context, filter models.PostFilter, viewerID int64, page, size int) ([]models.Post, int64, error) {
	countBuilder := applyPostFilter(psql.Select("count(*)").From("posts p"), filter, viewerID)
	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build post count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	if total == 0 {
		return []models.Post{}, 0, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	sql, args, err := applyPostFilter(r.selectPostQuery(viewerID), filter, viewerID).
		OrderBy("p.created_at DESC", "p.id DESC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build post list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0, limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, total, nil
}

// GetByID retrieves a post with the viewer's current reaction
func (r *PostRepository) GetByID(ctx context.Context, id, viewerID int64) (*models.Post, error) {
	sql, args, err := r.selectPostQuery(viewerID).Where(squirrel.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get post query: %w", err)
	}
	return scanPost(r.db.QueryRow(ctx, sql, args...))
}

// Create inserts a post. A case post linked to an event bumps the event's
// case counter in the same transaction.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := psql.Insert("posts").
			Columns("kind", "author_id", "title", "situation", "approach", "result", "learning",
				"tags", "visibility", "visibility_target", "event_id", "ai_summary").
			Values(post.Kind, post.AuthorID, post.Title, post.Situation, post.Approach, post.Result, post.Learning,
				post.Tags, post.Visibility, post.VisibilityTarget, post.EventID, post.AISummary).
			Suffix("RETURNING id, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build create post query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&post.ID, &post.CreatedAt); err != nil {
			return fmt.Errorf("insert post: %w", err)
		}

		if post.Kind == models.PostKindCase && post.EventID != nil {
			if _, err := tx.Exec(ctx, `UPDATE events SET case_count = case_count + 1 WHERE id = $1`, *post.EventID); err != nil {
				return fmt.Errorf("bump event case count: %w", err)
			}
		}
		return nil
	})
}

// IncrementViewCount records one view of a post
func (r *PostRepository) IncrementViewCount(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE posts SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPostNotFound
	}
	return nil
}

// ToggleReaction selects or clears the user's reaction on a post and returns
// the resulting counters and held reaction. The post row is locked for the
// duration so concurrent toggles on one post serialize.
func (r *PostRepository) ToggleReaction(ctx context.Context, postID, userID int64, reaction models.ReactionType) (models.ReactionCounts, *models.ReactionType, error) {
	var (
		counts models.ReactionCounts
		next   *models.ReactionType
	)

	err := r.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT like_count, empathy_count, helpful_count
			FROM posts WHERE id = $1 FOR UPDATE`,
			postID).Scan(&counts.Like, &counts.Empathy, &counts.Helpful)
		if err != nil {
			if dberrors.IsNoRows(err) {
				return apperrors.ErrPostNotFound
			}
			return fmt.Errorf("lock post: %w", err)
		}

		var current *models.ReactionType
		err = tx.QueryRow(ctx, `
			SELECT reaction FROM post_reactions
			WHERE post_id = $1 AND user_id = $2 FOR UPDATE`,
			postID, userID).Scan(&current)
		if err != nil && !dberrors.IsNoRows(err) {
			return fmt.Errorf("load reaction: %w", err)
		}

		next = models.ToggleReaction(current, reaction)

		switch {
		case next == nil:
			_, err = tx.Exec(ctx, `DELETE FROM post_reactions WHERE post_id = $1 AND user_id = $2`, postID, userID)
		default:
			_, err = tx.Exec(ctx, `
				INSERT INTO post_reactions (post_id, user_id, reaction) VALUES ($1, $2, $3)
				ON CONFLICT ON CONSTRAINT post_reactions_post_user_key
				DO UPDATE SET reaction = EXCLUDED.reaction, created_at = NOW()`,
				postID, userID, *next)
		}
		if err != nil {
			return fmt.Errorf("save reaction: %w", err)
		}

		counts = counts.ApplyToggle(current, next)
		set := make(map[string]interface{}, len(reactionColumns))
		for r, col := range reactionColumns {
			set[col] = counts.Get(r)
		}
		sql, args, err := psql.Update("posts").SetMap(set).Where(squirrel.Eq{"id": postID}).ToSql()
		if err != nil {
			return fmt.Errorf("build counter update: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("update counters: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.ReactionCounts{}, nil, err
	}
	return counts, next, nil
}

// SetAdopted flags a post as adopted into the AI knowledge base
func (r *PostRepository) SetAdopted(ctx context.Context, id int64, adopted bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE posts SET ai_adopted = $1 WHERE id = $2`, adopted, id)
	if err != nil {
		return fmt.Errorf("set adopted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPostNotFound
	}
	return nil
}

// CountByAuthor returns how many posts a user wrote
func (r *PostRepository) CountByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM posts WHERE author_id = $1`, authorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts by author: %w", err)
	}
	return n, nil
}
