package repositories

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/slug"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// orderColumns whitelists the orderings a caller may request.
var orderColumns = map[string]string{
	"created_at":   "r.created_at",
	"cooking_time": "r.cooking_time",
	"title":        "r.title",
}

// recipeSelect selects recipes with author summary, aggregates and the
// viewer's like/favorite flags. uuid.Nil as viewer yields false flags.
func recipeSelect(viewerID uuid.UUID) sq.SelectBuilder {
	return psql.Select(
		"r.recipe_id", "r.title", "r.slug", "r.author_id", "r.description", "r.ingredients",
		"r.instructions", "r.cooking_time", "r.servings", "r.difficulty", "r.image", "r.status",
		"r.created_at", "r.updated_at",
		"u.username AS author_username", "u.first_name AS author_first_name", "u.last_name AS author_last_name",
		"(SELECT COUNT(*) FROM likes l WHERE l.recipe_id = r.recipe_id) AS likes_count",
		"(SELECT COUNT(*) FROM comments c WHERE c.recipe_id = r.recipe_id) AS comments_count",
	).
		Column("EXISTS (SELECT 1 FROM likes l WHERE l.recipe_id = r.recipe_id AND l.user_id = ?) AS is_liked", viewerID).
		Column("EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.recipe_id AND f.user_id = ?) AS is_favorited", viewerID).
		From("recipes r").
		Join("users u ON u.user_id = r.author_id")
}

// visibleTo is the list form of the visibility rule: published, or owned by the viewer.
func visibleTo(viewerID uuid.UUID) sq.Sqlizer {
	published := sq.Eq{"r.status": string(models.StatusPublished)}
	if viewerID == uuid.Nil {
		return published
	}
	return sq.Or{published, sq.Expr("r.author_id = ?", viewerID)}
}

// tagExists matches recipes linked to a tag satisfying cond.
func tagExists(cond sq.Sqlizer) (string, []any, error) {
	sub, args, err := sq.Select("1").
		From("recipe_tags rt").
		Join("tags t ON t.tag_id = rt.tag_id").
		Where("rt.recipe_id = r.recipe_id").
		Where(cond).
		ToSql()
	if err != nil {
		return "", nil, err
	}
	return "EXISTS (" + sub + ")", args, nil
}

func applyFilter(b sq.SelectBuilder, f models.RecipeFilter) (sq.SelectBuilder, error) {
	b = b.Where(visibleTo(f.ViewerID))

	if f.OnlyOwn {
		b = b.Where("r.author_id = ?", f.ViewerID)
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		match := sq.Or{
			sq.ILike{"r.title": pattern},
			sq.ILike{"r.description": pattern},
			sq.ILike{"r.ingredients": pattern},
		}
		if f.SearchTags {
			cond, args, err := tagExists(sq.ILike{"t.name": pattern})
			if err != nil {
				return b, err
			}
			match = append(match, sq.Expr(cond, args...))
		}
		b = b.Where(match)
	}

	if f.Difficulty != "" {
		b = b.Where(sq.Eq{"r.difficulty": string(f.Difficulty)})
	}
	if f.MaxCookingTime > 0 {
		b = b.Where(sq.LtOrEq{"r.cooking_time": f.MaxCookingTime})
	}
	if f.CookingTime > 0 {
		b = b.Where(sq.Eq{"r.cooking_time": f.CookingTime})
	}
	if f.AuthorID != uuid.Nil {
		b = b.Where("r.author_id = ?", f.AuthorID)
	}
	if f.AuthorUsername != "" {
		b = b.Where(sq.Eq{"u.username": f.AuthorUsername})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"r.status": string(f.Status)})
	}
	if len(f.Tags) > 0 {
		cond, args, err := tagExists(sq.Eq{"t.name": f.Tags})
		if err != nil {
			return b, err
		}
		b = b.Where(cond, args...)
	}
	if f.TagSlug != "" {
		cond, args, err := tagExists(sq.Eq{"t.slug": f.TagSlug})
		if err != nil {
			return b, err
		}
		b = b.Where(cond, args...)
	}
	if f.FavoritedBy != uuid.Nil {
		b = b.Where("EXISTS (SELECT 1 FROM favorites fv WHERE fv.recipe_id = r.recipe_id AND fv.user_id = ?)", f.FavoritedBy)
	}

	return b, nil
}

// orderBy turns "-title" into "r.title DESC". Unknown fields fall back to newest first.
func orderBy(ordering string) string {
	dir := "ASC"
	field := ordering
	if strings.HasPrefix(field, "-") {
		dir = "DESC"
		field = field[1:]
	}
	col, ok := orderColumns[field]
	if !ok {
		return "r.created_at DESC"
	}
	return col + " " + dir
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// RecipeReadRepository handles recipe queries. Reads join the request
// transaction when one is open so a handler sees its own writes.
type RecipeReadRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewRecipeReadRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *RecipeReadRepository {
	return &RecipeReadRepository{db: db, txGetter: txGetter}
}

// GetBySlug loads a recipe regardless of status. Visibility is decided by the caller.
func (r *RecipeReadRepository) GetBySlug(ctx context.Context, recipeSlug string, viewerID uuid.UUID) (models.Recipe, error) {
	return r.getOne(ctx, recipeSelect(viewerID).Where(sq.Eq{"r.slug": recipeSlug}))
}

// GetByID loads a recipe regardless of status. Visibility is decided by the caller.
func (r *RecipeReadRepository) GetByID(ctx context.Context, recipeID, viewerID uuid.UUID) (models.Recipe, error) {
	return r.getOne(ctx, recipeSelect(viewerID).Where("r.recipe_id = ?", recipeID))
}

func (r *RecipeReadRepository) getOne(ctx context.Context, b sq.SelectBuilder) (models.Recipe, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return models.Recipe{}, err
	}

	var recipe models.Recipe
	err = sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &recipe, query, args...)

	logQuery(query, args, recipe.Slug, err)

	if err != nil {
		return models.Recipe{}, translate(err)
	}

	recipes := []models.Recipe{recipe}
	if err := r.attachTags(ctx, recipes); err != nil {
		return models.Recipe{}, err
	}
	return recipes[0], nil
}

// List returns one page of recipes visible to f.ViewerID and the total match count.
func (r *RecipeReadRepository) List(ctx context.Context, f models.RecipeFilter) ([]models.Recipe, int, error) {
	countBuilder, err := applyFilter(psql.Select("COUNT(*)").From("recipes r").Join("users u ON u.user_id = r.author_id"), f)
	if err != nil {
		return nil, 0, err
	}
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &total, countQuery, countArgs...)

	logQuery(countQuery, countArgs, total, err)

	if err != nil {
		return nil, 0, err
	}

	listBuilder, err := applyFilter(recipeSelect(f.ViewerID), f)
	if err != nil {
		return nil, 0, err
	}
	listBuilder = listBuilder.OrderBy(orderBy(f.Ordering), "r.recipe_id")
	if f.PageSize > 0 {
		listBuilder = listBuilder.Limit(uint64(f.PageSize)).Offset(uint64(f.Offset()))
	}

	query, args, err := listBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	recipes := []models.Recipe{}
	err = sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &recipes, query, args...)

	logQuery(query, args, len(recipes), err)

	if err != nil {
		return nil, 0, err
	}

	if err := r.attachTags(ctx, recipes); err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// attachTags fills Tags on every recipe with one query.
func (r *RecipeReadRepository) attachTags(ctx context.Context, recipes []models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(recipes))
	for i, rec := range recipes {
		ids[i] = rec.RecipeID
	}

	query, args, err := sqlx.In(`
		SELECT rt.recipe_id, t.name
		FROM recipe_tags rt
		JOIN tags t ON t.tag_id = rt.tag_id
		WHERE rt.recipe_id IN (?)
		ORDER BY t.name
	`, ids)
	if err != nil {
		return err
	}
	query = r.db.Rebind(query)

	var rows []struct {
		RecipeID uuid.UUID `db:"recipe_id"`
		Name     string    `db:"name"`
	}
	err = sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &rows, query, args...)

	logQuery(query, args, len(rows), err)

	if err != nil {
		return err
	}

	byRecipe := make(map[uuid.UUID][]string, len(recipes))
	for _, row := range rows {
		byRecipe[row.RecipeID] = append(byRecipe[row.RecipeID], row.Name)
	}
	for i := range recipes {
		recipes[i].Tags = byRecipe[recipes[i].RecipeID]
		if recipes[i].Tags == nil {
			recipes[i].Tags = []string{}
		}
	}
	return nil
}

// SlugsWithBase returns the slugs that collide with base exactly or as base-N,
// skipping the recipe identified by exclude.
func (r *RecipeReadRepository) SlugsWithBase(ctx context.Context, base string, exclude uuid.UUID) ([]string, error) {
	const query = `
		SELECT slug
		FROM recipes
		WHERE slug ~ $1 AND recipe_id <> $2
	`
	args := []any{slug.Pattern(base), exclude}

	slugs := []string{}
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &slugs, query, args...)

	logQuery(query, args, slugs, err)

	return slugs, err
}

// ListTags returns the tags ordered by how many recipes use them.
func (r *RecipeReadRepository) ListTags(ctx context.Context, limit int) ([]models.Tag, error) {
	const query = `
		SELECT t.tag_id, t.name, t.slug
		FROM tags t
		JOIN recipe_tags rt ON rt.tag_id = t.tag_id
		GROUP BY t.tag_id, t.name, t.slug
		ORDER BY COUNT(*) DESC, t.name
		LIMIT $1
	`
	args := []any{limit}

	tags := []models.Tag{}
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &tags, query, args...)

	logQuery(query, args, len(tags), err)

	return tags, err
}

// GetTag returns the tag with the given slug or ErrNotFound.
func (r *RecipeReadRepository) GetTag(ctx context.Context, tagSlug string) (models.Tag, error) {
	const query = `SELECT tag_id, name, slug FROM tags WHERE slug = $1`

	var tag models.Tag
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &tag, query, tagSlug)

	logQuery(query, []any{tagSlug}, tag, err)

	return tag, translate(err)
}

// Stats counts recipes per status.
func (r *RecipeReadRepository) Stats(ctx context.Context) (models.RecipeStats, error) {
	const query = `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = 'published') AS published,
		       COUNT(*) FILTER (WHERE status = 'draft') AS draft
		FROM recipes
	`

	var stats models.RecipeStats
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &stats, query)

	logQuery(query, nil, stats, err)

	return stats, err
}

// RecipeWriteRepository handles recipe writes
type RecipeWriteRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewRecipeWriteRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *RecipeWriteRepository {
	return &RecipeWriteRepository{db: db, txGetter: txGetter}
}

// Create inserts a recipe and links its tags. A taken slug comes back as *DuplicateError.
func (r *RecipeWriteRepository) Create(ctx context.Context, recipe *models.RecipeDB, tags []string) error {
	query := `
		INSERT INTO recipes (recipe_id, title, slug, author_id, description, ingredients, instructions,
		                     cooking_time, servings, difficulty, image, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	if recipe.RecipeID == uuid.Nil {
		recipe.RecipeID = uuid.New()
	}
	args := []any{
		recipe.RecipeID, recipe.Title, recipe.Slug, recipe.AuthorID, recipe.Description, recipe.Ingredients,
		recipe.Instructions, recipe.CookingTime, recipe.Servings, string(recipe.Difficulty), recipe.Image, string(recipe.Status),
	}

	ex := executor(ctx, r.db, r.txGetter)
	err := ex.QueryRowxContext(ctx, query, args...).Scan(&recipe.CreatedAt, &recipe.UpdatedAt)

	logQuery(query, args, recipe.CreatedAt, err)

	if err != nil {
		return translate(err)
	}
	return r.linkTags(ctx, ex, recipe.RecipeID, tags, false)
}

// Update rewrites the editable columns and replaces the tag set.
func (r *RecipeWriteRepository) Update(ctx context.Context, recipe *models.RecipeDB, tags []string) error {
	query := `
		UPDATE recipes
		SET title = $2, slug = $3, description = $4, ingredients = $5, instructions = $6,
		    cooking_time = $7, servings = $8, difficulty = $9, image = $10, status = $11, updated_at = NOW()
		WHERE recipe_id = $1
		RETURNING updated_at
	`
	args := []any{
		recipe.RecipeID, recipe.Title, recipe.Slug, recipe.Description, recipe.Ingredients, recipe.Instructions,
		recipe.CookingTime, recipe.Servings, string(recipe.Difficulty), recipe.Image, string(recipe.Status),
	}

	ex := executor(ctx, r.db, r.txGetter)
	err := ex.QueryRowxContext(ctx, query, args...).Scan(&recipe.UpdatedAt)

	logQuery(query, args, recipe.UpdatedAt, err)

	if err != nil {
		return translate(err)
	}
	return r.linkTags(ctx, ex, recipe.RecipeID, tags, true)
}

// linkTags upserts tags by name and links them to the recipe.
func (r *RecipeWriteRepository) linkTags(ctx context.Context, ex sqlx.ExtContext, recipeID uuid.UUID, tags []string, replace bool) error {
	if replace {
		query := `DELETE FROM recipe_tags WHERE recipe_id = $1`
		_, err := ex.ExecContext(ctx, query, recipeID)

		logQuery(query, []any{recipeID}, nil, err)

		if err != nil {
			return err
		}
	}

	const upsertTag = `
		WITH ins AS (
			INSERT INTO tags (name, slug) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
			RETURNING tag_id
		)
		SELECT tag_id FROM ins
		UNION ALL
		(SELECT tag_id FROM tags WHERE name = $1)
		UNION ALL
		(SELECT tag_id FROM tags WHERE slug = $2)
		LIMIT 1
	`
	const link = `
		INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	for _, name := range tags {
		args := []any{name, slug.Slugify(name)}

		var tagID int64
		err := sqlx.GetContext(ctx, ex, &tagID, upsertTag, args...)

		logQuery(upsertTag, args, tagID, err)

		if err != nil {
			return translate(err)
		}

		_, err = ex.ExecContext(ctx, link, recipeID, tagID)

		logQuery(link, []any{recipeID, tagID}, nil, err)

		if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a recipe; comments, likes, favorites and tag links cascade.
func (r *RecipeWriteRepository) Delete(ctx context.Context, recipeID uuid.UUID) error {
	query := `DELETE FROM recipes WHERE recipe_id = $1`

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, recipeID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logQuery(query, []any{recipeID}, rowsAffected, err)

	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus moves the recipes with the given slugs to status and reports how many changed.
func (r *RecipeWriteRepository) SetStatus(ctx context.Context, slugs []string, status models.Status) (int64, error) {
	if len(slugs) == 0 {
		return 0, nil
	}

	query, args, err := psql.Update("recipes").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"slug": slugs}).
		Where(sq.NotEq{"status": string(status)}).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logQuery(query, args, rowsAffected, err)

	return rowsAffected, err
}
