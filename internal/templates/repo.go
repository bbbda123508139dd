package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/marathon/internal/telemetry/tracing"
	"github.com/2beens/marathon/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Upsert inserts the template or replaces the one with the same type, bumping its version.
func (r *Repo) Upsert(ctx context.Context, t Template) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("template.type", t.Type.String()))

	variables := t.Variables
	if variables == nil {
		// nil encodes as NULL
		variables = []string{}
	}

	var version int
	err = r.db.QueryRow(ctx, `
		INSERT INTO notification_template (type, slug, category, subject, html_body, text_body, variables, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, now())
		ON CONFLICT (type) DO UPDATE SET
			slug = EXCLUDED.slug,
			category = EXCLUDED.category,
			subject = EXCLUDED.subject,
			html_body = EXCLUDED.html_body,
			text_body = EXCLUDED.text_body,
			variables = EXCLUDED.variables,
			version = notification_template.version + 1,
			updated_at = now()
		RETURNING version
	`,
		t.Type, t.Slug, t.Category, t.Subject, t.HTMLBody, t.TextBody, variables,
	).Scan(&version)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			owner, ownerErr := r.slugOwner(ctx, t.Slug)
			if ownerErr != nil {
				return 0, fmt.Errorf("find slug owner: %w", ownerErr)
			}
			return 0, &DuplicateSlugError{Slug: t.Slug, OwnerType: owner}
		}
		return 0, err
	}
	return version, nil
}

func (r *Repo) slugOwner(ctx context.Context, slug string) (Type, error) {
	var owner Type
	err := r.db.QueryRow(ctx, `SELECT type FROM notification_template WHERE slug = $1`, slug).Scan(&owner)
	return owner, err
}

// Get returns the template of the given type, validated the way Register validates it.
func (r *Repo) Get(ctx context.Context, templateType Type) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("template.type", templateType.String()))

	t := &Template{}
	err = r.db.QueryRow(ctx, `
		SELECT type, slug, category, subject, html_body, text_body, variables, version
		FROM notification_template
		WHERE type = $1
	`, templateType).Scan(&t.Type, &t.Slug, &t.Category, &t.Subject, &t.HTMLBody, &t.TextBody, &t.Variables, &t.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &TemplateNotFoundError{Type: templateType}
		}
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("stored template %s: %w", templateType, err)
	}
	return t, nil
}

func (r *Repo) List(ctx context.Context) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT type, slug, category, subject, html_body, text_body, variables, version
		FROM notification_template
		ORDER BY type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]Template, 0)
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.Type, &t.Slug, &t.Category, &t.Subject, &t.HTMLBody, &t.TextBody, &t.Variables, &t.Version); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
