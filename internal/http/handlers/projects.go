package handlers

import (
	"bytes"
	"errors"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "fieldtrend/internal/db"
	ui "fieldtrend/web"
)

func renderPage(ctx *fasthttp.RequestCtx, name string, data any) {
	t := ui.Templates().Lookup(name)
	if t == nil {
		errResponse(ctx, fasthttp.StatusInternalServerError, "template not found: "+name)
		return
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		errResponse(ctx, fasthttp.StatusInternalServerError, "render error")
		return
	}
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}

// ProjectsPage lists all registered projects and, for admins, offers the
// registration form.
func ProjectsPage(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		projects, err := dbpkg.ListProjects(db)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to list projects")
			return
		}

		renderPage(ctx, "projects.html", map[string]any{
			"User":     user,
			"IsAdmin":  user.IsAdmin,
			"Projects": projects,
		})
	}
}

// ProjectPage shows one project: its known fields and most recent points.
func ProjectPage(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		slug, _ := ctx.UserValue("slug").(string)
		prj, err := dbpkg.GetProjectBySlug(db, slug)
		if err != nil {
			storeError(ctx, err)
			return
		}

		points, err := dbpkg.ListRecentPoints(db, prj, 20)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load points")
			return
		}

		renderPage(ctx, "project_detail.html", map[string]any{
			"User":    user,
			"Project": prj,
			"Points":  points,
		})
	}
}

// CreateProjectHandler registers a new project. Admin-only; a duplicate
// slug is a conflict and leaves the existing project untouched.
func CreateProjectHandler(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		if !user.IsAdmin {
			errResponse(ctx, fasthttp.StatusForbidden, "admin privileges required")
			return
		}

		slug := string(ctx.PostArgs().Peek("slug"))
		title := string(ctx.PostArgs().Peek("title"))
		apiKey := string(ctx.PostArgs().Peek("api_key"))

		if _, err := dbpkg.CreateProject(db, slug, title, apiKey); err != nil {
			if errors.Is(err, dbpkg.ErrConflict) {
				errResponse(ctx, fasthttp.StatusConflict, "project slug already registered")
				return
			}
			storeError(ctx, err)
			return
		}

		ctx.Redirect("/", fasthttp.StatusSeeOther)
	}
}
