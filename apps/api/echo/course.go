package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/discount"
	"github.com/darasa-app/darasa/core/enrollment"
	"github.com/darasa-app/darasa/core/experiment"
	"github.com/darasa-app/darasa/core/teams"
	"github.com/darasa-app/darasa/core/user"
)

var (
	errInvalidCourseKey  = echo.NewHTTPError(http.StatusBadRequest, "invalid course key")
	errDiscussionHidden  = echo.NewHTTPError(http.StatusForbidden, teams.ErrDiscussionHidden.Error())
	errCourseNotFoundAPI = echo.NewHTTPError(http.StatusNotFound, "course not found")
)

type courseApi struct {
	userSvc     *user.Service
	courses     course.Repository
	outlines    *course.Service
	discounts   *discount.Service
	experiments *experiment.Service
	enrollments enrollment.Repository
	teams       *teams.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, api *courseApi) {
	cg := g.Group("/courses", jwt)
	cg.GET("/:id/outline", api.outline)
	cg.GET("/:id/resume", api.resume)
	cg.GET("/:id/offer", api.offer)
	cg.GET("/:id/context", api.courseContext)

	dg := g.Group("/discussions", jwt)
	dg.GET("/:id/visible", api.discussionVisible)
}

// Handlers

func (api *courseApi) outline(ctx echo.Context) error {
	key, err := course.ParseCourseKey(ctx.Param("id"))
	if err != nil {
		return errInvalidCourseKey
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// the cache is request-scoped: outline and resume lookups within one
	// request share a single decorated tree
	root, err := api.outlines.Outline(ctx.Request().Context(), course.NewOutlineCache(), ctxUsr.ID, key)
	if err != nil {
		return errors.Wrap(err, "getting course outline")
	}
	if root == nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, root)
}

func (api *courseApi) resume(ctx echo.Context) error {
	key, err := course.ParseCourseKey(ctx.Param("id"))
	if err != nil {
		return errInvalidCourseKey
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	block, err := api.outlines.ResumeBlock(ctx.Request().Context(), course.NewOutlineCache(), ctxUsr.ID, key)
	if err != nil {
		return errors.Wrap(err, "getting resume block")
	}
	if block == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	return ctx.JSON(http.StatusOK, block)
}

func (api *courseApi) offer(ctx echo.Context) error {
	crs, ctxUsr, err := api.getCourseAndUser(ctx)
	if err != nil {
		return err
	}

	offer, err := api.discounts.Offer(ctx.Request().Context(), ctxUsr, crs)
	if err != nil {
		return errors.Wrap(err, "getting discount offer")
	}
	if offer == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	return ctx.JSON(http.StatusOK, offer)
}

func (api *courseApi) courseContext(ctx echo.Context) error {
	crs, ctxUsr, err := api.getCourseAndUser(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	var enr *enrollment.Enrollment
	if found, err := api.enrollments.GetEnrollment(reqCtx, ctxUsr.ID, crs.Key); err == nil {
		enr = &found
	} else if errors.Cause(err) != enrollment.ErrNotFound {
		return errors.Wrap(err, "getting enrollment")
	}

	data, err := api.experiments.CourseContext(reqCtx, ctxUsr, crs, enr)
	if err != nil {
		return errors.Wrap(err, "assembling course context")
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *courseApi) discussionVisible(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	visible, err := api.teams.DiscussionVisibleToUser(ctx.Request().Context(), ctx.Param("id"), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "checking discussion visibility")
	}
	if !visible {
		return errDiscussionHidden
	}
	return ctx.JSON(http.StatusOK, VisibilityResponse{Visible: true})
}

func (api *courseApi) getCourseAndUser(ctx echo.Context) (course.Course, user.User, error) {
	key, err := course.ParseCourseKey(ctx.Param("id"))
	if err != nil {
		return course.Course{}, user.User{}, errInvalidCourseKey
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return course.Course{}, user.User{}, errors.Wrap(err, "getting context user")
	}
	crs, err := api.courses.GetCourse(ctx.Request().Context(), key)
	if err != nil {
		if errors.Cause(err) == course.ErrCourseNotFound {
			return course.Course{}, user.User{}, errCourseNotFoundAPI
		}
		return course.Course{}, user.User{}, errors.Wrap(err, "getting course")
	}
	return crs, ctxUsr, nil
}

type VisibilityResponse struct {
	Visible bool `json:"visible"`
}
