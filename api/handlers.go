package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"tracklane-api/domain"
)

// maxBodySize caps request bodies; task payloads and reorder batches are
// small JSON documents.
const maxBodySize = 1 << 20

const idempotencyKeyHeader = "Idempotency-Key"

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, deduper Deduper, logger *log.Logger) {
	tasks := domain.NewTaskService(store)
	analytics := domain.NewAnalyticsService(store)

	e.GET("/api/tasks", getTasks(tasks, auth, logger))
	e.POST("/api/tasks", postTask(tasks, auth))
	e.GET("/api/tasks/:id", getTask(tasks, auth))
	e.PATCH("/api/tasks/:id", patchTask(tasks, auth))
	e.DELETE("/api/tasks/:id", deleteTask(tasks, auth))
	e.POST("/api/tasks/reorder", postReorder(tasks, auth, deduper))
	e.GET("/api/projects/:projectId/analytics", getProjectAnalytics(analytics, auth))
	e.GET("/healthz", healthz(store))
}

type tasksResponse struct {
	Tasks []domain.TaskDetail `json:"tasks"`
}

type reorderRequest struct {
	Tasks []domain.ReorderEntry `json:"tasks"`
}

type reorderResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

type deletedResponse struct {
	ID string `json:"id"`
}

func healthz(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.Ping(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, "storage unreachable")
		}
		return c.NoContent(http.StatusOK)
	}
}

func getTasks(tasks domain.TaskService, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		filter := domain.TaskFilter{
			WorkspaceID: c.QueryParam("workspaceId"),
			ProjectID:   c.QueryParam("projectId"),
			AssigneeID:  c.QueryParam("assigneeId"),
			Search:      c.QueryParam("search"),
		}
		if raw := c.QueryParam("status"); raw != "" {
			status, parseErr := domain.ParseTaskStatus(raw)
			if parseErr != nil {
				metrics.SetErrorStage("invalid_status")
				err = c.String(http.StatusBadRequest, parseErr.Error())
				return err
			}
			filter.Status = &status
		}
		if raw := c.QueryParam("dueDate"); raw != "" {
			day, parseErr := parseDueDate(raw)
			if parseErr != nil {
				metrics.SetErrorStage("invalid_due_date")
				err = c.String(http.StatusBadRequest, "invalid dueDate")
				return err
			}
			filter.DueDate = &day
		}
		metrics.SetFiltered(filter.ProjectID != "" || filter.AssigneeID != "" ||
			filter.Status != nil || filter.Search != "" || filter.DueDate != nil)

		fetchStart := time.Now()
		details, listErr := tasks.List(ctx, userID, filter)
		metrics.ObserveFetch(time.Since(fetchStart))
		if listErr != nil {
			metrics.SetErrorStage(errorStage(listErr))
			err = respondDomainError(c, listErr)
			return err
		}
		metrics.SetTasksReturned(len(details))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasksResponse{Tasks: details})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func postTask(tasks domain.TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var in domain.CreateTaskInput
		if err := decodeBody(c, &in); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		task, err := tasks.Create(c.Request().Context(), userID, in)
		if err != nil {
			return respondDomainError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func getTask(tasks domain.TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		detail, err := tasks.Get(c.Request().Context(), userID, c.Param("id"))
		if err != nil {
			return respondDomainError(c, err)
		}
		return c.JSON(http.StatusOK, detail)
	}
}

func patchTask(tasks domain.TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var in domain.UpdateTaskInput
		if err := decodeBody(c, &in); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		task, err := tasks.Update(c.Request().Context(), userID, c.Param("id"), in)
		if err != nil {
			return respondDomainError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(tasks domain.TaskService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		id := c.Param("id")
		if err := tasks.Delete(c.Request().Context(), userID, id); err != nil {
			return respondDomainError(c, err)
		}
		return c.JSON(http.StatusOK, deletedResponse{ID: id})
	}
}

func postReorder(tasks domain.TaskService, auth Authenticator, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var req reorderRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		// A retried commit with the same key is answered from the current
		// store state instead of being re-applied on top of later drags.
		// The replay runs the same admission checks as a fresh commit.
		idemKey := c.Request().Header.Get(idempotencyKeyHeader)
		if idemKey != "" && deduper != nil {
			added, dedupeErr := deduper.Add(ctx, userID, idemKey)
			if dedupeErr != nil {
				c.Logger().Error(dedupeErr)
				return c.String(http.StatusInternalServerError, "idempotency check failed")
			}
			if !added {
				current, replayErr := tasks.ReplayReorder(ctx, userID, req.Tasks)
				if replayErr != nil {
					return respondDomainError(c, replayErr)
				}
				return c.JSON(http.StatusOK, reorderResponse{Tasks: current})
			}
		}

		updated, err := tasks.BulkReorder(ctx, userID, req.Tasks)
		if err != nil {
			if idemKey != "" && deduper != nil {
				if rmErr := deduper.Remove(ctx, userID, idemKey); rmErr != nil {
					c.Logger().Errorf("idempotency rollback failed: %v", rmErr)
				}
			}
			return respondDomainError(c, err)
		}
		return c.JSON(http.StatusOK, reorderResponse{Tasks: updated})
	}
}

func getProjectAnalytics(analytics domain.AnalyticsService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		report, err := analytics.ProjectAnalytics(c.Request().Context(), userID, c.Param("projectId"))
		if err != nil {
			return respondDomainError(c, err)
		}
		return c.JSON(http.StatusOK, report)
	}
}

func decodeBody(c echo.Context, dst any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseDueDate accepts a plain calendar date or a full timestamp; either way
// only the UTC day matters for the filter.
func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func respondDomainError(c echo.Context, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return c.String(http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrTaskNotFound), errors.Is(err, domain.ErrProjectNotFound):
		return c.String(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrMixedWorkspaces):
		return c.String(http.StatusBadRequest, err.Error())
	case errors.As(err, &verr):
		return c.String(http.StatusBadRequest, verr.Error())
	default:
		c.Logger().Error(err)
		return c.String(http.StatusInternalServerError, err.Error())
	}
}

func errorStage(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.As(err, &verr):
		return "validation"
	default:
		return "storage"
	}
}
