package etl

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tribodata/oilwatch_backend/config"
	"github.com/tribodata/oilwatch_backend/models"
	"github.com/tribodata/oilwatch_backend/utils"
	"gorm.io/gorm"
)

// LoginRequest is the credentials payload of the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}

		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not ready"})
			return
		}

		var user models.User
		err := db.WithContext(c.Request.Context()).
			Where("username = ? AND is_active = ?", strings.TrimSpace(req.Username), true).
			Take(&user).Error
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err := utils.ComparePassword(user.Password, req.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := utils.JwtGenerate(user.ID, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := config.SetRedisValue("Token:"+token, user.Username, utils.TokenLifespan()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		// Cached so /me and future handlers skip the user lookup.
		_ = config.SetRedisObject("User:"+user.Username, user, utils.TokenLifespan())

		c.JSON(http.StatusOK, gin.H{
			"token":    token,
			"username": user.Username,
			"role":     user.Role,
		})
	}
}

// MeHandler returns the authenticated user, from the redis cache when the
// login is recent enough and from the database otherwise.
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := resolveActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var user models.User
		exists, err := config.GetRedisObject("User:"+username, &user)
		if err != nil || !exists {
			db := config.GetDB()
			if err := db.WithContext(c.Request.Context()).
				Where("username = ?", username).Take(&user).Error; err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
		}
		c.JSON(http.StatusOK, user)
	}
}

// StatusHandler reports whether the integration is enabled plus the most
// recent run, for the dashboard's health card.
func StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := resolveActor(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		db := config.GetDB()
		var runs []models.EtlRun
		if err := db.WithContext(c.Request.Context()).
			Order("id desc").Limit(1).Find(&runs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resp := gin.H{"enabled": config.IntertekAPIEnabled()}
		if len(runs) > 0 {
			resp["lastRun"] = mapRunToResponse(runs[0])
		}
		c.JSON(http.StatusOK, resp)
	}
}

func TriggerRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := resolveActor(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !config.IntertekAPIEnabled() {
			c.JSON(http.StatusConflict, gin.H{"error": "lab integration is disabled"})
			return
		}

		// Body is optional: an empty trigger runs with default parameters.
		var req TriggerRunRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}

		db := config.GetDB()
		run, err := CreateRun(c.Request.Context(), db, req.Params, models.EtlTriggeredManual, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if err := PublishEtlRun(c.Request.Context(), run.ID); err != nil {
			// No worker will ever pick this run up; fail it now so the
			// history does not show a forever-queued run.
			_ = finalizeRun(c.Request.Context(), db, run, nil, nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue run"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": run.ID})
	}
}

func RunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := resolveActor(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit := 20
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		db := config.GetDB()
		var runs []models.EtlRun
		if err := db.WithContext(c.Request.Context()).
			Order("id desc").Limit(limit).Find(&runs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		items := make([]RunResponse, 0, len(runs))
		for _, run := range runs {
			items = append(items, mapRunToResponse(run))
		}
		c.JSON(http.StatusOK, RunHistoryResponse{Items: items})
	}
}

func RunDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := resolveActor(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		db := config.GetDB()
		var run models.EtlRun
		if err := db.WithContext(c.Request.Context()).Take(&run, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var errs []models.EtlRunError
		if err := db.WithContext(c.Request.Context()).
			Where("etl_run_id = ?", run.ID).Order("id desc").Find(&errs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resp := RunDetailResponse{
			RunResponse:    mapRunToResponse(run),
			FailureMessage: run.FailureMessage,
			FileArchiveURL: run.FileArchiveURL,
			Params:         DecodeRunParams(run.ParamsJSON),
			Errors:         mapErrors(errs),
		}
		c.JSON(http.StatusOK, resp)
	}
}

// RetryRunHandler queues a fresh run with the original run's parameters.
// The new run points at its parent so the lineage stays visible.
func RetryRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := resolveActor(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		db := config.GetDB()
		var run models.EtlRun
		if err := db.WithContext(c.Request.Context()).Take(&run, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		newRun, err := CreateRun(c.Request.Context(), db, DecodeRunParams(run.ParamsJSON), models.EtlTriggeredRetry, &run.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if err := PublishEtlRun(c.Request.Context(), newRun.ID); err != nil {
			_ = finalizeRun(c.Request.Context(), db, newRun, nil, nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue run"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": newRun.ID})
	}
}

func resolveActor(c *gin.Context) (string, error) {
	username, ok := utils.GetUsernameFromContext(c.Request.Context())
	if !ok || strings.TrimSpace(username) == "" {
		return "", errors.New("unauthorized")
	}
	return username, nil
}
