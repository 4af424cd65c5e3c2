package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/middlewares"
	"github.com/mmdatafocus/distribution_backend/models"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/mmdatafocus/distribution_backend/workflow"
)

func registerVisits(r gin.IRouter, uploader Uploader) {
	g := r.Group("/visits", middlewares.RequireUser())
	g.GET("", listVisits)
	g.POST("", createVisit)
	g.GET("/:id", func(c *gin.Context) {
		visit, err := loadVisit(c)
		if err != nil {
			respondError(c, "getVisit", err)
			return
		}
		respondOK(c, http.StatusOK, visit)
	})
	g.DELETE("/:id", func(c *gin.Context) {
		visit, err := loadVisit(c)
		if err != nil {
			respondError(c, "deleteVisit", err)
			return
		}
		deleted, err := models.DeleteVisit(c.Request.Context(), currentUser(c), visit.ID)
		if err != nil {
			respondError(c, "deleteVisit", err)
			return
		}
		respondOK(c, http.StatusOK, deleted)
	})
	g.POST("/:id/photo", func(c *gin.Context) {
		visit, err := loadVisit(c)
		if err != nil {
			respondError(c, "uploadVisitPhoto", err)
			return
		}
		file, err := readUpload(c, "file")
		if err != nil {
			respondError(c, "uploadVisitPhoto", err)
			return
		}
		if !utils.IsImageMimeType(file.MimeType) {
			respondError(c, "uploadVisitPhoto", forms.FieldErrors{"file": "must be an image"})
			return
		}
		stored, err := uploader.Store(c.Request.Context(), "visits", file)
		if err != nil {
			respondError(c, "uploadVisitPhoto", err)
			return
		}
		updated, err := models.SetVisitPhoto(c.Request.Context(), visit.ID, stored.URL, stored.ThumbnailURL)
		if err != nil {
			respondError(c, "uploadVisitPhoto", err)
			return
		}
		respondOK(c, http.StatusOK, updated)
	})
}

func loadVisit(c *gin.Context) (*models.Visit, error) {
	id, err := paramId(c)
	if err != nil {
		return nil, err
	}
	visit, err := models.GetVisit(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanAccessRecord(currentUser(c), visit.CreatedBy) {
		return nil, utils.ErrorForbidden
	}
	return visit, nil
}

func listVisits(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, "listVisits", err)
		return
	}
	visits, total, err := models.ListVisits(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondError(c, "listVisits", err)
		return
	}
	respondOK(c, http.StatusOK, listPage{Items: visits, Total: total})
}

func createVisit(c *gin.Context) {
	var input models.NewVisit
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, "createVisit", forms.FieldErrors{"body": "invalid request body"})
		return
	}
	visit, err := models.CreateVisit(c.Request.Context(), currentUser(c), &input)
	if err != nil {
		respondError(c, "createVisit", err)
		return
	}
	respondOK(c, http.StatusCreated, visit)
}
