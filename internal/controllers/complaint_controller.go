package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/campuscare/backend/internal/services"
	"github.com/campuscare/backend/internal/uploads"
	"github.com/gin-gonic/gin"
)

// maxFormSize leaves room for the text fields next to the image.
const maxFormSize = uploads.MaxImageSize + 1<<20

type ComplaintController struct {
	complaints *services.ComplaintService
}

func NewComplaintController(complaints *services.ComplaintService) *ComplaintController {
	return &ComplaintController{complaints: complaints}
}

func optionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// bindMultipart reads a complaint submitted as multipart/form-data with an
// optional "image" file.
func bindMultipart(c *gin.Context) (services.CreateComplaintRequest, error) {
	req := services.CreateComplaintRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Location:    c.PostForm("location"),
	}

	var err error
	if req.Latitude, err = optionalFloat(c.PostForm("latitude")); err != nil {
		return req, fmt.Errorf("invalid latitude")
	}
	if req.Longitude, err = optionalFloat(c.PostForm("longitude")); err != nil {
		return req, fmt.Errorf("invalid longitude")
	}

	header, err := c.FormFile("image")
	if err == http.ErrMissingFile {
		return req, nil
	}
	if err != nil {
		return req, fmt.Errorf("invalid image upload")
	}
	if header.Size > uploads.MaxImageSize {
		return req, fmt.Errorf("image must be at most %d MB", uploads.MaxImageSize>>20)
	}

	file, err := header.Open()
	if err != nil {
		return req, fmt.Errorf("invalid image upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, uploads.MaxImageSize+1))
	if err != nil {
		return req, fmt.Errorf("invalid image upload")
	}
	req.Image = data
	req.ImageName = header.Filename
	return req, nil
}

func (cc *ComplaintController) CreateComplaint(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.CreateComplaintRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFormSize)
		var err error
		if req, err = bindMultipart(c); err != nil {
			badRequest(c, err.Error())
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	complaint, err := cc.complaints.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Complaint submitted successfully",
		"complaint": complaint,
	})
}

// GetComplaints is the admin list, filterable by ?status= and ?department=.
func (cc *ComplaintController) GetComplaints(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	complaints, err := cc.complaints.ListAll(c.Request.Context(), actor, services.ListFilter{
		Status:     c.Query("status"),
		Department: c.Query("department"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "complaints": complaints})
}

func (cc *ComplaintController) GetStudentComplaints(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	complaints, err := cc.complaints.ListMine(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "complaints": complaints})
}

func (cc *ComplaintController) GetDepartmentComplaints(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	complaints, err := cc.complaints.ListDepartment(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "complaints": complaints})
}

func (cc *ComplaintController) GetPublicComplaints(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	complaints, err := cc.complaints.ListPublic(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "complaints": complaints})
}

func (cc *ComplaintController) GetStats(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	stats, err := cc.complaints.Stats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func (cc *ComplaintController) GetComplaint(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	complaint, err := cc.complaints.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "complaint": complaint})
}

// UpdateComplaint applies a status transition.
func (cc *ComplaintController) UpdateComplaint(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req services.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	complaint, err := cc.complaints.Transition(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Complaint updated successfully",
		"complaint": complaint,
	})
}

func (cc *ComplaintController) DeleteComplaint(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := cc.complaints.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Complaint deleted successfully",
	})
}

func (cc *ComplaintController) ToggleUpvote(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	res, err := cc.complaints.ToggleUpvote(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Upvote " + string(res.Action),
		"action":      res.Action,
		"upvoteCount": res.UpvoteCount,
		"hasUpvoted":  res.HasUpvoted,
	})
}
