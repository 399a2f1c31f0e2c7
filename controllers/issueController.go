package controllers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"civiclens-api/lifecycle"
	"civiclens-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IssueWithVotes is the wire shape for an issue: the stored document
// plus the derived vote count.
type IssueWithVotes struct {
	models.Issue
	Upvotes int `json:"upvotes"`
}

func withVotes(issue models.Issue) IssueWithVotes {
	return IssueWithVotes{Issue: issue, Upvotes: issue.Upvotes()}
}

// CreateIssue handles the creation of a new issue. The free-tier
// quota is checked against the reporter's current issue count; the
// Redis throttle in front of this handler only guards against abuse.
func CreateIssue(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var input struct {
		Title       string `json:"title" binding:"required,max=200"`
		Description string `json:"description" binding:"required,max=2000"`
		Category    string `json:"category" binding:"required"`
		Location    string `json:"location" binding:"required,max=200"`
		Image       string `json:"image,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidCategory(input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	existing, err := issueCollection().CountDocuments(ctx, bson.M{"reporterEmail": requester.Email})
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	if err := lifecycle.CheckCreate(requester, existing); err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	issue := models.Issue{
		ID:            primitive.NewObjectID(),
		Title:         input.Title,
		Description:   input.Description,
		Category:      models.IssueCategory(input.Category),
		Location:      input.Location,
		Image:         input.Image,
		Status:        lifecycle.StatusPending,
		Priority:      models.PriorityNormal,
		ReporterName:  requester.Name,
		ReporterEmail: requester.Email,
		ReporterPhoto: requester.Photo,
		UpvotedBy:     []string{},
		Timeline: []models.TimelineEntry{{
			Status: lifecycle.StatusPending,
			Text:   "Issue reported",
			Date:   now,
			User:   requester.Name,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := issueCollection().InsertOne(ctx, issue); err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	c.JSON(http.StatusCreated, withVotes(issue))
}

// GetAllIssues handles retrieving issues with filtering and pagination
func GetAllIssues(c *gin.Context) {
	ctx, cancel := dbCtx()
	defer cancel()

	category := c.Query("category")
	status := c.Query("status")
	priority := c.Query("priority")
	reporter := c.Query("reporter")
	search := c.Query("search")
	sortParam := c.DefaultQuery("sort", "newest")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filter := bson.M{}

	if category != "" && category != "all" {
		filter["category"] = category
	}

	if status != "" && status != "all" {
		canonical, ok := lifecycle.NormalizeStatus(status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		filter["status"] = canonical
	}

	if priority != "" && priority != "all" {
		filter["priority"] = priority
	}

	if reporter != "" {
		filter["reporterEmail"] = reporter
	}

	if search != "" {
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": search, "$options": "i"}},
			{"description": bson.M{"$regex": search, "$options": "i"}},
			{"location": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	skip := (page - 1) * limit

	var sortOptions bson.D
	switch sortParam {
	case "oldest":
		sortOptions = bson.D{{Key: "createdAt", Value: 1}}
	case "newest":
		fallthrough
	default:
		sortOptions = bson.D{{Key: "createdAt", Value: -1}}
	}

	totalCount, err := issueCollection().CountDocuments(ctx, filter)
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	findOptions := options.Find().
		SetSort(sortOptions).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := issueCollection().Find(ctx, filter, findOptions)
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	issuesWithVotes := make([]IssueWithVotes, 0, len(issues))
	for _, issue := range issues {
		issuesWithVotes = append(issuesWithVotes, withVotes(issue))
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"issues":      issuesWithVotes,
		"totalIssues": totalCount,
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

// GetIssue retrieves an issue by its ID
func GetIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	issue, err := findIssue(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, withVotes(*issue))
}

// GetIssueCount returns how many issues an email has reported. The
// report form uses this together with isVerified to warn about the
// free-tier ceiling before submitting.
func GetIssueCount(c *gin.Context) {
	ctx, cancel := dbCtx()
	defer cancel()

	count, err := issueCollection().CountDocuments(ctx, bson.M{"reporterEmail": c.Param("email")})
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GetMyIssues retrieves all issues reported by the requester.
func GetMyIssues(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	email := c.Param("email")
	if requester.Email != email && requester.Role != models.RoleAdmin {
		respondError(c, lifecycle.ErrForbidden)
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	cursor, err := issueCollection().Find(ctx, bson.M{"reporterEmail": email},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	issuesWithVotes := make([]IssueWithVotes, 0, len(issues))
	for _, issue := range issues {
		issuesWithVotes = append(issuesWithVotes, withVotes(issue))
	}

	c.JSON(http.StatusOK, issuesWithVotes)
}

// GetAssignedIssues retrieves the issues assigned to a staff member.
func GetAssignedIssues(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	email := c.Param("email")
	if requester.Email != email && requester.Role != models.RoleAdmin {
		respondError(c, lifecycle.ErrForbidden)
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	cursor, err := issueCollection().Find(ctx, bson.M{"assignedStaff.email": email},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	issuesWithVotes := make([]IssueWithVotes, 0, len(issues))
	for _, issue := range issues {
		issuesWithVotes = append(issuesWithVotes, withVotes(issue))
	}

	c.JSON(http.StatusOK, issuesWithVotes)
}

// UpdateIssue lets the reporting citizen edit the descriptive fields
// while the issue is still pending. The commit pins the pending
// status so an assignment racing in between turns into a conflict
// instead of a lost update.
func UpdateIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var input struct {
		Title       *string `json:"title,omitempty" binding:"omitempty,max=200"`
		Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
		Category    *string `json:"category,omitempty"`
		Location    *string `json:"location,omitempty" binding:"omitempty,max=200"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Category != nil && !models.ValidCategory(*input.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Title != nil {
		update["title"] = *input.Title
	}
	if input.Description != nil {
		update["description"] = *input.Description
	}
	if input.Category != nil {
		update["category"] = *input.Category
	}
	if input.Location != nil {
		update["location"] = *input.Location
	}

	ctx, cancel := dbCtx()
	defer cancel()

	// Validate against fresh state, commit conditionally, retry once.
	for attempt := 0; ; attempt++ {
		issue, err := findIssue(ctx, issueID)
		if err != nil {
			respondError(c, err)
			return
		}

		if err := lifecycle.CheckOwnerEdit(requester, issue); err != nil {
			respondError(c, err)
			return
		}

		result, err := issueCollection().UpdateOne(ctx,
			bson.M{"_id": issueID, "status": lifecycle.StatusPending},
			bson.M{"$set": update})
		if err != nil {
			respondError(c, lifecycle.ErrUpstreamUnavailable)
			return
		}
		if result.MatchedCount > 0 {
			c.JSON(http.StatusOK, gin.H{"message": "Issue updated successfully"})
			return
		}
		if attempt >= 1 {
			respondError(c, lifecycle.ErrConflict)
			return
		}
	}
}

// DeleteIssue removes an issue. Admins always may; the reporter may
// unless it was resolved.
func DeleteIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	issue, err := findIssue(ctx, issueID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := lifecycle.CheckDelete(requester, issue); err != nil {
		respondError(c, err)
		return
	}

	// Pin the status the decision depended on: a resolve landing
	// between the read and the delete must not let the reporter
	// remove a resolved issue. Admins delete unconditionally.
	filter := bson.M{"_id": issueID}
	if requester.Role != models.RoleAdmin {
		filter["status"] = bson.M{"$ne": lifecycle.StatusResolved}
	}

	result, err := issueCollection().DeleteOne(ctx, filter)
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	if result.DeletedCount == 0 {
		respondError(c, lifecycle.ErrConflict)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully", "deletedCount": result.DeletedCount})
}

// AssignStaff handles admin assignment of a staff member to a
// pending issue. Assignment moves the issue to in-progress; an
// existing assignment is never silently overwritten.
func AssignStaff(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var input struct {
		StaffID string `json:"staffId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	staffID, err := primitive.ObjectIDFromHex(input.StaffID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid staff ID"})
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var staff models.User
	if err := userCollection().FindOne(ctx, bson.M{"_id": staffID}).Decode(&staff); err != nil {
		respondError(c, lifecycle.ErrNotFound)
		return
	}

	for attempt := 0; ; attempt++ {
		issue, err := findIssue(ctx, issueID)
		if err != nil {
			respondError(c, err)
			return
		}

		if err := lifecycle.CheckAssign(requester, issue, &staff); err != nil {
			respondError(c, err)
			return
		}

		now := time.Now()
		entry := models.TimelineEntry{
			Status: lifecycle.StatusInProgress,
			Text:   "Assigned to " + staff.Name,
			Date:   now,
			User:   requester.Name,
		}

		// The filter pins both the pending status and the absence of
		// an assignee; two admins assigning at once cannot both match.
		result, err := issueCollection().UpdateOne(ctx,
			bson.M{
				"_id":           issueID,
				"status":        lifecycle.StatusPending,
				"assignedStaff": bson.M{"$exists": false},
			},
			bson.M{
				"$set": bson.M{
					"status": lifecycle.StatusInProgress,
					"assignedStaff": models.AssignedStaff{
						ID:    staff.ID,
						Name:  staff.Name,
						Email: staff.Email,
						Photo: staff.Photo,
					},
					"updatedAt": now,
				},
				"$push": bson.M{"timeline": entry},
			})
		if err != nil {
			respondError(c, lifecycle.ErrUpstreamUnavailable)
			return
		}
		if result.MatchedCount > 0 {
			c.JSON(http.StatusOK, gin.H{"message": "Staff assigned successfully"})
			return
		}
		if attempt >= 1 {
			respondError(c, lifecycle.ErrConflict)
			return
		}
	}
}

// UpdateStatus handles status transitions by staff and admins. The
// requested status may use the staff vocabulary (working, closed);
// it is normalized before validation. Every accepted transition
// appends an immutable timeline entry.
func UpdateStatus(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note,omitempty" binding:"omitempty,max=500"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, ok := lifecycle.NormalizeStatus(input.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	for attempt := 0; ; attempt++ {
		issue, err := findIssue(ctx, issueID)
		if err != nil {
			respondError(c, err)
			return
		}

		if err := lifecycle.CheckTransition(requester, issue, target); err != nil {
			respondError(c, err)
			return
		}

		note := input.Note
		if note == "" {
			note = "Status updated to " + target
		}

		now := time.Now()
		entry := models.TimelineEntry{
			Status: target,
			Text:   note,
			Date:   now,
			User:   requester.Name,
		}

		// Commit only if the status we validated against is still the
		// persisted one.
		result, err := issueCollection().UpdateOne(ctx,
			bson.M{"_id": issueID, "status": issue.Status},
			bson.M{
				"$set":  bson.M{"status": target, "updatedAt": now},
				"$push": bson.M{"timeline": entry},
			})
		if err != nil {
			respondError(c, lifecycle.ErrUpstreamUnavailable)
			return
		}
		if result.MatchedCount > 0 {
			c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully", "status": target})
			return
		}
		if attempt >= 1 {
			respondError(c, lifecycle.ErrConflict)
			return
		}
	}
}

// UpvoteIssue adds the requester to the issue's voter set. The vote
// count is always derived from the set, and the commit filter
// excludes the requester's email so a doubled request cannot count
// twice.
func UpvoteIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	for attempt := 0; ; attempt++ {
		issue, err := findIssue(ctx, issueID)
		if err != nil {
			respondError(c, err)
			return
		}

		if err := lifecycle.CheckUpvote(requester, issue); err != nil {
			respondError(c, err)
			return
		}

		result, err := issueCollection().UpdateOne(ctx,
			bson.M{"_id": issueID, "upvotedBy": bson.M{"$ne": requester.Email}},
			bson.M{
				"$addToSet": bson.M{"upvotedBy": requester.Email},
				"$set":      bson.M{"updatedAt": time.Now()},
			})
		if err != nil {
			respondError(c, lifecycle.ErrUpstreamUnavailable)
			return
		}
		if result.MatchedCount > 0 {
			c.JSON(http.StatusOK, gin.H{
				"message": "Vote cast successfully",
				"votes":   issue.Upvotes() + 1,
			})
			return
		}
		if attempt >= 1 {
			respondError(c, lifecycle.ErrConflict)
			return
		}
	}
}

// GetIssueAnalytics returns analytical data about issues
func GetIssueAnalytics(c *gin.Context) {
	ctx, cancel := dbCtx()
	defer cancel()

	categoryPipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$category",
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$project": bson.M{
				"name":  "$_id",
				"value": "$count",
				"_id":   0,
			},
		},
	}

	categoryCursor, err := issueCollection().Aggregate(ctx, categoryPipeline)
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	defer categoryCursor.Close(ctx)

	var issuesByCategory []bson.M
	if err := categoryCursor.All(ctx, &issuesByCategory); err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	statusPipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$status",
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$project": bson.M{
				"name":  "$_id",
				"value": "$count",
				"_id":   0,
			},
		},
	}

	statusCursor, err := issueCollection().Aggregate(ctx, statusPipeline)
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	defer statusCursor.Close(ctx)

	var issuesByStatus []bson.M
	if err := statusCursor.All(ctx, &issuesByStatus); err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	// Last 7 days of report volume.
	var last7Days []gin.H
	for i := 6; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		nextDate := date.AddDate(0, 0, 1)

		count, err := issueCollection().CountDocuments(ctx, bson.M{
			"createdAt": bson.M{
				"$gte": date,
				"$lt":  nextDate,
			},
		})
		if err != nil {
			count = 0
		}

		last7Days = append(last7Days, gin.H{
			"date":  date.Format("2006-01-02"),
			"count": count,
		})
	}

	// Top upvoted among recent issues.
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(50)

	cursor, err := issueCollection().Find(ctx, bson.M{}, findOptions)
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	type topIssue struct {
		ID       primitive.ObjectID `json:"id"`
		Title    string             `json:"title"`
		Category string             `json:"category"`
		Priority string             `json:"priority"`
		Upvotes  int                `json:"upvotes"`
	}

	topIssues := make([]topIssue, 0, len(issues))
	for _, issue := range issues {
		topIssues = append(topIssues, topIssue{
			ID:       issue.ID,
			Title:    issue.Title,
			Category: string(issue.Category),
			Priority: string(issue.Priority),
			Upvotes:  issue.Upvotes(),
		})
	}

	sort.Slice(topIssues, func(i, j int) bool {
		return topIssues[i].Upvotes > topIssues[j].Upvotes
	})
	if len(topIssues) > 5 {
		topIssues = topIssues[:5]
	}

	totalIssues, err := issueCollection().CountDocuments(ctx, bson.M{})
	if err != nil {
		totalIssues = 0
	}

	openIssues, err := issueCollection().CountDocuments(ctx, bson.M{
		"status": bson.M{"$in": []string{lifecycle.StatusPending, lifecycle.StatusInProgress}},
	})
	if err != nil {
		openIssues = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"issuesByCategory": issuesByCategory,
		"issuesByStatus":   issuesByStatus,
		"last7Days":        last7Days,
		"topVotedIssues":   topIssues,
		"totalIssues":      totalIssues,
		"openIssues":       openIssues,
	})
}
