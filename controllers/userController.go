package controllers

import (
	"log"
	"net/http"
	"time"

	"civiclens-api/lifecycle"
	"civiclens-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetUserByEmail returns one user's public profile. Users may read
// themselves; admins may read anyone.
func GetUserByEmail(c *gin.Context) {
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

	var user models.User
	err = userCollection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			respondError(c, lifecycle.ErrNotFound)
		} else {
			respondError(c, lifecycle.ErrUpstreamUnavailable)
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUserRole returns the authoritative role for an email. The SPA
// caches this for menu gating; every mutating endpoint re-resolves
// the role itself and never trusts the cached value.
func GetUserRole(c *gin.Context) {
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

	var user models.User
	err = userCollection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			respondError(c, lifecycle.ErrNotFound)
		} else {
			respondError(c, lifecycle.ErrUpstreamUnavailable)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": user.Role})
}

// ListUsers returns all users, optionally filtered by role. Admin
// only; backs the manage-users and manage-staff screens.
func ListUsers(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if requester.Role != models.RoleAdmin {
		respondError(c, lifecycle.ErrForbidden)
		return
	}

	filter := bson.M{}
	if role := c.Query("role"); role != "" {
		if !models.ValidRole(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		filter["role"] = role
	}

	ctx, cancel := dbCtx()
	defer cancel()

	cursor, err := userCollection().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	c.JSON(http.StatusOK, users)
}

// UpdateSelf lets a user change their own display name and photo.
// Nothing else on the account is self-service.
func UpdateSelf(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	email := c.Param("email")
	if requester.Email != email {
		respondError(c, lifecycle.ErrForbidden)
		return
	}
	if requester.IsBlocked {
		respondError(c, lifecycle.ErrAccountBlocked)
		return
	}

	var input struct {
		Name  *string `json:"name,omitempty" binding:"omitempty,max=50"`
		Photo *string `json:"photo,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Name != nil {
		update["name"] = *input.Name
	}
	if input.Photo != nil {
		update["photo"] = *input.Photo
	}

	ctx, cancel := dbCtx()
	defer cancel()

	_, err = userCollection().UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": update})
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// CreateStaff lets an admin create a staff account directly.
func CreateStaff(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if requester.Role != models.RoleAdmin {
		respondError(c, lifecycle.ErrForbidden)
		return
	}

	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Photo    string `json:"photo,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	count, err := userCollection().CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
		return
	}

	staff := models.User{
		Name:      input.Name,
		Email:     input.Email,
		Photo:     input.Photo,
		Password:  input.Password,
		Role:      models.RoleStaff,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := staff.HashPassword(); err != nil {
		log.Println("Error hashing password:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	result, err := userCollection().InsertOne(ctx, staff)
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":    result.InsertedID,
		"name":  staff.Name,
		"email": staff.Email,
		"role":  staff.Role,
	})
}

// AdminUpdateUser mutates role and account flags. Admin only; this
// is the only path that changes role, isBlocked or isVerified
// outside of subscription payments.
func AdminUpdateUser(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if requester.Role != models.RoleAdmin {
		respondError(c, lifecycle.ErrForbidden)
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Role       *string `json:"role,omitempty"`
		IsBlocked  *bool   `json:"isBlocked,omitempty"`
		IsVerified *bool   `json:"isVerified,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.Role != nil {
		if !models.ValidRole(*input.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		update["role"] = *input.Role
	}
	if input.IsBlocked != nil {
		update["isBlocked"] = *input.IsBlocked
	}
	if input.IsVerified != nil {
		update["isVerified"] = *input.IsVerified
	}

	ctx, cancel := dbCtx()
	defer cancel()

	result, err := userCollection().UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": update})
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	if result.MatchedCount == 0 {
		respondError(c, lifecycle.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

// AdminDeleteUser removes an account. Admin only.
func AdminDeleteUser(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if requester.Role != models.RoleAdmin {
		respondError(c, lifecycle.ErrForbidden)
		return
	}

	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	result, err := userCollection().DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	if result.DeletedCount == 0 {
		respondError(c, lifecycle.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
