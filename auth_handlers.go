package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterReq struct {
	Username string `json:"username" binding:"required,min=3,max=40"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/v1/auth/register
func Register(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var existing User
		err := db.First(&existing, "username = ?", req.Username).Error
		if err == nil {
			respondError(c, fmt.Errorf("%w: %s", ErrDuplicateUser, req.Username))
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, fmt.Errorf("%w: %w", ErrPersistence, err))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, err)
			return
		}

		user := User{
			ID:           uuid.New().String(),
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
		}
		if err := db.Create(&user).Error; err != nil {
			respondError(c, fmt.Errorf("%w: %w", ErrPersistence, err))
			return
		}

		token, err := mintToken(jwtSecret, user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		logg.Infow("user registered", "username", user.Username)
		c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
	}
}

// POST /api/v1/auth/login
func Login(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// One response for unknown username and wrong password.
		var user User
		if err := db.First(&user, "username = ?", req.Username).Error; err != nil {
			respondError(c, ErrInvalidCredentials)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			respondError(c, ErrInvalidCredentials)
			return
		}

		token, err := mintToken(jwtSecret, user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
	}
}

// GET /api/v1/auth/me
func Me(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user User
		if err := db.First(&user, "id = ?", currentUserID(c)).Error; err != nil {
			// valid token for a user that no longer exists
			respondError(c, ErrInvalidCredentials)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
