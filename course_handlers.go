package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GenerateReq struct {
	Topic string `json:"topic" binding:"required"`
}

// courseQuery attaches the child preloads every course read uses. Children
// come back in position order so lesson and quiz order survive round-trips.
func courseQuery(db *gorm.DB) *gorm.DB {
	byPosition := func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }
	return db.
		Preload("Lessons", byPosition).
		Preload("Lessons.Videos", byPosition).
		Preload("Quizzes", byPosition)
}

// loadCourse fetches one course with children. With an ownerID the lookup is
// scoped to that owner, so absent and foreign-owned courses are
// indistinguishable to the caller.
func loadCourse(db *gorm.DB, courseID, ownerID string) (*Course, error) {
	q := courseQuery(db).Where("id = ?", courseID)
	if ownerID != "" {
		q = q.Where("user_id = ?", ownerID)
	}
	var course Course
	if err := q.First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course %s", ErrNotFound, courseID)
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return &course, nil
}

// POST /api/v1/courses/generate
//
// Returns the generated course without persisting it; the client reviews and
// then calls save. Owner is taken from the token so the payload round-trips.
func GenerateCourse(gen *CourseGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "topic is required"})
			return
		}
		topic := strings.TrimSpace(req.Topic)
		if topic == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "topic is required"})
			return
		}

		course, err := gen.Generate(c.Request.Context(), topic)
		if err != nil {
			respondError(c, err)
			return
		}
		course.UserID = currentUserID(c)
		c.JSON(http.StatusOK, course)
	}
}

// POST /api/v1/courses/save
//
// Validates the submitted course, then writes it and all children in one
// transaction. Client-supplied ids, owner and timestamps are discarded:
// the server mints fresh ones so a tampered payload cannot collide with or
// overwrite existing rows.
func SaveCourse(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Course
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed course payload"})
			return
		}

		course, err := buildCourseForSave(&req, currentUserID(c))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(course).Error
		})
		if err != nil {
			respondError(c, fmt.Errorf("%w: %w", ErrPersistence, err))
			return
		}

		logg.Infow("course saved", "course_id", course.ID, "topic", course.Topic,
			"lessons", len(course.Lessons), "quizzes", len(course.Quizzes))
		c.JSON(http.StatusCreated, course)
	}
}

// buildCourseForSave re-checks the generator's invariants against the
// client's payload and rebuilds the row set with fresh ids and positions.
// Unlike generation, an invalid question here is the client's error, so the
// whole save is rejected rather than repaired.
func buildCourseForSave(in *Course, ownerID string) (*Course, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.New("course title is required")
	}
	if len(in.Lessons) == 0 {
		return nil, errors.New("course needs at least one lesson")
	}
	if len(in.Quizzes) == 0 {
		return nil, errors.New("course needs at least one quiz question")
	}

	status := in.CompletionStatus
	if status == "" {
		status = "not_started"
	}

	course := &Course{
		ID:               uuid.New().String(),
		UserID:           ownerID,
		Topic:            strings.TrimSpace(in.Topic),
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		CompletionStatus: status,
		CreatedAt:        time.Now().UTC(),
	}

	for i, l := range in.Lessons {
		title := strings.TrimSpace(l.Title)
		if title == "" {
			return nil, fmt.Errorf("lesson %d has no title", i+1)
		}
		lesson := Lesson{
			ID:           uuid.New().String(),
			CourseID:     course.ID,
			Position:     i + 1,
			Title:        title,
			Content:      l.Content,
			CodeExamples: l.CodeExamples,
		}
		for j, v := range l.Videos {
			lesson.Videos = append(lesson.Videos, VideoRef{
				LessonID:  lesson.ID,
				Position:  j + 1,
				Title:     v.Title,
				URL:       v.URL,
				Thumbnail: v.Thumbnail,
			})
		}
		course.Lessons = append(course.Lessons, lesson)
	}

	for i, q := range in.Quizzes {
		opts := q.OptionList()
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("quiz question %d has no text", i+1)
		}
		if len(opts) < 2 {
			return nil, fmt.Errorf("quiz question %d needs at least two options", i+1)
		}
		matched, ok := matchOption(opts, q.CorrectAnswer)
		if !ok {
			return nil, fmt.Errorf("quiz question %d: correct answer is not among the options", i+1)
		}
		course.Quizzes = append(course.Quizzes, QuizQuestion{
			ID:            uuid.New().String(),
			CourseID:      course.ID,
			Position:      i + 1,
			Question:      q.Question,
			Options:       jsonArray(opts),
			CorrectAnswer: matched,
			Explanation:   q.Explanation,
		})
	}

	return course, nil
}

// GET /api/v1/courses
func ListCourses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var courses []Course
		err := courseQuery(db).
			Where("user_id = ?", currentUserID(c)).
			Order("created_at DESC, id ASC").
			Find(&courses).Error
		if err != nil {
			respondError(c, fmt.Errorf("%w: %w", ErrPersistence, err))
			return
		}
		c.JSON(http.StatusOK, courses)
	}
}

// GET /api/v1/courses/:id
func GetCourse(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		course, err := loadCourse(db, c.Param("id"), currentUserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, course)
	}
}
