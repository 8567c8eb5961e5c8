package controllers

import (
	"errors"
	"html/template"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/htmlsanitizer/forms"
	"github.com/cppla/htmlsanitizer/models"
	"github.com/cppla/htmlsanitizer/sanitizer"
	"github.com/cppla/htmlsanitizer/templates"
	"github.com/cppla/htmlsanitizer/templatetags"
	"github.com/cppla/htmlsanitizer/utils"
)

const defaultCategory = "general"

var validCategories = []string{defaultCategory, "review", "tech", "news", "trade"}

var (
	postContentPolicy = mustFieldPolicy(models.Post{}, "Content")
	plainText         = sanitizer.NewPolicy(sanitizer.WithStrip(true))
)

func mustFieldPolicy(model any, name string) sanitizer.Policy {
	p, err := models.FieldPolicy(model, name)
	if err != nil {
		panic(err)
	}
	return p
}

// PostController manages posts and comments. Every text field passes through
// the form layer on the way in, the serializer on the way to storage and the
// template funcs on the way out.
type PostController struct {
	db       *gorm.DB
	cleaner  sanitizer.Cleaner
	lib      *templatetags.Library
	posts    *utils.Cache
	previews *utils.Cache
	comments *forms.Form
}

// NewPostController creates a new PostController instance. Caches may be
// built from a nil Redis client to disable caching.
func NewPostController(db *gorm.DB, lib *templatetags.Library, c sanitizer.Cleaner, posts, previews *utils.Cache) *PostController {
	c = sanitizer.Or(c)
	return &PostController{
		db:       db,
		cleaner:  c,
		lib:      lib,
		posts:    posts,
		previews: previews,
		comments: forms.MustNew(
			forms.WithField("author", &forms.CharField{Required: true, MaxLength: 64}),
			forms.WithField("body", forms.NewSanitizedCharField(
				&forms.CharField{Required: true, MaxLength: 5000}, models.CommentPolicy, c)),
			forms.WithField("website", &forms.CharField{MaxLength: 255}),
			forms.WithField("notify", &forms.BooleanField{}),
			forms.Sanitize(plainText, c),
		),
	}
}

type createPostRequest struct {
	Author   string `json:"author" form:"author" binding:"required,max=64" sanitize:"strip"`
	Title    string `json:"title" form:"title" binding:"required,max=255" sanitize:"strip"`
	Content  string `json:"content" form:"content" binding:"required"`
	Category string `json:"category" form:"category" sanitize:"-"`
}

// CreatePost binds and sanitizes a new post. The content keeps the tags the
// Post model allows; author and title are reduced to text.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req createPostRequest
	if err := forms.Bind(ctx, &req, postContentPolicy, p.cleaner); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = defaultCategory
	}
	if !slices.Contains(validCategories, category) {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid category")
		return
	}

	post := models.Post{
		Author:   strings.TrimSpace(req.Author),
		Title:    title,
		Content:  req.Content,
		Category: category,
	}
	if err := p.db.WithContext(ctx).Create(&post).Error; err != nil {
		utils.Sugar.Errorw("create post failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}
	utils.Created(ctx, gin.H{"post": post})
}

// ListPosts returns paginated posts, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))
	category := strings.TrimSpace(ctx.Query("category"))

	query := p.db.WithContext(ctx).Model(&models.Post{}).Order("created_at DESC")
	if search != "" {
		query = query.Where("title LIKE ? OR content LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}
	var posts []models.Post
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	utils.Success(ctx, gin.H{
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// GetPost returns a single post with its comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	key := p.posts.Key(strconv.FormatUint(id, 10))
	var cached models.Post
	if p.posts.GetJSON(ctx, key, &cached) {
		utils.Success(ctx, gin.H{"post": cached})
		return
	}

	post, ok := p.loadPost(ctx, id)
	if !ok {
		return
	}
	p.posts.SetJSON(ctx, key, post)
	utils.Success(ctx, gin.H{"post": post})
}

// ShowPost renders the post page through the template funcs.
func (p *PostController) ShowPost(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	post, ok := p.loadPost(ctx, id)
	if !ok {
		return
	}
	ctx.HTML(http.StatusOK, templates.Post, gin.H{
		"Post":         post,
		"ContentTags":  postContentPolicy.Tags(),
		"ContentAttrs": postContentPolicy.Attributes(),
		"CommentTags":  models.CommentPolicy.Tags(),
		"CommentAttrs": models.CommentPolicy.Attributes(),
	})
}

// CreateComment validates a url-encoded comment through the comment form.
func (p *PostController) CreateComment(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	if err := ctx.Request.ParseForm(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid form")
		return
	}

	cleaned, err := p.comments.Validate(ctx.Request.PostForm)
	if err != nil {
		var errs forms.Errors
		if !errors.As(err, &errs) {
			utils.Sugar.Errorw("comment sanitization failed", "error", err)
			utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to process comment")
			return
		}
		fields := make(map[string]string, len(errs))
		for name, fieldErr := range errs {
			fields[name] = fieldErr.Error()
		}
		utils.Invalid(ctx, fields)
		return
	}

	var post models.Post
	if err := p.db.WithContext(ctx).Select("id").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	comment := models.Comment{
		PostID: post.ID,
		Author: cleaned.String("author"),
		Body:   cleaned.String("body"),
	}
	if website := cleaned.String("website"); website != "" {
		comment.Website = &website
	}
	if err := p.db.WithContext(ctx).Create(&comment).Error; err != nil {
		utils.Sugar.Errorw("create comment failed", "error", err, "post_id", id)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create comment")
		return
	}
	p.posts.Delete(ctx, p.posts.Key(strconv.FormatUint(id, 10)))

	utils.Logger.Debug("comment created",
		zap.Uint64("post_id", id),
		zap.Bool("notify", cleaned["notify"] == true),
	)
	utils.Created(ctx, gin.H{"comment": comment})
}

type previewRequest struct {
	Content string `json:"content" form:"content" binding:"required,max=20000" sanitize:"-"`
	// Allow is an optional "tags; attrs" list rendered through sanitize_allow.
	Allow string `json:"allow" form:"allow" binding:"max=512" sanitize:"-"`
}

// PreviewResult is the output of every template op for one input.
type PreviewResult struct {
	Escaped  string `json:"escaped"`
	Stripped string `json:"stripped"`
	Allowed  string `json:"allowed,omitempty"`
	Content  string `json:"content"`
}

// Preview shows how submitted HTML renders through the template funcs.
// Results are cached by policy and input.
func (p *PostController) Preview(ctx *gin.Context) {
	var req previewRequest
	if err := forms.Bind(ctx, &req, sanitizer.Policy{}, p.cleaner); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	key := p.previews.Key(p.lib.Policy().String(), postContentPolicy.String(), req.Allow, req.Content)
	var res PreviewResult
	if p.previews.GetJSON(ctx, key, &res) {
		utils.Success(ctx, res)
		return
	}

	res, err := p.preview(req)
	if err != nil {
		utils.Sugar.Errorw("preview failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to render preview")
		return
	}
	p.previews.SetJSON(ctx, key, res)
	utils.Success(ctx, res)
}

func (p *PostController) preview(req previewRequest) (PreviewResult, error) {
	var res PreviewResult
	var err error
	if res.Escaped, err = html(p.lib.EscapeHTML(req.Content)); err != nil {
		return res, err
	}
	if res.Stripped, err = html(p.lib.StripHTML(req.Content)); err != nil {
		return res, err
	}
	if res.Content, err = html(p.lib.EscapeHTMLWith(postContentPolicy.Tags(), postContentPolicy.Attributes(), req.Content)); err != nil {
		return res, err
	}
	if req.Allow != "" {
		if res.Allowed, err = html(p.lib.SanitizeAllow(req.Allow, req.Content)); err != nil {
			return res, err
		}
	}
	return res, nil
}

func html(v any, err error) (string, error) {
	if err != nil {
		return "", err
	}
	s, _ := v.(template.HTML)
	return string(s), nil
}

func (p *PostController) loadPost(ctx *gin.Context, id uint64) (models.Post, bool) {
	var post models.Post
	err := p.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return post, false
		}
		utils.Sugar.Errorw("load post failed", "error", err, "post_id", id)
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return post, false
	}
	return post, true
}

func parseID(ctx *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid id")
		return 0, false
	}
	return id, true
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}
