package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"printbay/models"
)

type createPostRequest struct {
	Title string `json:"title" binding:"required"`
}

// CreatePost publishes a design into the community feed
func (s *Server) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	post, err := s.boosts.CreatePost(c.Request.Context(), callerID(c), req.Title)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, postView(post))
}

// ToggleFreeVote toggles the caller's free vote on a post
func (s *Server) ToggleFreeVote(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	voted, err := s.boosts.ToggleFreeVote(c.Request.Context(), callerID(c), postID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"voted": voted})
}

type paidBoostRequest struct {
	ITCAmount decimal.Decimal `json:"itc_amount" binding:"required"`
}

// CreatePaidBoost debits the caller and boosts the post
func (s *Server) CreatePaidBoost(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req paidBoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "itc_amount is required")
		return
	}

	result, err := s.boosts.CreatePaidBoost(c.Request.Context(), callerID(c), postID, req.ITCAmount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"boost_id":     result.BoostID,
		"boost_points": result.BoostPoints,
		"new_balance":  result.NewBalance,
	})
}

// ListFeed returns a page of the community feed
func (s *Server) ListFeed(c *gin.Context) {
	sort := models.FeedSort(c.DefaultQuery("sort", string(models.FeedSortNew)))
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	posts, err := s.boosts.ListFeed(c.Request.Context(), sort, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		views = append(views, postView(post))
	}

	c.JSON(http.StatusOK, gin.H{"posts": views})
}

// Leaderboard returns the top-earning creators for a period
func (s *Server) Leaderboard(c *gin.Context) {
	period := models.LeaderboardPeriod(c.DefaultQuery("period", string(models.LeaderboardAllTime)))
	limit := parseIntQuery(c, "limit", 10)

	entries, err := s.boosts.Leaderboard(c.Request.Context(), period, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func postView(post *models.CommunityPost) gin.H {
	return gin.H{
		"id":                post.ID,
		"creator_id":        post.CreatorID,
		"title":             post.Title,
		"free_vote_count":   post.FreeVoteCount,
		"total_boost_score": post.TotalBoostScore,
		"created_at":        post.CreatedAt,
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "invalid id in path")
		return 0, false
	}
	return id, true
}
