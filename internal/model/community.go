package model

import "time"

// DefaultCategory 未指定分类时使用
const DefaultCategory = "general"

type Post struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author       *Author    `json:"author,omitempty"`
	LikeCount    int        `json:"like_count"`
	CommentCount int        `json:"comment_count"`
	LikedByMe    bool       `json:"liked_by_me"`
	Comments     []*Comment `json:"comments,omitempty"`
}

// NewPost 创建帖子时的输入
type NewPost struct {
	Title    string
	Content  string
	Category string
}

type Comment struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PostID    int       `json:"post_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    *Author   `json:"author,omitempty"`
}

type Like struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PostID    int       `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeResult 点赞切换后的状态
type LikeResult struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// PostPage 分页结果；LikeTotal 和 CommentTotal 只统计当前页
type PostPage struct {
	Items        []*Post `json:"items"`
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	Total        int     `json:"total"`
	Pages        int     `json:"pages"`
	HasPrev      bool    `json:"has_prev"`
	HasNext      bool    `json:"has_next"`
	PrevNum      int     `json:"prev_num,omitempty"`
	NextNum      int     `json:"next_num,omitempty"`
	Category     string  `json:"category,omitempty"`
	LikeTotal    int     `json:"like_total"`
	CommentTotal int     `json:"comment_total"`
}

// NewPostPage 根据总数计算分页信息，超出范围的页码返回空列表
func NewPostPage(items []*Post, page, perPage, total int) *PostPage {
	if items == nil {
		items = []*Post{}
	}
	p := &PostPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	}
	if perPage > 0 {
		p.Pages = (total + perPage - 1) / perPage
	}
	p.HasPrev = page > 1
	p.HasNext = page < p.Pages
	if p.HasPrev {
		p.PrevNum = page - 1
	}
	if p.HasNext {
		p.NextNum = page + 1
	}
	for _, post := range items {
		p.LikeTotal += post.LikeCount
		p.CommentTotal += post.CommentCount
	}
	return p
}
