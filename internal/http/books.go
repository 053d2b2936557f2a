package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sjohnston82/tome-tracker1/internal/services"
)

// BooksController handles catalog book endpoints.
type BooksController struct {
	books BookManager
}

func NewBooksController(books BookManager) *BooksController {
	return &BooksController{books: books}
}

// CreateBook handles POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var input services.CreateBookInput
	if !bindJSON(c, &input) {
		return
	}

	book, err := bc.books.Create(c.Request.Context(), GetUserID(c), input)
	if err != nil {
		respondServiceError(c, err, "book", "create book")
		return
	}
	respondCreated(c, gin.H{"book": book})
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	book, err := bc.books.Get(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "book", "get book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

// UpdateBook handles PATCH /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	var input services.UpdateBookInput
	if !bindJSON(c, &input) {
		return
	}

	book, err := bc.books.Update(c.Request.Context(), GetUserID(c), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err, "book", "update book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

// DeleteBook handles DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	if err := bc.books.Delete(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "book", "delete book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type checkDuplicateRequest struct {
	Title      string `json:"title" validate:"required"`
	AuthorName string `json:"authorName" validate:"required"`
}

// CheckDuplicate handles POST /api/books/check-duplicate
func (bc *BooksController) CheckDuplicate(c *gin.Context) {
	var req checkDuplicateRequest
	if !bindJSON(c, &req) {
		return
	}

	matches, err := bc.books.CheckDuplicates(c.Request.Context(), GetUserID(c), req.Title, req.AuthorName)
	if err != nil {
		respondServiceError(c, err, "book", "check duplicates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
