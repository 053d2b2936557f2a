package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sjohnston82/tome-tracker1/internal/services"
)

type AuthorsController struct {
	authors AuthorManager
}

func NewAuthorsController(authors AuthorManager) *AuthorsController {
	return &AuthorsController{authors: authors}
}

// ListAuthors handles GET /api/authors
func (ac *AuthorsController) ListAuthors(c *gin.Context) {
	list, err := ac.authors.List(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondServiceError(c, err, "author", "list authors")
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": list})
}

// GetAuthor handles GET /api/authors/:id
func (ac *AuthorsController) GetAuthor(c *gin.Context) {
	author, err := ac.authors.Get(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "author", "get author")
		return
	}
	c.JSON(http.StatusOK, gin.H{"author": author})
}

// UpdateAuthor handles PATCH /api/authors/:id
func (ac *AuthorsController) UpdateAuthor(c *gin.Context) {
	var input services.UpdateAuthorInput
	if !bindJSON(c, &input) {
		return
	}

	author, err := ac.authors.UpdateProfile(c.Request.Context(), GetUserID(c), c.Param("id"), input)
	if err != nil {
		respondServiceError(c, err, "author", "update author")
		return
	}
	c.JSON(http.StatusOK, gin.H{"author": author})
}
