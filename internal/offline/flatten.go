package offline

import "github.com/sjohnston82/tome-tracker1/internal/library"

// Flatten projects a snapshot into mirror rows.
func Flatten(snapshot *library.Snapshot) ([]MirrorAuthor, []MirrorBook) {
	authors := make([]MirrorAuthor, 0, len(snapshot.Authors))
	books := make([]MirrorBook, 0)

	for _, a := range snapshot.Authors {
		authors = append(authors, MirrorAuthor{
			ID:       a.ID,
			Name:     a.Name,
			Bio:      a.Bio,
			PhotoURL: a.PhotoURL,
		})
		for _, b := range a.Books {
			books = append(books, MirrorBook{
				ID:           b.ID,
				AuthorID:     a.ID,
				Title:        b.Title,
				ISBN13:       b.ISBN13,
				CoverURL:     b.CoverURL,
				SeriesName:   b.SeriesName,
				SeriesNumber: b.SeriesNumber,
			})
		}
	}
	return authors, books
}

// BuildTree groups books under their authors. Author order follows authors,
// book order follows books, and authors left without books are dropped.
func BuildTree(authors []MirrorAuthor, books []MirrorBook) []AuthorNode {
	byAuthor := make(map[string][]MirrorBook, len(authors))
	for _, b := range books {
		byAuthor[b.AuthorID] = append(byAuthor[b.AuthorID], b)
	}

	tree := make([]AuthorNode, 0, len(authors))
	for _, a := range authors {
		authorBooks := byAuthor[a.ID]
		if len(authorBooks) == 0 {
			continue
		}
		tree = append(tree, AuthorNode{
			ID:       a.ID,
			Name:     a.Name,
			Bio:      a.Bio,
			PhotoURL: a.PhotoURL,
			Books:    authorBooks,
		})
	}
	return tree
}
