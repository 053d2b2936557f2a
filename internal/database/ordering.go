package database

// BookOrder sorts books within an author: series first (unset series last),
// then by position in series (unset last), then by title.
const BookOrder = "series_name IS NULL, series_name ASC, series_number IS NULL, series_number ASC, title ASC"

// AuthorOrder sorts authors by name.
const AuthorOrder = "name ASC"
