package cache

import "fmt"

const BookListPrefix = "books:list:"

func BookListKey(page, limit int) string {
	return fmt.Sprintf("%spage-%d-limit-%d", BookListPrefix, page, limit)
}

func BookKey(bookID string) string {
	return "books:item:" + bookID
}

func BookCommentsPrefix(bookID string) string {
	return BookKey(bookID) + ":comments:"
}

func BookCommentsKey(bookID string, page, limit int) string {
	return fmt.Sprintf("%spage-%d-limit-%d", BookCommentsPrefix(bookID), page, limit)
}
