package compose

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/table"
)

// ArticleToken is replaced by the normalized article number.
const ArticleToken = "{article_clean}"

// ArticleColumns are checked in order for the article number.
var ArticleColumns = []string{"Артикул", "артикул", "Article", "article"}

var (
	nonAlnum      = regexp.MustCompile(`[^0-9A-Za-z]+`)
	rowIndexToken = regexp.MustCompile(`\{row_index(?::(0?)(\d*)d)?\}`)
)

// ArticleValue returns the first non-empty article cell of row.
func ArticleValue(row table.Row) string {
	for _, col := range ArticleColumns {
		if v := row.Get(col); v != "" {
			return v
		}
	}
	return ""
}

// CleanArticle keeps only ASCII letters and digits, lowercased.
func CleanArticle(s string) string {
	return strings.ToLower(nonAlnum.ReplaceAllString(s, ""))
}

// OutputName derives the file name of the card for row index. The article
// token takes the cleaned article number. Without one, it takes the
// zero-padded index unless the pattern already carries a row index token,
// in which case it is dropped. Row index tokens are {row_index},
// {row_index:0Nd} and {row_index:Nd}.
func OutputName(pattern string, row table.Row, index int) (string, error) {
	article := CleanArticle(ArticleValue(row))

	name := pattern
	switch {
	case article != "":
		name = strings.ReplaceAll(name, ArticleToken, article)
	case rowIndexToken.MatchString(name):
		name = strings.ReplaceAll(name, ArticleToken, "")
	default:
		name = strings.ReplaceAll(name, ArticleToken, fmt.Sprintf("%04d", index))
	}

	name = rowIndexToken.ReplaceAllStringFunc(name, func(tok string) string {
		m := rowIndexToken.FindStringSubmatch(tok)
		width, _ := strconv.Atoi(m[2])
		if m[1] == "0" {
			return fmt.Sprintf("%0*d", width, index)
		}
		return fmt.Sprintf("%*d", width, index)
	})

	if err := errors.ValidateOutputName(name); err != nil {
		return "", err
	}
	return name, nil
}

// NameSet hands out output names that are unique within one run. It is not
// safe for concurrent use.
type NameSet struct {
	used map[string]bool
}

// NewNameSet returns an empty set.
func NewNameSet() *NameSet {
	return &NameSet{used: make(map[string]bool)}
}

// Claim reserves name. A name already taken gets the first free "_N"
// suffix before its extension, so ab123.jpg becomes ab123_2.jpg.
func (s *NameSet) Claim(name string) string {
	if !s.used[name] {
		s.used[name] = true
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if !s.used[candidate] {
			s.used[candidate] = true
			return candidate
		}
	}
}
