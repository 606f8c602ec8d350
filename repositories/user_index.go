//go:generate go run go.uber.org/mock/mockgen -source=user_index.go -destination=../mocks/mock_user_index.go -package=mocks
package repositories

import (
	"context"
	"strings"

	"github.com/blugelabs/bluge"
)

type IUserIndex interface {
	Index(user User) error
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// UserIndex maintains the Bluge search index over usernames and display
// names. The index lives next to BadgerDB and is rebuilt implicitly:
// every create/update re-indexes the user document under its id.
type UserIndex struct {
	writer *bluge.Writer
}

func NewUserIndex(writer *bluge.Writer) *UserIndex {
	return &UserIndex{writer: writer}
}

func (x *UserIndex) Index(user User) error {
	doc := bluge.NewDocument(user.ID)
	doc.AddField(bluge.NewTextField("username", strings.ToLower(user.Username)).StoreValue())
	if user.DisplayName != "" {
		doc.AddField(bluge.NewTextField("display_name", user.DisplayName).StoreValue())
	}
	return x.writer.Update(doc.ID(), doc)
}

// Search returns the ids of users whose username starts with the query or
// whose display name matches it, best first.
func (x *UserIndex) Search(ctx context.Context, query string, limit int) ([]string, error) {
	reader, err := x.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	boolean := bluge.NewBooleanQuery().
		AddShould(bluge.NewPrefixQuery(strings.ToLower(query)).SetField("username")).
		AddShould(bluge.NewMatchQuery(query).SetField("display_name")).
		SetMinShould(1)

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, boolean))
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := iterator.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}
