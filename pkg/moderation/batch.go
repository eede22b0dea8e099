package moderation // import "github.com/joincivil/content-moderation-adapter/pkg/moderation"

import (
	"context"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/joincivil/content-moderation-adapter/pkg/model"
)

// BatchItem is the outcome of submitting one post of a batch
type BatchItem struct {
	PostID  string
	Receipt *model.TransactionReceipt
	Err     error
}

// ErrEmptyPost is recorded for a nil entry in a batch
var ErrEmptyPost = errors.New("Empty post in batch")

// ModerateBatch submits the posts one at a time against the guideline. A
// failed post does not stop the batch. Cancelling the context does; posts not
// yet submitted are returned with the context error. Nil posts are recorded
// with ErrEmptyPost.
func (c *Client) ModerateBatch(ctx context.Context, guidelineID string, posts []*model.Post) []*BatchItem {
	items := make([]*BatchItem, 0, len(posts))
	for i, post := range posts {
		if post == nil {
			log.Errorf("[%v/%v] Skipping empty post", i+1, len(posts))
			items = append(items, &BatchItem{Err: ErrEmptyPost})
			continue
		}
		item := &BatchItem{PostID: post.ID}
		if err := ctx.Err(); err != nil {
			item.Err = err
			items = append(items, item)
			continue
		}
		log.Infof("[%v/%v] Submitting %v", i+1, len(posts), post.ID)
		item.Receipt, item.Err = c.ModerateContent(ctx, post.ID, post.Content, guidelineID)
		if item.Err != nil {
			log.Errorf("Error moderating %v: err: %v", post.ID, item.Err)
		}
		items = append(items, item)
	}
	return items
}
