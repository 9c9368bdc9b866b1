package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hayatoa/threads-auto-post-gs/domain/dto"
	"github.com/hayatoa/threads-auto-post-gs/domain/model"
	"github.com/hayatoa/threads-auto-post-gs/domain/repository"
	"github.com/hayatoa/threads-auto-post-gs/infrastructure/logger"
)

// StoreFactory opens the row store for one firing. The store is re-opened
// (and rows re-read) on every tick so externally reordered rows cannot go
// stale in memory.
type StoreFactory func(ctx context.Context) (repository.IRowStore, error)

type IPostUsecase interface {
	// PostNext posts the first eligible row. It returns true when a row
	// was posted successfully, false on a per-row failure or when no
	// eligible row exists. Row store errors propagate.
	PostNext(ctx context.Context) (bool, error)

	// RunBatch drains eligible rows until none remain or maxPerRun
	// attempts were made (0 = unbounded).
	RunBatch(ctx context.Context, maxPerRun int) error
}

type postUsecase struct {
	openStore StoreFactory
	threads   repository.IThreads
	tracker   *RunTracker
	out       io.Writer
}

// NewPostUsecase wires the posting pipeline. out receives one JSON report
// line per post attempt; nil defaults to stdout.
func NewPostUsecase(openStore StoreFactory, threads repository.IThreads, tracker *RunTracker, out io.Writer) IPostUsecase {
	if out == nil {
		out = os.Stdout
	}
	return &postUsecase{openStore: openStore, threads: threads, tracker: tracker, out: out}
}

// FirstUnposted returns the first row in ascending sheet order whose
// status is not "posted" (trimmed, case-insensitive) and which has a text
// or image_url set. Rows with both empty are blank padding and skipped.
// A nil result is a normal no-rows condition, not an error.
func FirstUnposted(rows []model.PostRow) *model.PostRow {
	for i := range rows {
		r := rows[i]
		if strings.ToLower(strings.TrimSpace(r.Status())) == model.StatusPosted {
			continue
		}
		if r.Text() == "" && r.ImageURL() == "" {
			continue
		}
		return &rows[i]
	}
	return nil
}

// BuildPayload shapes the create-container request for one row. A
// non-empty image_url makes it an IMAGE post (create + publish); anything
// else is a TEXT post created with auto_publish_text so no publish call
// is needed.
func BuildPayload(row model.PostRow) (*dto.CreateContainerRequest, string) {
	text := strings.TrimSpace(row.Text())
	imageURL := strings.TrimSpace(row.ImageURL())
	if imageURL != "" {
		return &dto.CreateContainerRequest{
			MediaType:    "IMAGE",
			ImageURL:     imageURL,
			Text:         text,
			AltText:      row.Get("alt_text"),
			ReplyControl: row.Get("reply_control"),
			TopicTag:     row.Get("topic_tag"),
			LocationID:   row.Get("location_id"),
		}, "IMAGE"
	}
	return &dto.CreateContainerRequest{
		MediaType:       "TEXT",
		Text:            text,
		AutoPublishText: true,
		LinkAttachment:  row.Get("link_attachment"),
		ReplyControl:    row.Get("reply_control"),
		TopicTag:        row.Get("topic_tag"),
		LocationID:      row.Get("location_id"),
	}, "TEXT"
}

func (u *postUsecase) postOne(ctx context.Context, row model.PostRow) (*model.PostResult, error) {
	payload, mediaType := BuildPayload(row)
	container, err := u.threads.CreateContainer(ctx, payload)
	if err != nil {
		return nil, err
	}
	if mediaType == "IMAGE" {
		pub, err := u.threads.PublishContainer(ctx, container.ID)
		if err != nil {
			return nil, err
		}
		return &model.PostResult{Status: "published", ContainerID: container.ID, MediaType: mediaType, Publish: pub}, nil
	}
	return &model.PostResult{Status: "published", ContainerID: container.ID, MediaType: mediaType}, nil
}

// submit posts one row and records the outcome in the row store. Remote
// API failures become a per-row "failed" result; only row store write
// errors propagate and abort the firing.
func (u *postUsecase) submit(ctx context.Context, store repository.IRowStore, row model.PostRow) (bool, error) {
	res, postErr := u.postOne(ctx, row)
	if postErr != nil {
		if err := store.WriteResult(ctx, row.Index, model.StatusFailed, postErr.Error()); err != nil {
			return false, err
		}
		logger.GetLogger().WithField("row_idx", row.Index).WithField("error", postErr).
			Warn("Row submission failed")
		u.report(dto.PostReport{OK: false, RowIdx: row.Index, Row: row.Fields, Err: postErr.Error()})
		return false, nil
	}
	if err := store.WriteResult(ctx, row.Index, model.StatusPosted, ""); err != nil {
		return false, err
	}
	logger.GetLogger().WithField("row_idx", row.Index).WithField("container_id", res.ContainerID).
		Info("Row posted")
	u.report(dto.PostReport{OK: true, RowIdx: row.Index, Row: row.Fields, Res: res})
	return true, nil
}

func (u *postUsecase) PostNext(ctx context.Context) (bool, error) {
	store, err := u.openStore(ctx)
	if err != nil {
		return false, err
	}
	header, err := store.EnsureHeader(ctx)
	if err != nil {
		return false, err
	}
	rows, err := store.ReadRows(ctx, header)
	if err != nil {
		return false, err
	}
	pick := FirstUnposted(rows)
	if pick == nil {
		logger.GetLogger().Info("No rows to post")
		u.report(dto.PostReport{OK: true, Msg: "no rows to post"})
		return false, nil
	}
	return u.submit(ctx, store, *pick)
}

func (u *postUsecase) RunBatch(ctx context.Context, maxPerRun int) error {
	store, err := u.openStore(ctx)
	if err != nil {
		return err
	}
	header, err := store.EnsureHeader(ctx)
	if err != nil {
		return err
	}
	n := 0
	for {
		rows, err := store.ReadRows(ctx, header)
		if err != nil {
			return err
		}
		pick := FirstUnposted(rows)
		if pick == nil {
			break
		}
		if _, err := u.submit(ctx, store, *pick); err != nil {
			return err
		}
		n++
		if maxPerRun > 0 && n >= maxPerRun {
			break
		}
	}
	logger.GetLogger().WithField("attempts", n).Info("Batch run finished")
	return nil
}

func (u *postUsecase) report(r dto.PostReport) {
	u.tracker.Record(r)
	line, err := json.Marshal(r)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to marshal report line")
		return
	}
	fmt.Fprintln(u.out, string(line))
}
