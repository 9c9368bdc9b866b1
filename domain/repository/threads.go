package repository

import (
	"context"

	"github.com/hayatoa/threads-auto-post-gs/domain/dto"
)

// IThreads defines the interface for the remote posting API. A post is
// only considered published once PublishContainer succeeds; text posts
// created with auto_publish_text skip the publish call entirely.
type IThreads interface {
	CreateContainer(ctx context.Context, req *dto.CreateContainerRequest) (*dto.ContainerResponse, error)
	PublishContainer(ctx context.Context, creationID string) (*dto.PublishResponse, error)
}
