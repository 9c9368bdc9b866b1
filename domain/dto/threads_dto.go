package dto

// CreateContainerRequest is the JSON payload for the Threads
// create-container endpoint. Optional fields are omitted when empty so the
// wire payload only carries what the row actually set.
type CreateContainerRequest struct {
	MediaType       string `json:"media_type"`
	Text            string `json:"text"`
	ImageURL        string `json:"image_url,omitempty"`
	AutoPublishText bool   `json:"auto_publish_text,omitempty"`
	AltText         string `json:"alt_text,omitempty"`
	LinkAttachment  string `json:"link_attachment,omitempty"`
	ReplyControl    string `json:"reply_control,omitempty"`
	TopicTag        string `json:"topic_tag,omitempty"`
	LocationID      string `json:"location_id,omitempty"`
}

// PublishContainerParams carries the query parameters of the
// publish-container endpoint (encoded with go-querystring).
type PublishContainerParams struct {
	CreationID string `url:"creation_id"`
}

// ContainerResponse is the create-container reply; ID is the container id
// that a subsequent publish call consumes.
type ContainerResponse struct {
	ID string `json:"id"`
}

// PublishResponse confirms publication of a container.
type PublishResponse struct {
	ID string `json:"id"`
}

// PostReport is emitted as one JSON line on stdout per post attempt.
type PostReport struct {
	OK     bool              `json:"ok"`
	Msg    string            `json:"msg,omitempty"`
	RowIdx int               `json:"row_idx,omitempty"`
	Row    map[string]string `json:"row,omitempty"`
	Res    interface{}       `json:"res,omitempty"`
	Err    string            `json:"err,omitempty"`
}
