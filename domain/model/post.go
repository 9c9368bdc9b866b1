package model

// Column names every worksheet must carry. EnsureHeader appends any that
// are missing; existing columns and their order are preserved.
var RequiredColumns = []string{
	"text",
	"image_url",
	"alt_text",
	"link_attachment",
	"reply_control",
	"topic_tag",
	"location_id",
	"status",
	"posted_at",
	"error",
}

// Row status values. An empty status means the row has not been picked yet.
const (
	StatusPosted = "posted"
	StatusFailed = "failed"
)

// MaxErrorLength is the cap applied to the error cell when a row fails.
const MaxErrorLength = 3000

// PostRow is one data row of the worksheet. Index is the 1-based sheet
// position (the header occupies row 1, so data rows start at 2). Fields is
// keyed by header column name; cells missing from the sheet read as "".
type PostRow struct {
	Index  int               `json:"row_idx"`
	Fields map[string]string `json:"row"`
}

// Get returns the named field or "" when absent.
func (r PostRow) Get(col string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[col]
}

func (r PostRow) Text() string     { return r.Get("text") }
func (r PostRow) ImageURL() string { return r.Get("image_url") }
func (r PostRow) Status() string   { return r.Get("status") }

// PostResult is the transient outcome of submitting one row. It is folded
// into the row's status/posted_at/error cells and not persisted otherwise.
type PostResult struct {
	Status      string      `json:"status"`
	ContainerID string      `json:"container_id"`
	MediaType   string      `json:"media_type"`
	Publish     interface{} `json:"publish,omitempty"`
}
