package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jomei/notionapi"

	"github.com/dhcgn/llm-assist/model"
)

const (
	// RichTextLimit is the service maximum for a single rich-text run.
	RichTextLimit = 2000
	pageSize      = 100
)

type blockAPI interface {
	GetChildren(ctx context.Context, id notionapi.BlockID, pagination *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
}

type pageAPI interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// Client creates pages and reads page content as plain text.
type Client struct {
	blocks blockAPI
	pages  pageAPI
	logger *slog.Logger
}

func NewClient(apiKey string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, model.NewError(model.KindConfiguration, "notion client", model.ErrMissingCredential)
	}
	api := notionapi.NewClient(notionapi.Token(apiKey))
	return &Client{blocks: api.Block, pages: api.Page, logger: logger}, nil
}

// CreatePage adds a child page under parentID holding content as one paragraph.
func (c *Client) CreatePage(ctx context.Context, parentID, title, content string) (string, error) {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return "", model.NewError(model.KindValidation, "create page", fmt.Errorf("parent page id is empty"))
	}

	runs := richText(content)
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:   notionapi.ParentTypePageID,
			PageID: notionapi.PageID(parentID),
		},
		Properties: notionapi.Properties{
			"title": notionapi.TitleProperty{
				Title: richText(title),
			},
		},
		Children: []notionapi.Block{
			&notionapi.ParagraphBlock{
				BasicBlock: notionapi.BasicBlock{
					Object: notionapi.ObjectTypeBlock,
					Type:   notionapi.BlockTypeParagraph,
				},
				Paragraph: notionapi.Paragraph{
					RichText: runs,
				},
			},
		},
	}

	page, err := c.pages.Create(ctx, req)
	if err != nil {
		return "", model.NewError(model.KindDocumentService, "create page", err)
	}

	id := ""
	if page != nil {
		id = string(page.ID)
	}
	if c.logger != nil {
		c.logger.Debug("notion page created", "parent", parentID, "page", id, "title", title, "runs", len(runs))
	}
	return id, nil
}

// richText splits s into runs no longer than RichTextLimit runes.
func richText(s string) []notionapi.RichText {
	var runs []notionapi.RichText
	for s != "" {
		cut := len(s)
		if utf8.RuneCountInString(s) > RichTextLimit {
			cut = 0
			for n := 0; n < RichTextLimit; n++ {
				_, size := utf8.DecodeRuneInString(s[cut:])
				cut += size
			}
		}
		runs = append(runs, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s[:cut]},
		})
		s = s[cut:]
	}
	if runs == nil {
		runs = []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: ""}}}
	}
	return runs
}

// FlattenPage returns every text run of the page, depth-first with parents
// before their children, one per line. A page without text yields "".
func (c *Client) FlattenPage(ctx context.Context, pageID string) (string, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return "", model.NewError(model.KindValidation, "flatten page", fmt.Errorf("page id is empty"))
	}

	blocks, err := c.children(ctx, notionapi.BlockID(pageID))
	if err != nil {
		return "", model.NewError(model.KindDocumentService, "flatten page", err)
	}

	lines := model.FlattenBlocks(blocks)
	if c.logger != nil {
		c.logger.Debug("notion page flattened", "page", pageID, "blocks", len(blocks), "lines", len(lines))
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Client) children(ctx context.Context, id notionapi.BlockID) ([]model.Block, error) {
	var (
		out    []model.Block
		cursor string
	)
	for {
		resp, err := c.blocks.GetChildren(ctx, id, &notionapi.Pagination{
			StartCursor: notionapi.Cursor(cursor),
			PageSize:    pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("children of %s: %w", id, err)
		}

		for _, b := range resp.Results {
			block := model.Block{
				ID:          string(b.GetID()),
				Type:        string(b.GetType()),
				Text:        blockText(b),
				HasChildren: b.GetHasChildren(),
			}
			if block.HasChildren {
				kids, err := c.children(ctx, b.GetID())
				if err != nil {
					return nil, err
				}
				block.Children = kids
			}
			out = append(out, block)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return out, nil
		}
		cursor = string(resp.NextCursor)
	}
}

type richTextRun struct {
	PlainText string `json:"plain_text"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text"`
}

// blockText reads the rich_text runs of any block type from its JSON form.
func blockText(b notionapi.Block) []string {
	data, err := json.Marshal(b)
	if err != nil {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	body, ok := fields[string(b.GetType())]
	if !ok {
		return nil
	}
	var content struct {
		RichText []richTextRun `json:"rich_text"`
	}
	if err := json.Unmarshal(body, &content); err != nil {
		return nil
	}

	var texts []string
	for _, run := range content.RichText {
		text := run.PlainText
		if text == "" && run.Text != nil {
			text = run.Text.Content
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}
